package routes

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"movienight-server/internal/storage"
	"movienight-server/internal/voting"
	pkghttpx "movienight-server/pkg/httpx"
)

// ReviewsList handles GET /movies/{id}/reviews: the reviews plus their
// aggregate (count and mean score rounded to 2 decimals).
func ReviewsList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid movie id", err))
			return
		}
		if _, err := d.Store.GetMovie(ctx, id); err != nil {
			pkghttpx.WriteError(w, r, storeError("movie", err))
			return
		}
		reviews, err := d.Store.ListReviews(ctx, id)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list reviews", err))
			return
		}
		var average float64
		if len(reviews) > 0 {
			sum := 0
			for _, rv := range reviews {
				sum += rv.Score
			}
			average = math.Round(float64(sum)/float64(len(reviews))*100) / 100
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"items":   reviews,
			"count":   len(reviews),
			"average": average,
		})
	}
}

// ReviewCreate handles POST /movies/{id}/reviews.
func ReviewCreate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid movie id", err))
			return
		}
		type createReq struct {
			VoterName *string `json:"voter_name"`
			Score     int     `json:"score"`
			Comment   *string `json:"comment"`
		}
		var req createReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		if err := voting.ValidateReview(voting.ReviewInput{MovieID: id, Score: req.Score}); err != nil {
			var ve *voting.ValidationError
			if errors.As(err, &ve) {
				pkghttpx.WriteError(w, r, pkghttpx.Validation(ve.Reason, err))
				return
			}
			pkghttpx.WriteError(w, r, pkghttpx.Internal("review validation failed", err))
			return
		}
		rv, err := d.Store.CreateReview(ctx, storage.ReviewInput{
			MovieID:   id,
			VoterName: req.VoterName,
			Score:     req.Score,
			Comment:   req.Comment,
		})
		if err != nil {
			pkghttpx.WriteError(w, r, storeError("movie", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusCreated, rv)
	}
}
