package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/voting"
	pkghttpx "movienight-server/pkg/httpx"
)

const resultsCacheTTL = time.Minute

type resultItem struct {
	Movie     model.Movie `json:"movie"`
	Score     int         `json:"score"`
	VoteCount int         `json:"vote_count"`
}

// Results handles GET /results?meeting_id=N. Read-only and computable at any
// time, before or after closure. Every movie in scope appears, including
// those with zero votes; scope is the meeting's allow-list when one is set,
// all movies otherwise.
func Results(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var meetingID *int64
		if s := r.URL.Query().Get("meeting_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid meeting_id", err))
				return
			}
			meetingID = &id
		}

		cacheKey := resultsCacheKey(meetingID)
		if cached, ok := d.Cache.Get(ctx, cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}

		movies, err := d.Store.ListMovies(ctx)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list movies", err))
			return
		}
		byID := make(map[int64]model.Movie, len(movies))
		for _, m := range movies {
			byID[m.ID] = m
		}

		scope := movies
		if meetingID != nil {
			meeting, err := d.Store.GetMeeting(ctx, *meetingID)
			if err != nil {
				pkghttpx.WriteError(w, r, storeError("meeting", err))
				return
			}
			if meeting.AllowedMovieIDs != nil {
				scope = scope[:0:0]
				for _, id := range meeting.AllowedMovieIDs {
					if m, ok := byID[id]; ok {
						scope = append(scope, m)
					}
				}
			}
		}

		ballots, err := d.Store.ListBallots(ctx, meetingID)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list ballots", err))
			return
		}
		scores := voting.Score(ballots)

		// Every scoped movie gets an entry; unvoted movies default to zero.
		full := make(map[int64]voting.MovieScore, len(scope))
		for _, m := range scope {
			full[m.ID] = scores[m.ID]
		}
		sorted := voting.SortedResults(full)
		items := make([]resultItem, 0, len(sorted))
		for _, res := range sorted {
			items = append(items, resultItem{Movie: byID[res.MovieID], Score: res.Score, VoteCount: res.VoteCount})
		}

		resp := map[string]any{"items": items, "count": len(items)}
		b, _ := json.Marshal(resp)
		_ = d.Cache.Set(ctx, cacheKey, string(b), resultsCacheTTL)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}
