package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"movienight-server/internal/storage"
	pkghttpx "movienight-server/pkg/httpx"
)

// MoviesList handles GET /movies.
func MoviesList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movies, err := d.Store.ListMovies(r.Context())
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list movies", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"items": movies, "count": len(movies)})
	}
}

// MovieCreate handles POST /movies.
func MovieCreate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type createReq struct {
			Title       string   `json:"title"`
			PosterURL   *string  `json:"poster_url"`
			Genres      []string `json:"genres"`
			Notes       *string  `json:"notes"`
			SuggestedBy *string  `json:"suggested_by"`
		}
		var req createReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			pkghttpx.WriteError(w, r, pkghttpx.Validation("title is required", nil))
			return
		}
		m, err := d.Store.CreateMovie(r.Context(), storage.MovieInput{
			Title:       req.Title,
			PosterURL:   req.PosterURL,
			Genres:      req.Genres,
			Notes:       req.Notes,
			SuggestedBy: req.SuggestedBy,
		})
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to create movie", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusCreated, m)
	}
}

// MovieGet handles GET /movies/{id}.
func MovieGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid movie id", err))
			return
		}
		m, err := d.Store.GetMovie(r.Context(), id)
		if err != nil {
			pkghttpx.WriteError(w, r, storeError("movie", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, m)
	}
}

// MoviePatch handles PATCH /movies/{id}: poster/genre/notes backfill only;
// title and suggester are immutable.
func MoviePatch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid movie id", err))
			return
		}
		type patchReq struct {
			PosterURL *string  `json:"poster_url"`
			Genres    []string `json:"genres"`
			Notes     *string  `json:"notes"`
		}
		var req patchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		m, err := d.Store.UpdateMovie(r.Context(), id, storage.MoviePatch{
			PosterURL: req.PosterURL,
			Genres:    req.Genres,
			Notes:     req.Notes,
		})
		if err != nil {
			pkghttpx.WriteError(w, r, storeError("movie", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, m)
	}
}

// MovieDelete handles DELETE /movies/{id}. Deleting a movie some meeting
// watched is a conflict; a movie referenced only by allow-lists is deleted
// and pruned from them.
func MovieDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid movie id", err))
			return
		}
		if err := d.Store.DeleteMovie(r.Context(), id); err != nil {
			pkghttpx.WriteError(w, r, storeError("movie", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "movie deleted"})
	}
}
