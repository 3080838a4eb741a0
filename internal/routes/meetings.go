package routes

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"movienight-server/internal/metrics"
	"movienight-server/internal/model"
	"movienight-server/internal/storage"
	"movienight-server/internal/voting"
	pkghttpx "movienight-server/pkg/httpx"
)

// MeetingsList handles GET /meetings.
func MeetingsList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meetings, err := d.Store.ListMeetings(r.Context())
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list meetings", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"items": meetings, "count": len(meetings)})
	}
}

// MeetingCreate handles POST /meetings.
func MeetingCreate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type createReq struct {
			Name            *string  `json:"name"`
			CandidateDays   []string `json:"candidate_days"`
			AllowedMovieIDs []int64  `json:"allowed_movie_ids"`
		}
		var req createReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		m, err := d.Store.CreateMeeting(r.Context(), storage.MeetingInput{
			Name:            req.Name,
			CandidateDays:   req.CandidateDays,
			AllowedMovieIDs: req.AllowedMovieIDs,
		})
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to create meeting", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusCreated, m)
	}
}

// MeetingGet handles GET /meetings/{id}: the meeting plus the current
// availability tally and the denormalized winner movie if one is set.
func MeetingGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid meeting id", err))
			return
		}
		m, err := d.Store.GetMeeting(ctx, id)
		if err != nil {
			pkghttpx.WriteError(w, r, storeError("meeting", err))
			return
		}
		ballots, err := d.Store.ListBallots(ctx, &id)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to list ballots", err))
			return
		}
		resp := map[string]any{
			"meeting":      m,
			"ballot_count": len(ballots),
			"date_counts":  voting.TallyAvailability(ballots),
		}
		if m.WatchedMovieID != nil {
			if movie, err := d.Store.GetMovie(ctx, *m.WatchedMovieID); err == nil {
				resp["watched_movie"] = movie
			}
		}
		pkghttpx.WriteJSON(w, http.StatusOK, resp)
	}
}

// MeetingPatch handles PATCH /meetings/{id}. Name, candidate days and the
// allow-list update independently of the lifecycle. voting_open=false runs
// the one-shot close: only the request that actually flips the flag resolves
// the meeting. voting_open=true re-opens without touching prior resolution.
func MeetingPatch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid meeting id", err))
			return
		}
		type patchReq struct {
			Name            *string  `json:"name"`
			CandidateDays   []string `json:"candidate_days"`
			AllowedMovieIDs []int64  `json:"allowed_movie_ids"`
			VotingOpen      *bool    `json:"voting_open"`
		}
		var req patchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}

		m := model.Meeting{}
		if req.Name != nil || req.CandidateDays != nil || req.AllowedMovieIDs != nil {
			// An explicit empty allow-list clears the restriction.
			patch := storage.MeetingPatch{
				Name:          req.Name,
				CandidateDays: req.CandidateDays,
			}
			if req.AllowedMovieIDs != nil && len(req.AllowedMovieIDs) == 0 {
				patch.ClearAllowList = true
			} else {
				patch.AllowedMovieIDs = req.AllowedMovieIDs
			}
			m, err = d.Store.UpdateMeeting(ctx, id, patch)
			if err != nil {
				pkghttpx.WriteError(w, r, storeError("meeting", err))
				return
			}
		}

		switch {
		case req.VotingOpen != nil && !*req.VotingOpen:
			flipped, closed, err := d.Store.CloseVoting(ctx, id)
			if err != nil {
				pkghttpx.WriteError(w, r, storeError("meeting", err))
				return
			}
			m = closed
			if flipped {
				// Resolution is best-effort: a failure here must never fail
				// the close itself.
				if err := d.Resolver.ResolveMeeting(ctx, id); err != nil {
					metrics.ResolutionFailures.Inc()
					log.Error().Err(err).Int64("meeting_id", id).Msg("meeting resolution failed")
				} else {
					metrics.MeetingsResolved.Inc()
					if resolved, err := d.Store.GetMeeting(ctx, id); err == nil {
						m = resolved
					}
				}
				invalidateResults(r, d, id)
			}
		case req.VotingOpen != nil && *req.VotingOpen:
			m, err = d.Store.ReopenVoting(ctx, id)
			if err != nil {
				pkghttpx.WriteError(w, r, storeError("meeting", err))
				return
			}
		case req.Name == nil && req.CandidateDays == nil && req.AllowedMovieIDs == nil:
			// Nothing to change; still return the current record.
			m, err = d.Store.GetMeeting(ctx, id)
			if err != nil {
				pkghttpx.WriteError(w, r, storeError("meeting", err))
				return
			}
		}
		pkghttpx.WriteJSON(w, http.StatusOK, m)
	}
}

// MeetingDelete handles DELETE /meetings/{id}.
func MeetingDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid meeting id", err))
			return
		}
		if err := d.Store.DeleteMeeting(r.Context(), id); err != nil {
			pkghttpx.WriteError(w, r, storeError("meeting", err))
			return
		}
		invalidateResults(r, d, id)
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "meeting deleted"})
	}
}
