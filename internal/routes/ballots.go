package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"movienight-server/internal/metrics"
	"movienight-server/internal/storage"
	"movienight-server/internal/voting"
	pkghttpx "movienight-server/pkg/httpx"
)

// BallotSubmit handles POST /ballots. Validation is all-or-nothing: a
// rejected ballot leaves no partial rows behind.
func BallotSubmit(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in voting.BallotInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		meeting, err := d.Store.GetMeeting(ctx, in.MeetingID)
		if err != nil {
			pkghttpx.WriteError(w, r, storeError("meeting", err))
			return
		}
		if err := voting.ValidateBallot(in, meeting); err != nil {
			if errors.Is(err, voting.ErrVotingClosed) {
				pkghttpx.WriteError(w, r, pkghttpx.Conflict("voting is closed for this meeting", err))
				return
			}
			var ve *voting.ValidationError
			if errors.As(err, &ve) {
				pkghttpx.WriteError(w, r, pkghttpx.Validation(ve.Reason, err))
				return
			}
			pkghttpx.WriteError(w, r, pkghttpx.Internal("ballot validation failed", err))
			return
		}
		b, err := d.Store.CreateBallot(ctx, storage.BallotInput{
			MeetingID:    in.MeetingID,
			VoterName:    in.VoterName,
			Availability: in.Availability,
			Ranks:        in.Ranks,
		})
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to record ballot", err))
			return
		}
		metrics.BallotsSubmitted.Inc()
		invalidateResults(r, d, in.MeetingID)
		pkghttpx.WriteJSON(w, http.StatusCreated, map[string]any{"ballot_id": b.ID})
	}
}
