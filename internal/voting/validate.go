package voting

import (
	"errors"
	"fmt"
	"strings"

	"movienight-server/internal/model"
)

// ErrVotingClosed rejects ballots cast against a meeting whose voting has
// already closed. Ballots are never queued for a later re-open.
var ErrVotingClosed = errors.New("voting is closed for this meeting")

// ValidationError reports a structurally invalid ballot or review with a
// human-readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// BallotInput is a candidate ballot before acceptance.
type BallotInput struct {
	MeetingID    int64             `json:"meeting_id"`
	VoterName    string            `json:"voter_name"`
	Availability []string          `json:"availability"`
	Ranks        []model.RankEntry `json:"ranks"`
}

// ValidateBallot accepts or rejects a candidate ballot as a whole; there is
// no partial acceptance. The meeting must be the one the ballot targets and
// must still have voting open. Movie ids are deliberately not cross-checked
// against the meeting's allow-list.
func ValidateBallot(in BallotInput, meeting model.Meeting) error {
	if !meeting.VotingOpen {
		return ErrVotingClosed
	}
	if strings.TrimSpace(in.VoterName) == "" {
		return invalid("voter_name is required")
	}
	if len(in.Ranks) < 1 || len(in.Ranks) > model.MaxRankEntries {
		return invalid("ballot must rank between 1 and %d movies, got %d", model.MaxRankEntries, len(in.Ranks))
	}
	if len(in.Availability) > model.MaxAvailability {
		return invalid("ballot may list at most %d availability dates, got %d", model.MaxAvailability, len(in.Availability))
	}
	seen := make(map[int64]struct{}, len(in.Ranks))
	for _, e := range in.Ranks {
		if e.MovieID == 0 {
			return invalid("rank entry is missing a movie reference")
		}
		if e.Rank < model.MinRank || e.Rank > model.MaxRank {
			return invalid("rank must be between %d and %d, got %d", model.MinRank, model.MaxRank, e.Rank)
		}
		if _, dup := seen[e.MovieID]; dup {
			return invalid("movie %d appears more than once on the ballot", e.MovieID)
		}
		seen[e.MovieID] = struct{}{}
	}
	return nil
}

// ReviewInput is a candidate review before acceptance.
type ReviewInput struct {
	MovieID   int64   `json:"movie_id"`
	VoterName *string `json:"voter_name"`
	Score     int     `json:"score"`
	Comment   *string `json:"comment"`
}

// ValidateReview checks review score bounds.
func ValidateReview(in ReviewInput) error {
	if in.Score < model.MinReviewScore || in.Score > model.MaxReviewScore {
		return invalid("score must be between %d and %d, got %d", model.MinReviewScore, model.MaxReviewScore, in.Score)
	}
	return nil
}
