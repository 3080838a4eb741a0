package voting

import (
	"context"

	"movienight-server/internal/model"
)

// Outcome is what resolution decided. Nil fields mean "leave the meeting
// record untouched": no winner when nobody voted, no date when nobody listed
// availability.
type Outcome struct {
	MovieID *int64
	Date    *string
}

// Resolve computes the winning movie and date for one meeting's ballots.
func Resolve(ballots []model.Ballot) Outcome {
	var out Outcome
	if d, ok := WinningDate(TallyAvailability(ballots)); ok {
		out.Date = &d
	}
	if id, ok := WinningMovie(Score(ballots)); ok {
		out.MovieID = &id
	}
	return out
}

// ResolverStore is the slice of storage the resolver needs.
type ResolverStore interface {
	ListBallots(ctx context.Context, meetingID *int64) ([]model.Ballot, error)
	SetMeetingResolution(ctx context.Context, meetingID int64, movieID *int64, date *string) error
}

// Resolver runs resolution against a storage backend. It is invoked exactly
// once per open->closed transition; callers own that guarantee (the close is
// an atomic compare-and-set at the storage layer).
type Resolver struct {
	store ResolverStore
}

func NewResolver(s ResolverStore) *Resolver { return &Resolver{store: s} }

// ResolveMeeting fetches the meeting's ballots, computes the outcome and
// persists it. Errors are returned for logging; callers must not let them
// fail the voting_open transition that triggered resolution.
func (r *Resolver) ResolveMeeting(ctx context.Context, meetingID int64) error {
	ballots, err := r.store.ListBallots(ctx, &meetingID)
	if err != nil {
		return err
	}
	out := Resolve(ballots)
	if out.MovieID == nil && out.Date == nil {
		return nil
	}
	return r.store.SetMeetingResolution(ctx, meetingID, out.MovieID, out.Date)
}
