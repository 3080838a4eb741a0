// Package storage defines the data access contract shared by the Postgres,
// SQLite and in-memory backends. Backends only fetch rows into model shapes
// and persist engine output; none of them re-derive any scoring logic.
package storage

import (
	"context"
	"errors"

	"movienight-server/internal/model"
)

var (
	// ErrNotFound reports a missing movie, meeting or review.
	ErrNotFound = errors.New("not found")
	// ErrMovieWatched rejects deleting a movie referenced as some meeting's
	// watched movie.
	ErrMovieWatched = errors.New("movie is referenced as a watched movie")
)

// MovieInput creates a movie. Title is required.
type MovieInput struct {
	Title       string
	PosterURL   *string
	Genres      []string
	Notes       *string
	SuggestedBy *string
}

// MoviePatch backfills movie metadata. Nil fields are left unchanged.
type MoviePatch struct {
	PosterURL *string
	Genres    []string
	Notes     *string
}

type MeetingInput struct {
	Name            *string
	CandidateDays   []string
	AllowedMovieIDs []int64
}

// MeetingPatch updates meeting fields that are independent of the lifecycle.
// Nil fields are left unchanged; an empty AllowedMovieIDs slice clears the
// allow-list (all movies eligible again).
type MeetingPatch struct {
	Name            *string
	CandidateDays   []string
	AllowedMovieIDs []int64
	ClearAllowList  bool
}

// BallotInput persists an already-validated ballot. The write is atomic:
// either the ballot and all its rank entries land, or nothing does.
type BallotInput struct {
	MeetingID    int64
	VoterName    string
	Availability []string
	Ranks        []model.RankEntry
}

type ReviewInput struct {
	MovieID   int64
	VoterName *string
	Score     int
	Comment   *string
}

// Store is the full persistence surface. Implementations must be safe for
// concurrent use.
type Store interface {
	CreateMovie(ctx context.Context, in MovieInput) (model.Movie, error)
	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id int64) (model.Movie, error)
	UpdateMovie(ctx context.Context, id int64, patch MoviePatch) (model.Movie, error)
	// DeleteMovie fails with ErrMovieWatched if any meeting watched the movie;
	// otherwise it deletes the movie and prunes it from meeting allow-lists.
	DeleteMovie(ctx context.Context, id int64) error
	ListMoviesMissingPoster(ctx context.Context, limit int32) ([]model.Movie, error)

	CreateMeeting(ctx context.Context, in MeetingInput) (model.Meeting, error)
	ListMeetings(ctx context.Context) ([]model.Meeting, error)
	GetMeeting(ctx context.Context, id int64) (model.Meeting, error)
	UpdateMeeting(ctx context.Context, id int64, patch MeetingPatch) (model.Meeting, error)
	DeleteMeeting(ctx context.Context, id int64) error
	// CloseVoting atomically flips voting_open from true to false. flipped is
	// true only for the request that performed the flip; a meeting already
	// closed returns flipped=false with no error.
	CloseVoting(ctx context.Context, id int64) (flipped bool, m model.Meeting, err error)
	ReopenVoting(ctx context.Context, id int64) (model.Meeting, error)
	// SetMeetingResolution persists resolution output. Nil movieID or date
	// leaves the corresponding column untouched.
	SetMeetingResolution(ctx context.Context, id int64, movieID *int64, date *string) error

	CreateBallot(ctx context.Context, in BallotInput) (model.Ballot, error)
	// ListBallots returns ballots for one meeting, or all ballots when
	// meetingID is nil.
	ListBallots(ctx context.Context, meetingID *int64) ([]model.Ballot, error)

	CreateReview(ctx context.Context, in ReviewInput) (model.Review, error)
	ListReviews(ctx context.Context, movieID int64) ([]model.Review, error)

	Close()
}
