package model

import "time"

// Rank bounds for a single ballot entry.
const (
	MinRank = 1
	MaxRank = 3

	// MaxRankEntries is the maximum number of ranked movies per ballot.
	MaxRankEntries = 3
	// MaxAvailability is the maximum number of availability dates per ballot.
	MaxAvailability = 3

	// MinReviewScore and MaxReviewScore bound review scores (inclusive).
	MinReviewScore = 0
	MaxReviewScore = 10
)

type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PosterURL   *string   `json:"poster_url,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	SuggestedBy *string   `json:"suggested_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Meeting is a scheduled voting round. AllowedMovieIDs of nil means every
// movie is eligible; a non-nil list restricts the votable set. Date is the
// resolved meeting day (YYYY-MM-DD) once voting has closed with availability.
type Meeting struct {
	ID              int64     `json:"id"`
	Name            *string   `json:"name,omitempty"`
	Date            *string   `json:"date,omitempty"`
	CandidateDays   []string  `json:"candidate_days,omitempty"`
	AllowedMovieIDs []int64   `json:"allowed_movie_ids,omitempty"`
	VotingOpen      bool      `json:"voting_open"`
	WatchedMovieID  *int64    `json:"watched_movie_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RankEntry is one ranked choice on a ballot. Rank 1 is the top pick.
type RankEntry struct {
	MovieID int64 `json:"movie_id"`
	Rank    int   `json:"rank"`
}

// Ballot is one voter's complete submission for one meeting: up to three
// ranked movies plus up to three available dates. Ballots are immutable once
// created; repeat submissions under the same name are intentionally allowed.
type Ballot struct {
	ID           int64       `json:"id"`
	MeetingID    int64       `json:"meeting_id"`
	VoterName    string      `json:"voter_name"`
	Availability []string    `json:"availability,omitempty"`
	Ranks        []RankEntry `json:"ranks"`
	CreatedAt    time.Time   `json:"created_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	MovieID   int64     `json:"movie_id"`
	VoterName *string   `json:"voter_name,omitempty"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
