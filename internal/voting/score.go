// Package voting implements the ranked-choice engine: Borda scoring,
// availability tallying, ballot validation and meeting resolution. Everything
// here is pure and storage-agnostic; backends fetch ballots into model shapes
// and persist whatever the resolver decides.
package voting

import (
	"sort"

	"movienight-server/internal/model"
)

// MovieScore is the per-movie aggregate over a set of ballots.
type MovieScore struct {
	Score     int `json:"score"`
	VoteCount int `json:"vote_count"`
}

// Result is a MovieScore bound to its movie for sorted output.
type Result struct {
	MovieID   int64 `json:"movie_id"`
	Score     int   `json:"score"`
	VoteCount int   `json:"vote_count"`
}

// Score computes Borda scores over the given ballots: a rank-r entry is worth
// 4-r points (rank 1 -> 3, rank 2 -> 2, rank 3 -> 1) and counts as one vote.
// Movies with no rank entries are absent from the result; callers default to
// zero. Deterministic and side-effect free.
func Score(ballots []model.Ballot) map[int64]MovieScore {
	out := make(map[int64]MovieScore)
	for _, b := range ballots {
		for _, e := range b.Ranks {
			s := out[e.MovieID]
			s.Score += 4 - e.Rank
			s.VoteCount++
			out[e.MovieID] = s
		}
	}
	return out
}

// WinningMovie picks the movie with the strictly highest score, breaking ties
// by higher vote count and then by lowest movie id so the outcome never
// depends on map iteration order. Returns ok=false when no movie received at
// least one vote.
func WinningMovie(scores map[int64]MovieScore) (int64, bool) {
	var (
		bestID int64
		best   MovieScore
		found  bool
	)
	for id, s := range scores {
		if s.VoteCount == 0 {
			continue
		}
		if !found || better(id, s, bestID, best) {
			bestID, best, found = id, s, true
		}
	}
	return bestID, found
}

func better(id int64, s MovieScore, bestID int64, best MovieScore) bool {
	if s.Score != best.Score {
		return s.Score > best.Score
	}
	if s.VoteCount != best.VoteCount {
		return s.VoteCount > best.VoteCount
	}
	return id < bestID
}

// SortedResults flattens a score map into a slice ordered by score desc, then
// vote count desc, then movie id asc.
func SortedResults(scores map[int64]MovieScore) []Result {
	out := make([]Result, 0, len(scores))
	for id, s := range scores {
		out = append(out, Result{MovieID: id, Score: s.Score, VoteCount: s.VoteCount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].VoteCount != out[j].VoteCount {
			return out[i].VoteCount > out[j].VoteCount
		}
		return out[i].MovieID < out[j].MovieID
	})
	return out
}
