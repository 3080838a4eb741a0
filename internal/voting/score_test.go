package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienight-server/internal/model"
)

func ballot(meetingID int64, ranks ...model.RankEntry) model.Ballot {
	return model.Ballot{MeetingID: meetingID, VoterName: "tester", Ranks: ranks}
}

func TestScoreBorda(t *testing.T) {
	// ballot A: movie 1 rank 1, movie 2 rank 2
	// ballot B: movie 2 rank 1, movie 1 rank 3
	// ballot C: movie 3 rank 1, movie 1 rank 2
	ballots := []model.Ballot{
		ballot(1, model.RankEntry{MovieID: 1, Rank: 1}, model.RankEntry{MovieID: 2, Rank: 2}),
		ballot(1, model.RankEntry{MovieID: 2, Rank: 1}, model.RankEntry{MovieID: 1, Rank: 3}),
		ballot(1, model.RankEntry{MovieID: 3, Rank: 1}, model.RankEntry{MovieID: 1, Rank: 2}),
	}
	scores := Score(ballots)
	require.Len(t, scores, 3)
	assert.Equal(t, MovieScore{Score: 6, VoteCount: 3}, scores[1])
	assert.Equal(t, MovieScore{Score: 5, VoteCount: 2}, scores[2])
	assert.Equal(t, MovieScore{Score: 3, VoteCount: 1}, scores[3])

	winner, ok := WinningMovie(scores)
	require.True(t, ok)
	assert.Equal(t, int64(1), winner)
}

func TestScoreDeterministic(t *testing.T) {
	ballots := []model.Ballot{
		ballot(1, model.RankEntry{MovieID: 7, Rank: 1}, model.RankEntry{MovieID: 8, Rank: 2}, model.RankEntry{MovieID: 9, Rank: 3}),
		ballot(1, model.RankEntry{MovieID: 9, Rank: 1}, model.RankEntry{MovieID: 7, Rank: 2}, model.RankEntry{MovieID: 8, Rank: 3}),
	}
	first := Score(ballots)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Score(ballots))
	}
}

func TestScoreSumInvariant(t *testing.T) {
	// Per movie, the score equals the sum of (4 - rank) over its entries.
	ballots := []model.Ballot{
		ballot(1, model.RankEntry{MovieID: 1, Rank: 2}),
		ballot(1, model.RankEntry{MovieID: 1, Rank: 3}, model.RankEntry{MovieID: 2, Rank: 1}),
		ballot(1, model.RankEntry{MovieID: 1, Rank: 1}),
	}
	want := map[int64]int{}
	for _, b := range ballots {
		for _, e := range b.Ranks {
			want[e.MovieID] += 4 - e.Rank
		}
	}
	scores := Score(ballots)
	for id, sum := range want {
		assert.Equal(t, sum, scores[id].Score, "movie %d", id)
	}
}

func TestScoreEmpty(t *testing.T) {
	scores := Score(nil)
	assert.Empty(t, scores)
	_, ok := WinningMovie(scores)
	assert.False(t, ok)
}

func TestWinningMovieTieBreaks(t *testing.T) {
	tests := []struct {
		name   string
		scores map[int64]MovieScore
		want   int64
		wantOK bool
	}{
		{
			name: "higher score wins",
			scores: map[int64]MovieScore{
				1: {Score: 3, VoteCount: 1},
				2: {Score: 5, VoteCount: 2},
			},
			want:   2,
			wantOK: true,
		},
		{
			name: "tied score, higher vote count wins",
			scores: map[int64]MovieScore{
				1: {Score: 6, VoteCount: 2},
				2: {Score: 6, VoteCount: 3},
			},
			want:   2,
			wantOK: true,
		},
		{
			name: "fully tied, lowest id wins",
			scores: map[int64]MovieScore{
				5: {Score: 4, VoteCount: 2},
				3: {Score: 4, VoteCount: 2},
				9: {Score: 4, VoteCount: 2},
			},
			want:   3,
			wantOK: true,
		},
		{
			name: "zero vote counts never win",
			scores: map[int64]MovieScore{
				1: {Score: 0, VoteCount: 0},
				2: {Score: 0, VoteCount: 0},
			},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WinningMovie(tt.scores)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSortedResults(t *testing.T) {
	scores := map[int64]MovieScore{
		1: {Score: 2, VoteCount: 1},
		2: {Score: 5, VoteCount: 2},
		3: {Score: 5, VoteCount: 3},
		4: {Score: 0, VoteCount: 0},
		5: {Score: 0, VoteCount: 0},
	}
	got := SortedResults(scores)
	require.Len(t, got, 5)
	wantOrder := []int64{3, 2, 1, 4, 5}
	for i, id := range wantOrder {
		assert.Equal(t, id, got[i].MovieID, "position %d", i)
	}
}
