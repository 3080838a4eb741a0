package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienight-server/internal/model"
)

func availBallot(dates ...string) model.Ballot {
	return model.Ballot{VoterName: "tester", Availability: dates}
}

func TestTallyAvailability(t *testing.T) {
	ballots := []model.Ballot{
		availBallot("2024-01-15", "2024-01-16"),
		availBallot("2024-01-16"),
		availBallot(),
		availBallot("2024-01-15", "2024-01-17"),
	}
	counts := TallyAvailability(ballots)
	assert.Equal(t, map[string]int{
		"2024-01-15": 2,
		"2024-01-16": 2,
		"2024-01-17": 1,
	}, counts)
}

func TestTallyAvailabilityEmpty(t *testing.T) {
	assert.Empty(t, TallyAvailability(nil))
	assert.Empty(t, TallyAvailability([]model.Ballot{availBallot(), availBallot()}))
}

func TestWinningDate(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
		wantOK bool
	}{
		{
			name:   "clear majority",
			counts: map[string]int{"2024-01-15": 1, "2024-01-16": 3},
			want:   "2024-01-16",
			wantOK: true,
		},
		{
			name:   "tie picks earliest date",
			counts: map[string]int{"2024-01-16": 2, "2024-01-15": 2},
			want:   "2024-01-15",
			wantOK: true,
		},
		{
			name:   "single date",
			counts: map[string]int{"2024-02-01": 1},
			want:   "2024-02-01",
			wantOK: true,
		},
		{
			name:   "no availability",
			counts: map[string]int{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WinningDate(tt.counts)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestWinningDateDeterministic(t *testing.T) {
	counts := map[string]int{"2024-03-03": 2, "2024-03-01": 2, "2024-03-02": 2}
	for i := 0; i < 50; i++ {
		got, ok := WinningDate(counts)
		require.True(t, ok)
		assert.Equal(t, "2024-03-01", got)
	}
}
