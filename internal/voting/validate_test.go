package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienight-server/internal/model"
)

func openMeeting() model.Meeting {
	return model.Meeting{ID: 1, VotingOpen: true}
}

func validInput() BallotInput {
	return BallotInput{
		MeetingID: 1,
		VoterName: "alice",
		Ranks: []model.RankEntry{
			{MovieID: 10, Rank: 1},
			{MovieID: 20, Rank: 2},
		},
		Availability: []string{"2024-01-15"},
	}
}

func TestValidateBallotOK(t *testing.T) {
	assert.NoError(t, ValidateBallot(validInput(), openMeeting()))
}

func TestValidateBallotClosedMeeting(t *testing.T) {
	m := openMeeting()
	m.VotingOpen = false
	err := ValidateBallot(validInput(), m)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestValidateBallotRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BallotInput)
	}{
		{"empty voter name", func(in *BallotInput) { in.VoterName = "" }},
		{"whitespace voter name", func(in *BallotInput) { in.VoterName = "   " }},
		{"no ranks", func(in *BallotInput) { in.Ranks = nil }},
		{"too many ranks", func(in *BallotInput) {
			in.Ranks = []model.RankEntry{
				{MovieID: 1, Rank: 1}, {MovieID: 2, Rank: 2},
				{MovieID: 3, Rank: 3}, {MovieID: 4, Rank: 1},
			}
		}},
		{"too many availability dates", func(in *BallotInput) {
			in.Availability = []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
		}},
		{"zero movie id", func(in *BallotInput) { in.Ranks[0].MovieID = 0 }},
		{"rank below minimum", func(in *BallotInput) { in.Ranks[0].Rank = 0 }},
		{"rank above maximum", func(in *BallotInput) { in.Ranks[0].Rank = 4 }},
		{"duplicate movie", func(in *BallotInput) { in.Ranks[1].MovieID = in.Ranks[0].MovieID }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := ValidateBallot(in, openMeeting())
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Reason)
		})
	}
}

func TestValidateBallotNoAllowListCheck(t *testing.T) {
	// Movie ids are not cross-checked against the meeting's allow-list.
	m := openMeeting()
	m.AllowedMovieIDs = []int64{99}
	assert.NoError(t, ValidateBallot(validInput(), m))
}

func TestValidateReview(t *testing.T) {
	assert.NoError(t, ValidateReview(ReviewInput{MovieID: 1, Score: 0}))
	assert.NoError(t, ValidateReview(ReviewInput{MovieID: 1, Score: 10}))

	var ve *ValidationError
	assert.ErrorAs(t, ValidateReview(ReviewInput{MovieID: 1, Score: -1}), &ve)
	assert.ErrorAs(t, ValidateReview(ReviewInput{MovieID: 1, Score: 11}), &ve)
}
