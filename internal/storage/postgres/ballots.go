package postgres

import (
	"context"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

// CreateBallot writes the ballot and its rank entries in one transaction:
// either everything persists or nothing does.
func (s *Store) CreateBallot(ctx context.Context, in storage.BallotInput) (model.Ballot, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return model.Ballot{}, err
	}
	defer tx.Rollback(ctx)

	b := model.Ballot{
		MeetingID:    in.MeetingID,
		VoterName:    in.VoterName,
		Availability: in.Availability,
		Ranks:        in.Ranks,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO ballots (meeting_id, voter_name, availability)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		in.MeetingID, in.VoterName, in.Availability,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return model.Ballot{}, err
	}
	for _, e := range in.Ranks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ballot_ranks (ballot_id, movie_id, rank)
			VALUES ($1, $2, $3)`,
			b.ID, e.MovieID, e.Rank,
		); err != nil {
			return model.Ballot{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Ballot{}, err
	}
	return b, nil
}

func (s *Store) ListBallots(ctx context.Context, meetingID *int64) ([]model.Ballot, error) {
	query := `SELECT id, meeting_id, voter_name, availability, created_at FROM ballots`
	args := []any{}
	if meetingID != nil {
		query += ` WHERE meeting_id = $1`
		args = append(args, *meetingID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Ballot{}
	index := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		var b model.Ballot
		if err := rows.Scan(&b.ID, &b.MeetingID, &b.VoterName, &b.Availability, &b.CreatedAt); err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		ids = append(ids, b.ID)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	rankRows, err := s.db.Query(ctx, `
		SELECT ballot_id, movie_id, rank FROM ballot_ranks
		WHERE ballot_id = ANY($1)
		ORDER BY ballot_id, rank`, ids)
	if err != nil {
		return nil, err
	}
	defer rankRows.Close()
	for rankRows.Next() {
		var ballotID int64
		var e model.RankEntry
		if err := rankRows.Scan(&ballotID, &e.MovieID, &e.Rank); err != nil {
			return nil, err
		}
		i := index[ballotID]
		out[i].Ranks = append(out[i].Ranks, e)
	}
	return out, rankRows.Err()
}
