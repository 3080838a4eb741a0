package sqlite

import (
	"context"
	"database/sql"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

func (s *Store) CreateBallot(ctx context.Context, in storage.BallotInput) (model.Ballot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Ballot{}, err
	}
	defer tx.Rollback()

	avail, err := listToJSON(in.Availability)
	if err != nil {
		return model.Ballot{}, err
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ballots (meeting_id, voter_name, availability, created_at)
		VALUES (?, ?, ?, ?)`,
		in.MeetingID, in.VoterName, avail, now)
	if err != nil {
		return model.Ballot{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Ballot{}, err
	}
	for _, e := range in.Ranks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ballot_ranks (ballot_id, movie_id, rank)
			VALUES (?, ?, ?)`,
			id, e.MovieID, e.Rank); err != nil {
			return model.Ballot{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Ballot{}, err
	}
	return model.Ballot{
		ID: id, MeetingID: in.MeetingID, VoterName: in.VoterName,
		Availability: in.Availability, Ranks: in.Ranks, CreatedAt: now,
	}, nil
}

func (s *Store) ListBallots(ctx context.Context, meetingID *int64) ([]model.Ballot, error) {
	query := `SELECT id, meeting_id, voter_name, availability, created_at FROM ballots`
	args := []any{}
	if meetingID != nil {
		query += ` WHERE meeting_id = ?`
		args = append(args, *meetingID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Ballot{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			b     model.Ballot
			avail sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.MeetingID, &b.VoterName, &avail, &b.CreatedAt); err != nil {
			return nil, err
		}
		if b.Availability, err = jsonToList[string](avail); err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	rankQuery := `SELECT ballot_id, movie_id, rank FROM ballot_ranks`
	rankArgs := []any{}
	if meetingID != nil {
		rankQuery += ` WHERE ballot_id IN (SELECT id FROM ballots WHERE meeting_id = ?)`
		rankArgs = append(rankArgs, *meetingID)
	}
	rankQuery += ` ORDER BY ballot_id, rank`

	rankRows, err := s.db.QueryContext(ctx, rankQuery, rankArgs...)
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
		if i, ok := index[ballotID]; ok {
			out[i].Ranks = append(out[i].Ranks, e)
		}
	}
	return out, rankRows.Err()
}
