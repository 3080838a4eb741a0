package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

const meetingColumns = `id, name, meeting_date, candidate_days, allowed_movie_ids, voting_open, watched_movie_id, created_at`

func scanMeeting(row interface{ Scan(dest ...any) error }) (model.Meeting, error) {
	var (
		m       model.Meeting
		days    sql.NullString
		allowed sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Date, &days, &allowed, &m.VotingOpen, &m.WatchedMovieID, &m.CreatedAt); err != nil {
		return model.Meeting{}, err
	}
	var err error
	if m.CandidateDays, err = jsonToList[string](days); err != nil {
		return model.Meeting{}, err
	}
	if m.AllowedMovieIDs, err = jsonToList[int64](allowed); err != nil {
		return model.Meeting{}, err
	}
	return m, nil
}

func (s *Store) CreateMeeting(ctx context.Context, in storage.MeetingInput) (model.Meeting, error) {
	allowedIDs := in.AllowedMovieIDs
	if len(allowedIDs) == 0 {
		allowedIDs = nil
	}
	days, err := listToJSON(in.CandidateDays)
	if err != nil {
		return model.Meeting{}, err
	}
	allowed, err := listToJSON(allowedIDs)
	if err != nil {
		return model.Meeting{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (name, candidate_days, allowed_movie_ids, voting_open, created_at)
		VALUES (?, ?, ?, 1, ?)`,
		in.Name, days, allowed, now)
	if err != nil {
		return model.Meeting{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Meeting{}, err
	}
	return model.Meeting{
		ID: id, Name: in.Name, CandidateDays: in.CandidateDays,
		AllowedMovieIDs: allowedIDs, VotingOpen: true, CreatedAt: now,
	}, nil
}

func (s *Store) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMeeting(ctx context.Context, id int64) (model.Meeting, error) {
	m, err := scanMeeting(s.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meeting{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) UpdateMeeting(ctx context.Context, id int64, patch storage.MeetingPatch) (model.Meeting, error) {
	days, err := listToJSON(patch.CandidateDays)
	if err != nil {
		return model.Meeting{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET
			name           = COALESCE(?, name),
			candidate_days = COALESCE(?, candidate_days)
		WHERE id = ?`,
		patch.Name, days, id); err != nil {
		return model.Meeting{}, err
	}
	if patch.ClearAllowList {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE meetings SET allowed_movie_ids = NULL WHERE id = ?`, id); err != nil {
			return model.Meeting{}, err
		}
	} else if patch.AllowedMovieIDs != nil {
		allowed, err := listToJSON(patch.AllowedMovieIDs)
		if err != nil {
			return model.Meeting{}, err
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE meetings SET allowed_movie_ids = ? WHERE id = ?`, allowed, id); err != nil {
			return model.Meeting{}, err
		}
	}
	return s.GetMeeting(ctx, id)
}

func (s *Store) DeleteMeeting(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CloseVoting flips voting_open 1->0 in one statement; the request that
// observes an affected row is the one that owns resolution.
func (s *Store) CloseVoting(ctx context.Context, id int64) (bool, model.Meeting, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET voting_open = 0 WHERE id = ? AND voting_open = 1`, id)
	if err != nil {
		return false, model.Meeting{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.Meeting{}, err
	}
	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return false, model.Meeting{}, err
	}
	return n > 0, m, nil
}

func (s *Store) ReopenVoting(ctx context.Context, id int64) (model.Meeting, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE meetings SET voting_open = 1 WHERE id = ?`, id)
	if err != nil {
		return model.Meeting{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Meeting{}, err
	} else if n == 0 {
		return model.Meeting{}, storage.ErrNotFound
	}
	return s.GetMeeting(ctx, id)
}

func (s *Store) SetMeetingResolution(ctx context.Context, id int64, movieID *int64, date *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE meetings SET
			watched_movie_id = COALESCE(?, watched_movie_id),
			meeting_date     = COALESCE(?, meeting_date)
		WHERE id = ?`,
		movieID, date, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
