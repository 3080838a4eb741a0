package postgres

import (
	"context"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

const meetingColumns = `id, name, meeting_date, candidate_days, allowed_movie_ids, voting_open, watched_movie_id, created_at`

func scanMeeting(row interface{ Scan(dest ...any) error }) (model.Meeting, error) {
	var m model.Meeting
	err := row.Scan(&m.ID, &m.Name, &m.Date, &m.CandidateDays, &m.AllowedMovieIDs,
		&m.VotingOpen, &m.WatchedMovieID, &m.CreatedAt)
	return m, err
}

func (s *Store) CreateMeeting(ctx context.Context, in storage.MeetingInput) (model.Meeting, error) {
	allowed := in.AllowedMovieIDs
	if len(allowed) == 0 {
		allowed = nil // NULL means every movie is eligible
	}
	m, err := scanMeeting(s.db.QueryRow(ctx, `
		INSERT INTO meetings (name, candidate_days, allowed_movie_ids)
		VALUES ($1, $2, $3)
		RETURNING `+meetingColumns,
		in.Name, in.CandidateDays, allowed))
	return m, err
}

func (s *Store) ListMeetings(ctx context.Context) ([]model.Meeting, error) {
	rows, err := s.db.Query(ctx, `SELECT `+meetingColumns+` FROM meetings ORDER BY id`)
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
	m, err := scanMeeting(s.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
	if noRows(err) {
		return model.Meeting{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) UpdateMeeting(ctx context.Context, id int64, patch storage.MeetingPatch) (model.Meeting, error) {
	allowed := patch.AllowedMovieIDs
	if patch.ClearAllowList {
		allowed = nil
	}
	m, err := scanMeeting(s.db.QueryRow(ctx, `
		UPDATE meetings SET
			name              = COALESCE($2, name),
			candidate_days    = COALESCE($3, candidate_days),
			allowed_movie_ids = CASE WHEN $5 THEN NULL ELSE COALESCE($4, allowed_movie_ids) END
		WHERE id = $1
		RETURNING `+meetingColumns,
		id, patch.Name, patch.CandidateDays, allowed, patch.ClearAllowList))
	if noRows(err) {
		return model.Meeting{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) DeleteMeeting(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CloseVoting flips voting_open true->false in a single statement so that
// concurrent close requests race safely: exactly one observes flipped=true.
func (s *Store) CloseVoting(ctx context.Context, id int64) (bool, model.Meeting, error) {
	m, err := scanMeeting(s.db.QueryRow(ctx, `
		UPDATE meetings SET voting_open = FALSE
		WHERE id = $1 AND voting_open
		RETURNING `+meetingColumns, id))
	if err == nil {
		return true, m, nil
	}
	if !noRows(err) {
		return false, model.Meeting{}, err
	}
	// Already closed, or missing entirely.
	m, err = s.GetMeeting(ctx, id)
	return false, m, err
}

func (s *Store) ReopenVoting(ctx context.Context, id int64) (model.Meeting, error) {
	m, err := scanMeeting(s.db.QueryRow(ctx, `
		UPDATE meetings SET voting_open = TRUE
		WHERE id = $1
		RETURNING `+meetingColumns, id))
	if noRows(err) {
		return model.Meeting{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) SetMeetingResolution(ctx context.Context, id int64, movieID *int64, date *string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE meetings SET
			watched_movie_id = COALESCE($2, watched_movie_id),
			meeting_date     = COALESCE($3, meeting_date)
		WHERE id = $1`,
		id, movieID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
