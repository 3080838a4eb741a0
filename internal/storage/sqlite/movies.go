package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

func (s *Store) CreateMovie(ctx context.Context, in storage.MovieInput) (model.Movie, error) {
	genres, err := listToJSON(in.Genres)
	if err != nil {
		return model.Movie{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (title, poster_url, genres, notes, suggested_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.Title, in.PosterURL, genres, in.Notes, in.SuggestedBy, now)
	if err != nil {
		return model.Movie{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Movie{}, err
	}
	return model.Movie{
		ID: id, Title: in.Title, PosterURL: in.PosterURL, Genres: in.Genres,
		Notes: in.Notes, SuggestedBy: in.SuggestedBy, CreatedAt: now,
	}, nil
}

func scanMovie(row interface{ Scan(dest ...any) error }) (model.Movie, error) {
	var (
		m      model.Movie
		genres sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &m.PosterURL, &genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt); err != nil {
		return model.Movie{}, err
	}
	g, err := jsonToList[string](genres)
	if err != nil {
		return model.Movie{}, err
	}
	m.Genres = g
	return m, nil
}

const movieColumns = `id, title, poster_url, genres, notes, suggested_by, created_at`

func (s *Store) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMovie(ctx context.Context, id int64) (model.Movie, error) {
	m, err := scanMovie(s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) UpdateMovie(ctx context.Context, id int64, patch storage.MoviePatch) (model.Movie, error) {
	genres, err := listToJSON(patch.Genres)
	if err != nil {
		return model.Movie{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE movies SET
			poster_url = COALESCE(?, poster_url),
			genres     = COALESCE(?, genres),
			notes      = COALESCE(?, notes)
		WHERE id = ?`,
		patch.PosterURL, genres, patch.Notes, id); err != nil {
		return model.Movie{}, err
	}
	return s.GetMovie(ctx, id)
}

func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var watched bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM meetings WHERE watched_movie_id = ?)`, id,
	).Scan(&watched); err != nil {
		return err
	}
	if watched {
		return storage.ErrMovieWatched
	}
	if err := pruneAllowLists(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

// pruneAllowLists removes the movie id from every meeting allow-list. The
// lists are JSON text here, so the rewrite happens in Go rather than SQL.
func pruneAllowLists(ctx context.Context, tx *sql.Tx, movieID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, allowed_movie_ids FROM meetings WHERE allowed_movie_ids IS NOT NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type patch struct {
		meetingID int64
		ids       []int64
	}
	patches := []patch{}
	for rows.Next() {
		var meetingID int64
		var raw sql.NullString
		if err := rows.Scan(&meetingID, &raw); err != nil {
			return err
		}
		ids, err := jsonToList[int64](raw)
		if err != nil {
			return err
		}
		kept := ids[:0]
		removed := false
		for _, v := range ids {
			if v == movieID {
				removed = true
				continue
			}
			kept = append(kept, v)
		}
		if removed {
			patches = append(patches, patch{meetingID: meetingID, ids: kept})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, p := range patches {
		val, err := listToJSON(p.ids)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE meetings SET allowed_movie_ids = ? WHERE id = ?`, val, p.meetingID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListMoviesMissingPoster(ctx context.Context, limit int32) ([]model.Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE poster_url IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
