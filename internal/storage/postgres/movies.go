package postgres

import (
	"context"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

const movieColumns = `id, title, poster_url, genres, notes, suggested_by, created_at`

func (s *Store) CreateMovie(ctx context.Context, in storage.MovieInput) (model.Movie, error) {
	var m model.Movie
	err := s.db.QueryRow(ctx, `
		INSERT INTO movies (title, poster_url, genres, notes, suggested_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+movieColumns,
		in.Title, in.PosterURL, in.Genres, in.Notes, in.SuggestedBy,
	).Scan(&m.ID, &m.Title, &m.PosterURL, &m.Genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt)
	return m, err
}

func (s *Store) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := s.db.Query(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.PosterURL, &m.Genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMovie(ctx context.Context, id int64) (model.Movie, error) {
	var m model.Movie
	err := s.db.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.PosterURL, &m.Genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt)
	if noRows(err) {
		return model.Movie{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) UpdateMovie(ctx context.Context, id int64, patch storage.MoviePatch) (model.Movie, error) {
	var m model.Movie
	err := s.db.QueryRow(ctx, `
		UPDATE movies SET
			poster_url = COALESCE($2, poster_url),
			genres     = COALESCE($3, genres),
			notes      = COALESCE($4, notes)
		WHERE id = $1
		RETURNING `+movieColumns,
		id, patch.PosterURL, patch.Genres, patch.Notes,
	).Scan(&m.ID, &m.Title, &m.PosterURL, &m.Genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt)
	if noRows(err) {
		return model.Movie{}, storage.ErrNotFound
	}
	return m, err
}

func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var watched bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM meetings WHERE watched_movie_id = $1)`, id,
	).Scan(&watched); err != nil {
		return err
	}
	if watched {
		return storage.ErrMovieWatched
	}
	// A movie referenced only by allow-lists may go; prune the lists.
	if _, err := tx.Exec(ctx,
		`UPDATE meetings SET allowed_movie_ids = array_remove(allowed_movie_ids, $1)
		 WHERE allowed_movie_ids @> ARRAY[$1]::bigint[]`, id,
	); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) ListMoviesMissingPoster(ctx context.Context, limit int32) ([]model.Movie, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE poster_url IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.PosterURL, &m.Genres, &m.Notes, &m.SuggestedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
