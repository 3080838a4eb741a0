package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

func (s *Store) CreateReview(ctx context.Context, in storage.ReviewInput) (model.Review, error) {
	var rv model.Review
	err := s.db.QueryRow(ctx, `
		INSERT INTO reviews (movie_id, voter_name, score, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, movie_id, voter_name, score, comment, created_at`,
		in.MovieID, in.VoterName, in.Score, in.Comment,
	).Scan(&rv.ID, &rv.MovieID, &rv.VoterName, &rv.Score, &rv.Comment, &rv.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
		return model.Review{}, storage.ErrNotFound
	}
	return rv, err
}

func (s *Store) ListReviews(ctx context.Context, movieID int64) ([]model.Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, movie_id, voter_name, score, comment, created_at
		FROM reviews WHERE movie_id = $1 ORDER BY id`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.MovieID, &rv.VoterName, &rv.Score, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
