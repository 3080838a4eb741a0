package sqlite

import (
	"context"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

func (s *Store) CreateReview(ctx context.Context, in storage.ReviewInput) (model.Review, error) {
	// FK violations surface as driver errors; check the movie up front so the
	// caller gets a clean not-found.
	if _, err := s.GetMovie(ctx, in.MovieID); err != nil {
		return model.Review{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (movie_id, voter_name, score, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		in.MovieID, in.VoterName, in.Score, in.Comment, now)
	if err != nil {
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return model.Review{
		ID: id, MovieID: in.MovieID, VoterName: in.VoterName,
		Score: in.Score, Comment: in.Comment, CreatedAt: now,
	}, nil
}

func (s *Store) ListReviews(ctx context.Context, movieID int64) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, movie_id, voter_name, score, comment, created_at
		FROM reviews WHERE movie_id = ? ORDER BY id`, movieID)
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
