// Package jobs runs background maintenance: poster lookups against TMDb for
// movies suggested without one.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"movienight-server/internal/storage"
	pkgtmdb "movienight-server/pkg/tmdb"
)

const backfillBatch = 50

// BackfillPosters looks up poster art for movies missing one and writes the
// URL back. No-op if the client is nil. Individual lookup failures are logged
// and skipped so one flaky title never stalls the batch.
func BackfillPosters(ctx context.Context, st storage.Store, c *pkgtmdb.Client) error {
	if c == nil {
		return nil
	}
	movies, err := st.ListMoviesMissingPoster(ctx, backfillBatch)
	if err != nil {
		return err
	}
	filled := 0
	for _, m := range movies {
		posterURL, err := c.SearchPosterURL(ctx, m.Title)
		if err != nil {
			log.Warn().Err(err).Int64("movie_id", m.ID).Str("title", m.Title).Msg("poster lookup failed")
			continue
		}
		if posterURL == "" {
			continue
		}
		if _, err := st.UpdateMovie(ctx, m.ID, storage.MoviePatch{PosterURL: &posterURL}); err != nil {
			log.Warn().Err(err).Int64("movie_id", m.ID).Msg("poster update failed")
			continue
		}
		filled++
	}
	if filled > 0 {
		log.Info().Int("count", filled).Msg("poster backfill filled posters")
	}
	return nil
}

// StartPosterBackfill runs BackfillPosters once at startup and then daily.
func StartPosterBackfill(ctx context.Context, st storage.Store, c *pkgtmdb.Client) {
	if c == nil {
		log.Warn().Msg("TMDb client not configured; skipping poster backfill")
		return
	}
	go func() {
		if err := BackfillPosters(ctx, st, c); err != nil {
			log.Error().Err(err).Msg("poster backfill failed")
		}
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := BackfillPosters(ctx, st, c); err != nil {
					log.Error().Err(err).Msg("poster backfill failed")
				}
			}
		}
	}()
}
