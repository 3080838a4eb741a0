// Package sqlite implements storage.Store on database/sql with the pure-Go
// modernc.org/sqlite driver. List-valued columns are stored as JSON text.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Rank-entry writes share a transaction with their ballot; a single
	// writer keeps SQLITE_BUSY out of the picture for this workload.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS movies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL CHECK (title <> ''),
    poster_url TEXT,
    genres TEXT,
    notes TEXT,
    suggested_by TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS meetings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT,
    meeting_date TEXT,
    candidate_days TEXT,
    allowed_movie_ids TEXT,
    voting_open INTEGER NOT NULL DEFAULT 1,
    watched_movie_id INTEGER REFERENCES movies(id),
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ballots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    meeting_id INTEGER NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
    voter_name TEXT NOT NULL CHECK (voter_name <> ''),
    availability TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ballots_meeting_id ON ballots(meeting_id);

CREATE TABLE IF NOT EXISTS ballot_ranks (
    ballot_id INTEGER NOT NULL REFERENCES ballots(id) ON DELETE CASCADE,
    movie_id INTEGER NOT NULL,
    rank INTEGER NOT NULL CHECK (rank BETWEEN 1 AND 3),
    PRIMARY KEY (ballot_id, movie_id)
);

CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    voter_name TEXT,
    score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 10),
    comment TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_movie_id ON reviews(movie_id);
`

// listToJSON marshals a slice column; nil slices become SQL NULL.
func listToJSON[T any](v []T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonToList unmarshals a nullable JSON text column back into a slice.
func jsonToList[T any](ns sql.NullString) ([]T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
