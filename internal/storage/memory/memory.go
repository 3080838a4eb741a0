// Package memory implements storage.Store entirely in process. It backs the
// server when no DATABASE_URL is configured and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"movienight-server/internal/model"
	"movienight-server/internal/storage"
)

type Store struct {
	mu sync.Mutex

	movies   map[int64]model.Movie
	meetings map[int64]model.Meeting
	ballots  map[int64]model.Ballot
	reviews  map[int64]model.Review

	nextMovie   int64
	nextMeeting int64
	nextBallot  int64
	nextReview  int64
}

func New() *Store {
	return &Store{
		movies:   make(map[int64]model.Movie),
		meetings: make(map[int64]model.Meeting),
		ballots:  make(map[int64]model.Ballot),
		reviews:  make(map[int64]model.Review),
	}
}

func (s *Store) Close() {}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

func cloneInts(v []int64) []int64 {
	if v == nil {
		return nil
	}
	return append([]int64(nil), v...)
}

func cloneRanks(v []model.RankEntry) []model.RankEntry {
	if v == nil {
		return nil
	}
	return append([]model.RankEntry(nil), v...)
}

func cloneMeeting(m model.Meeting) model.Meeting {
	m.CandidateDays = cloneStrings(m.CandidateDays)
	m.AllowedMovieIDs = cloneInts(m.AllowedMovieIDs)
	return m
}

func cloneBallot(b model.Ballot) model.Ballot {
	b.Availability = cloneStrings(b.Availability)
	b.Ranks = cloneRanks(b.Ranks)
	return b
}

// Movies

func (s *Store) CreateMovie(_ context.Context, in storage.MovieInput) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMovie++
	m := model.Movie{
		ID:          s.nextMovie,
		Title:       in.Title,
		PosterURL:   in.PosterURL,
		Genres:      cloneStrings(in.Genres),
		Notes:       in.Notes,
		SuggestedBy: in.SuggestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.movies[m.ID] = m
	return m, nil
}

func (s *Store) ListMovies(_ context.Context) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetMovie(_ context.Context, id int64) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *Store) UpdateMovie(_ context.Context, id int64, patch storage.MoviePatch) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, storage.ErrNotFound
	}
	if patch.PosterURL != nil {
		m.PosterURL = patch.PosterURL
	}
	if patch.Genres != nil {
		m.Genres = cloneStrings(patch.Genres)
	}
	if patch.Notes != nil {
		m.Notes = patch.Notes
	}
	s.movies[id] = m
	return m, nil
}

func (s *Store) DeleteMovie(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return storage.ErrNotFound
	}
	for _, m := range s.meetings {
		if m.WatchedMovieID != nil && *m.WatchedMovieID == id {
			return storage.ErrMovieWatched
		}
	}
	for mid, m := range s.meetings {
		if m.AllowedMovieIDs == nil {
			continue
		}
		kept := m.AllowedMovieIDs[:0]
		for _, v := range m.AllowedMovieIDs {
			if v != id {
				kept = append(kept, v)
			}
		}
		m.AllowedMovieIDs = kept
		s.meetings[mid] = m
	}
	delete(s.movies, id)
	return nil
}

func (s *Store) ListMoviesMissingPoster(_ context.Context, limit int32) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Movie{}
	for _, m := range s.movies {
		if m.PosterURL == nil {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Meetings

func (s *Store) CreateMeeting(_ context.Context, in storage.MeetingInput) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMeeting++
	allowed := cloneInts(in.AllowedMovieIDs)
	if len(allowed) == 0 {
		allowed = nil
	}
	m := model.Meeting{
		ID:              s.nextMeeting,
		Name:            in.Name,
		CandidateDays:   cloneStrings(in.CandidateDays),
		AllowedMovieIDs: allowed,
		VotingOpen:      true,
		CreatedAt:       time.Now().UTC(),
	}
	s.meetings[m.ID] = m
	return cloneMeeting(m), nil
}

func (s *Store) ListMeetings(_ context.Context) ([]model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		out = append(out, cloneMeeting(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetMeeting(_ context.Context, id int64) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return model.Meeting{}, storage.ErrNotFound
	}
	return cloneMeeting(m), nil
}

func (s *Store) UpdateMeeting(_ context.Context, id int64, patch storage.MeetingPatch) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return model.Meeting{}, storage.ErrNotFound
	}
	if patch.Name != nil {
		m.Name = patch.Name
	}
	if patch.CandidateDays != nil {
		m.CandidateDays = cloneStrings(patch.CandidateDays)
	}
	if patch.ClearAllowList {
		m.AllowedMovieIDs = nil
	} else if patch.AllowedMovieIDs != nil {
		m.AllowedMovieIDs = cloneInts(patch.AllowedMovieIDs)
	}
	s.meetings[id] = m
	return cloneMeeting(m), nil
}

func (s *Store) DeleteMeeting(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.meetings, id)
	for bid, b := range s.ballots {
		if b.MeetingID == id {
			delete(s.ballots, bid)
		}
	}
	return nil
}

func (s *Store) CloseVoting(_ context.Context, id int64) (bool, model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return false, model.Meeting{}, storage.ErrNotFound
	}
	if !m.VotingOpen {
		return false, cloneMeeting(m), nil
	}
	m.VotingOpen = false
	s.meetings[id] = m
	return true, cloneMeeting(m), nil
}

func (s *Store) ReopenVoting(_ context.Context, id int64) (model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return model.Meeting{}, storage.ErrNotFound
	}
	m.VotingOpen = true
	s.meetings[id] = m
	return cloneMeeting(m), nil
}

func (s *Store) SetMeetingResolution(_ context.Context, id int64, movieID *int64, date *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return storage.ErrNotFound
	}
	if movieID != nil {
		m.WatchedMovieID = movieID
	}
	if date != nil {
		m.Date = date
	}
	s.meetings[id] = m
	return nil
}

// Ballots

func (s *Store) CreateBallot(_ context.Context, in storage.BallotInput) (model.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBallot++
	b := model.Ballot{
		ID:           s.nextBallot,
		MeetingID:    in.MeetingID,
		VoterName:    in.VoterName,
		Availability: cloneStrings(in.Availability),
		Ranks:        cloneRanks(in.Ranks),
		CreatedAt:    time.Now().UTC(),
	}
	s.ballots[b.ID] = b
	return cloneBallot(b), nil
}

func (s *Store) ListBallots(_ context.Context, meetingID *int64) ([]model.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Ballot{}
	for _, b := range s.ballots {
		if meetingID != nil && b.MeetingID != *meetingID {
			continue
		}
		out = append(out, cloneBallot(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reviews

func (s *Store) CreateReview(_ context.Context, in storage.ReviewInput) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[in.MovieID]; !ok {
		return model.Review{}, storage.ErrNotFound
	}
	s.nextReview++
	rv := model.Review{
		ID:        s.nextReview,
		MovieID:   in.MovieID,
		VoterName: in.VoterName,
		Score:     in.Score,
		Comment:   in.Comment,
		CreatedAt: time.Now().UTC(),
	}
	s.reviews[rv.ID] = rv
	return rv, nil
}

func (s *Store) ListReviews(_ context.Context, movieID int64) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Review{}
	for _, rv := range s.reviews {
		if rv.MovieID == movieID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
