package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"movienight-server/internal/deps"
	"movienight-server/internal/model"
	"movienight-server/internal/server"
	"movienight-server/internal/storage"
	"movienight-server/internal/storage/memory"
	"movienight-server/internal/voting"
	"movienight-server/pkg/cache"
	"movienight-server/pkg/session"
)

const adminPassword = "hunter2"

type testEnv struct {
	handler http.Handler
	store   *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	c := cache.NewInMemory()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	sd := deps.ServerDeps{
		Store:     st,
		Cache:     c,
		Sessions:  session.NewCacheStore(c, []byte("test-secret"), time.Hour),
		Resolver:  voting.NewResolver(st),
		AdminHash: hash,
		Name:      "movienight-server",
		StartedAt: time.Now(),
	}
	return &testEnv{handler: server.New(sd, nil).Router(), store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/admin/login", "", map[string]any{"password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into), rec.Body.String())
}

func (e *testEnv) seedMovie(t *testing.T, title string) model.Movie {
	t.Helper()
	m, err := e.store.CreateMovie(context.Background(), storage.MovieInput{Title: title})
	require.NoError(t, err)
	return m
}

func (e *testEnv) seedMeeting(t *testing.T, in storage.MeetingInput) model.Meeting {
	t.Helper()
	m, err := e.store.CreateMeeting(context.Background(), in)
	require.NoError(t, err)
	return m
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "movienight-server", resp["service"])
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/movies"},
		{http.MethodPatch, "/movies/1"},
		{http.MethodDelete, "/movies/1"},
		{http.MethodPost, "/meetings"},
		{http.MethodPatch, "/meetings/1"},
		{http.MethodDelete, "/meetings/1"},
	} {
		rec := env.do(t, tc.method, tc.path, "", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := env.do(t, http.MethodPost, "/admin/login", "", map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/movies", token, map[string]any{"title": "Alien"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/admin/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/movies", token, map[string]any{"title": "Aliens"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked session must not pass")
}

func TestMovieCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/movies", token, map[string]any{
		"title":        "Heat",
		"genres":       []string{"crime", "thriller"},
		"suggested_by": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Movie
	decodeJSON(t, rec, &created)
	assert.Equal(t, "Heat", created.Title)
	assert.Equal(t, []string{"crime", "thriller"}, created.Genres)

	rec = env.do(t, http.MethodPost, "/movies", token, map[string]any{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "blank title rejected")

	rec = env.do(t, http.MethodGet, "/movies/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/movies/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/movies/1", token, map[string]any{
		"poster_url": "https://example.com/heat.jpg",
		"notes":      "director's cut",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var patched model.Movie
	decodeJSON(t, rec, &patched)
	require.NotNil(t, patched.PosterURL)
	assert.Equal(t, "https://example.com/heat.jpg", *patched.PosterURL)
	assert.Equal(t, "Heat", patched.Title, "title is immutable")

	rec = env.do(t, http.MethodGet, "/movies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []model.Movie `json:"items"`
		Count int           `json:"count"`
	}
	decodeJSON(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = env.do(t, http.MethodDelete, "/movies/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/movies/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBallotSubmission(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.seedMovie(t, "Alien")
	m2 := env.seedMovie(t, "Blade Runner")
	meeting := env.seedMeeting(t, storage.MeetingInput{CandidateDays: []string{"2024-01-15", "2024-01-16"}})

	rec := env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id":   meeting.ID,
		"voter_name":   "alice",
		"availability": []string{"2024-01-15"},
		"ranks": []map[string]any{
			{"movie_id": m1.ID, "rank": 1},
			{"movie_id": m2.ID, "rank": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		BallotID int64 `json:"ballot_id"`
	}
	decodeJSON(t, rec, &resp)
	assert.NotZero(t, resp.BallotID)

	// duplicate movie on one ballot
	rec = env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": meeting.ID,
		"voter_name": "bob",
		"ranks": []map[string]any{
			{"movie_id": m1.ID, "rank": 1},
			{"movie_id": m1.ID, "rank": 2},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown meeting
	rec = env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": 999,
		"voter_name": "bob",
		"ranks":      []map[string]any{{"movie_id": m1.ID, "rank": 1}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// rejected ballots leave nothing behind
	ballots, err := env.store.ListBallots(context.Background(), &meeting.ID)
	require.NoError(t, err)
	assert.Len(t, ballots, 1)
}

func TestCloseVotingResolvesMeeting(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	m1 := env.seedMovie(t, "Alien")
	m2 := env.seedMovie(t, "Blade Runner")
	meeting := env.seedMeeting(t, storage.MeetingInput{CandidateDays: []string{"2024-01-15", "2024-01-16"}})

	submit := func(voter string, avail []string, ranks []map[string]any) {
		rec := env.do(t, http.MethodPost, "/ballots", "", map[string]any{
			"meeting_id":   meeting.ID,
			"voter_name":   voter,
			"availability": avail,
			"ranks":        ranks,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	submit("alice", []string{"2024-01-16"}, []map[string]any{
		{"movie_id": m1.ID, "rank": 1}, {"movie_id": m2.ID, "rank": 2},
	})
	submit("bob", []string{"2024-01-15"}, []map[string]any{
		{"movie_id": m1.ID, "rank": 2}, {"movie_id": m2.ID, "rank": 1},
	})

	rec := env.do(t, http.MethodPatch, "/meetings/1", token, map[string]any{"voting_open": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var closed model.Meeting
	decodeJSON(t, rec, &closed)
	assert.False(t, closed.VotingOpen)
	// movie 1: 3+2=5, movie 2: 2+3=5; equal votes, so lowest id wins
	require.NotNil(t, closed.WatchedMovieID)
	assert.Equal(t, m1.ID, *closed.WatchedMovieID)
	// 1-1 date tie resolves to the earliest date
	require.NotNil(t, closed.Date)
	assert.Equal(t, "2024-01-15", *closed.Date)

	// ballots against a closed meeting conflict
	rec = env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": meeting.ID,
		"voter_name": "carol",
		"ranks":      []map[string]any{{"movie_id": m2.ID, "rank": 1}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// closing again is a no-op, not an error
	rec = env.do(t, http.MethodPatch, "/meetings/1", token, map[string]any{"voting_open": false})
	require.Equal(t, http.StatusOK, rec.Code)
	var again model.Meeting
	decodeJSON(t, rec, &again)
	assert.Equal(t, closed.WatchedMovieID, again.WatchedMovieID)

	// re-opening keeps the prior resolution
	rec = env.do(t, http.MethodPatch, "/meetings/1", token, map[string]any{"voting_open": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var reopened model.Meeting
	decodeJSON(t, rec, &reopened)
	assert.True(t, reopened.VotingOpen)
	require.NotNil(t, reopened.WatchedMovieID)
	assert.Equal(t, m1.ID, *reopened.WatchedMovieID)
	require.NotNil(t, reopened.Date)
	assert.Equal(t, "2024-01-15", *reopened.Date)
}

func TestCloseVotingNoBallots(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	env.seedMeeting(t, storage.MeetingInput{CandidateDays: []string{"2024-01-15"}})

	rec := env.do(t, http.MethodPatch, "/meetings/1", token, map[string]any{"voting_open": false})
	require.Equal(t, http.StatusOK, rec.Code)
	var closed model.Meeting
	decodeJSON(t, rec, &closed)
	assert.False(t, closed.VotingOpen)
	assert.Nil(t, closed.WatchedMovieID)
	assert.Nil(t, closed.Date)
}

func TestMeetingGetTally(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.seedMovie(t, "Alien")
	meeting := env.seedMeeting(t, storage.MeetingInput{CandidateDays: []string{"2024-01-15", "2024-01-16"}})

	for _, avail := range [][]string{
		{"2024-01-15", "2024-01-16"},
		{"2024-01-16"},
	} {
		rec := env.do(t, http.MethodPost, "/ballots", "", map[string]any{
			"meeting_id":   meeting.ID,
			"voter_name":   "v",
			"availability": avail,
			"ranks":        []map[string]any{{"movie_id": m1.ID, "rank": 1}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/meetings/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Meeting     model.Meeting  `json:"meeting"`
		BallotCount int            `json:"ballot_count"`
		DateCounts  map[string]int `json:"date_counts"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 2, resp.BallotCount)
	assert.Equal(t, map[string]int{"2024-01-15": 1, "2024-01-16": 2}, resp.DateCounts)
}

func TestResultsIncludeZeroVoteMovies(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.seedMovie(t, "Alien")
	m2 := env.seedMovie(t, "Blade Runner")
	m3 := env.seedMovie(t, "Casablanca")
	meeting := env.seedMeeting(t, storage.MeetingInput{})

	rec := env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": meeting.ID,
		"voter_name": "alice",
		"ranks": []map[string]any{
			{"movie_id": m2.ID, "rank": 1},
			{"movie_id": m1.ID, "rank": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/results?meeting_id=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []struct {
			Movie     model.Movie `json:"movie"`
			Score     int         `json:"score"`
			VoteCount int         `json:"vote_count"`
		} `json:"items"`
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &resp)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, m2.ID, resp.Items[0].Movie.ID)
	assert.Equal(t, 3, resp.Items[0].Score)
	assert.Equal(t, m1.ID, resp.Items[1].Movie.ID)
	assert.Equal(t, 2, resp.Items[1].Score)
	assert.Equal(t, m3.ID, resp.Items[2].Movie.ID)
	assert.Zero(t, resp.Items[2].Score)
	assert.Zero(t, resp.Items[2].VoteCount)
}

func TestResultsAllowListScope(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.seedMovie(t, "Alien")
	env.seedMovie(t, "Blade Runner")
	env.seedMeeting(t, storage.MeetingInput{AllowedMovieIDs: []int64{m1.ID}})

	rec := env.do(t, http.MethodGet, "/results?meeting_id=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 1, resp.Count, "allow-list restricts the result scope")

	rec = env.do(t, http.MethodGet, "/results", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 2, resp.Count, "global results cover every movie")
}

func TestResultsCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	m1 := env.seedMovie(t, "Alien")
	meeting := env.seedMeeting(t, storage.MeetingInput{})

	rec := env.do(t, http.MethodGet, "/results?meeting_id=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": meeting.ID,
		"voter_name": "alice",
		"ranks":      []map[string]any{{"movie_id": m1.ID, "rank": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/results?meeting_id=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []struct {
			Score int `json:"score"`
		} `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Score, "new ballot must not be hidden by a stale cache entry")
}

func TestDeleteWatchedMovieConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	m1 := env.seedMovie(t, "Alien")
	m2 := env.seedMovie(t, "Blade Runner")
	env.seedMeeting(t, storage.MeetingInput{AllowedMovieIDs: []int64{m1.ID, m2.ID}})

	require.NoError(t, env.store.SetMeetingResolution(context.Background(), 1, &m1.ID, nil))

	rec := env.do(t, http.MethodDelete, "/movies/1", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "watched movies are not deletable")

	rec = env.do(t, http.MethodDelete, "/movies/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	meeting, err := env.store.GetMeeting(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{m1.ID}, meeting.AllowedMovieIDs, "deleted movie is pruned from allow-lists")
}

func TestClearAllowList(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	m1 := env.seedMovie(t, "Alien")
	env.seedMeeting(t, storage.MeetingInput{AllowedMovieIDs: []int64{m1.ID}})

	rec := env.do(t, http.MethodPatch, "/meetings/1", token, map[string]any{"allowed_movie_ids": []int64{}})
	require.Equal(t, http.StatusOK, rec.Code)
	var m model.Meeting
	decodeJSON(t, rec, &m)
	assert.Nil(t, m.AllowedMovieIDs, "explicit empty list clears the restriction")
}

func TestReviews(t *testing.T) {
	env := newTestEnv(t)
	env.seedMovie(t, "Alien")

	rec := env.do(t, http.MethodPost, "/movies/1/reviews", "", map[string]any{
		"voter_name": "alice", "score": 9, "comment": "great",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/movies/1/reviews", "", map[string]any{"score": 6})
	require.Equal(t, http.StatusCreated, rec.Code, "anonymous reviews are allowed")

	rec = env.do(t, http.MethodPost, "/movies/1/reviews", "", map[string]any{"score": 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/movies/999/reviews", "", map[string]any{"score": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/movies/1/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items   []model.Review `json:"items"`
		Count   int            `json:"count"`
		Average float64        `json:"average"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 2, resp.Count)
	assert.InDelta(t, 7.5, resp.Average, 0.001)
}

func TestDeleteMeetingDropsBallots(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)
	m1 := env.seedMovie(t, "Alien")
	meeting := env.seedMeeting(t, storage.MeetingInput{})

	rec := env.do(t, http.MethodPost, "/ballots", "", map[string]any{
		"meeting_id": meeting.ID,
		"voter_name": "alice",
		"ranks":      []map[string]any{{"movie_id": m1.ID, "rank": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/meetings/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ballots, err := env.store.ListBallots(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ballots)
}
