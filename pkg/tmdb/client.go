// Package tmdb is a minimal client for The Movie Database, used to look up
// poster art for suggested movies.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

type Client struct {
	APIKey   string
	BaseURL  string
	Language string
	Client   *http.Client
}

func New(apiKey, language string) *Client {
	return &Client{
		APIKey:   apiKey,
		BaseURL:  "https://api.themoviedb.org/3",
		Language: language,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResp struct {
	Results []searchItem `json:"results"`
}

type searchItem struct {
	ID         int32   `json:"id"`
	Title      string  `json:"title"`
	PosterPath string  `json:"poster_path"`
	Popularity float64 `json:"popularity"`
}

// SearchPosterURL looks up a movie by title and returns a full poster URL for
// the best match, or "" when nothing usable was found.
func (c *Client) SearchPosterURL(ctx context.Context, title string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("missing TMDB API key")
	}
	u, _ := url.Parse(c.BaseURL + "/search/movie")
	q := u.Query()
	q.Set("api_key", c.APIKey)
	q.Set("query", title)
	if c.Language != "" {
		q.Set("language", c.Language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tmdb search status %d", resp.StatusCode)
	}
	var sr searchResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	// Results come back ordered by relevance; take the first with a poster.
	for _, it := range sr.Results {
		if it.PosterPath != "" {
			return posterBaseURL + it.PosterPath, nil
		}
	}
	return "", nil
}
