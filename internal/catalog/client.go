package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/llehouerou/alephplay/internal/protocol"
)

const (
	graphqlPath    = "/api/v1/music/graphql"
	defaultTimeout = 10 * time.Second
	userAgent      = "alephplay/0.1"

	songByIDQuery = `query GetSongById($id: ID!) { song(id: $id) { id title artist album image_url audio_url duration } }`
)

// Client looks tracks up through the API gateway's music GraphQL endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a catalog client for the given gateway base URL.
func NewClient(gatewayURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSuffix(gatewayURL, "/") + graphqlPath,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Song *protocol.SongPayload `json:"song"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Lookup fetches one track by id.
func (c *Client) Lookup(ctx context.Context, id string) (Track, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     songByIDQuery,
		Variables: map[string]any{"id": id},
	})
	if err != nil {
		return Track{}, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Track{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Track{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Track{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Track{}, fmt.Errorf("catalog status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Track{}, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		return Track{}, fmt.Errorf("%w: %s", ErrNotFound, result.Errors[0].Message)
	}
	if result.Data.Song == nil {
		return Track{}, ErrNotFound
	}

	t := FromPayload(result.Data.Song)
	if t.ID == "" {
		t.ID = id
	}
	return t, nil
}
