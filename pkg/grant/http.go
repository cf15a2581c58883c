package grant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// HTTPGranter calls the game host's REST API
type HTTPGranter struct {
	baseURL string
	client  *http.Client
}

// HTTPError is returned when the host answers with a non-2xx status
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: host returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: host returned %d", e.Method, e.Path, e.StatusCode)
}

type itemRequest struct {
	ItemID   int `json:"itemId"`
	Quantity int `json:"quantity"`
}

type statValue struct {
	Value int `json:"value"`
}

// NewHTTPGranter creates a client for the host at baseURL. A nil client uses
// one with a 30 second timeout; per-call deadlines come from the context.
func NewHTTPGranter(baseURL string, client *http.Client) *HTTPGranter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGranter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// GrantItem adds quantity units of itemID to the player's inventory
func (g *HTTPGranter) GrantItem(ctx context.Context, playerID string, itemID, quantity int) error {
	path := fmt.Sprintf("/players/%s/items", url.PathEscape(playerID))
	return g.do(ctx, http.MethodPost, path, itemRequest{ItemID: itemID, Quantity: quantity}, nil)
}

// ReadStat returns the player's current value for kind
func (g *HTTPGranter) ReadStat(ctx context.Context, playerID string, kind entities.StatKind) (int, error) {
	var resp statValue
	if err := g.do(ctx, http.MethodGet, statPath(playerID, kind), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// SetStat overwrites the player's value for kind
func (g *HTTPGranter) SetStat(ctx context.Context, playerID string, kind entities.StatKind, value int) error {
	return g.do(ctx, http.MethodPut, statPath(playerID, kind), statValue{Value: value}, nil)
}

func statPath(playerID string, kind entities.StatKind) string {
	return fmt.Sprintf("/players/%s/stats/%s", url.PathEscape(playerID), url.PathEscape(string(kind)))
}

func (g *HTTPGranter) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
