// Package users resolves usernames to display details, and caches the
// system user identity that synthesized notes are attributed to.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Details describes a resolved user.
type Details struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
}

// Client calls the user-details service. Lookups are best-effort: callers
// fall back to defaults when the result is nil.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Details resolves a username. Returns (nil, nil) when the user is unknown.
func (c *Client) Details(ctx context.Context, username string) (*Details, error) {
	u := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned %d for %s", resp.StatusCode, username)
	}

	var d Details
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &d, nil
}
