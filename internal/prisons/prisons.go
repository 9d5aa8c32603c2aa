// Package prisons resolves a person's current prison and answers whether a
// prison is switched on for alert-sourced case notes.
package prisons

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/redis"
)

// Client looks a person identifier up in the prisoner search service.
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

// PrisonCode returns the person's current prison code, or "" when the person
// is not found (released, unknown).
func (c *Client) PrisonCode(ctx context.Context, personIdentifier string) (string, error) {
	u := fmt.Sprintf("%s/prisoner/%s", c.baseURL, url.PathEscape(personIdentifier))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch prisoner %s: %w", personIdentifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prisoner search returned %d for %s", resp.StatusCode, personIdentifier)
	}

	var body struct {
		PrisonID string `json:"prisonId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode prisoner response: %w", err)
	}
	return body.PrisonID, nil
}

// alertPrisonsKey is the redis set of prison codes configured to receive
// alert-sourced case notes. Operations manage the set out of band.
const alertPrisonsKey = "case-notes:alert-prisons"

// AlertGate answers the prison-gating question for alert note creation.
type AlertGate struct {
	rdb *redis.Client
}

func NewAlertGate(rdb *redis.Client) *AlertGate {
	return &AlertGate{rdb: rdb}
}

// Enabled reports whether the prison receives alert case notes. With no
// redis configured the gate is open for every prison.
func (g *AlertGate) Enabled(ctx context.Context, prisonCode string) (bool, error) {
	if g.rdb == nil {
		return true, nil
	}
	ok, err := g.rdb.SIsMember(ctx, alertPrisonsKey, prisonCode).Result()
	if err != nil {
		return false, fmt.Errorf("check alert prison %s: %w", prisonCode, err)
	}
	return ok, nil
}

// Enable adds a prison to the gating set. Exposed for admin tooling and
// integration tests.
func (g *AlertGate) Enable(ctx context.Context, prisonCode string) error {
	if g.rdb == nil {
		return nil
	}
	return g.rdb.SAdd(ctx, alertPrisonsKey, prisonCode).Err()
}
