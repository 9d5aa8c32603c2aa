package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/config"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
)

// Client calls the alerts service. 404 responses mean "no data" and return
// empty results; transient failures (transport errors, 5xx) retry with
// backoff; other 4xx responses fail immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	metrics    *metrics.Metrics
}

func NewClient(cfg config.AlertsConfig, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		metrics:    m,
	}
}

const dateFormat = "2006-01-02"

// CaseNoteAlerts fetches the alerts of interest for a person over an
// inclusive date range.
func (c *Client) CaseNoteAlerts(ctx context.Context, personIdentifier string, from, to time.Time) ([]Alert, error) {
	u := fmt.Sprintf("%s/alerts/case-notes/%s?from=%s&to=%s",
		c.baseURL,
		url.PathEscape(personIdentifier),
		from.Format(dateFormat),
		to.Format(dateFormat),
	)

	var result []Alert
	found, err := c.getJSON(ctx, u, &result)
	if err != nil {
		return nil, fmt.Errorf("fetch case note alerts for %s: %w", personIdentifier, err)
	}
	if !found {
		return nil, nil
	}
	return result, nil
}

// Alert fetches a single alert by id. Returns (nil, nil) when the alerts
// service has no record of it.
func (c *Client) Alert(ctx context.Context, alertUUID uuid.UUID) (*Alert, error) {
	u := fmt.Sprintf("%s/alerts/%s", c.baseURL, alertUUID)

	var result Alert
	found, err := c.getJSON(ctx, u, &result)
	if err != nil {
		return nil, fmt.Errorf("fetch alert %s: %w", alertUUID, err)
	}
	if !found {
		return nil, nil
	}
	return &result, nil
}

// getJSON performs a GET with retry. The bool result is false for 404.
func (c *Client) getJSON(ctx context.Context, url string, out any) (bool, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.maxRetries), ctx)

	found := true
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failure: retry.
			if c.metrics != nil {
				c.metrics.AlertClientRetry.Inc()
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			found = false
			return nil
		case resp.StatusCode >= 500:
			if c.metrics != nil {
				c.metrics.AlertClientRetry.Inc()
			}
			return fmt.Errorf("alerts service returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("alerts service returned %d: %s", resp.StatusCode, body))
		}

		found = true
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}, policy)

	return found, err
}

func newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	return bo
}
