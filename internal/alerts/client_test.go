package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/config"
)

func newTestClient(baseURL string, maxRetries uint64) *Client {
	return NewClient(config.AlertsConfig{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
	}, nil)
}

func TestCaseNoteAlerts(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("decodes the alert list and sends date-only bounds", func(t *testing.T) {
		alert := Alert{
			AlertUUID:  uuid.New(),
			Type:       CodedDescription{Code: "X", Description: "Security"},
			SubType:    CodedDescription{Code: "XA", Description: "Arsonist"},
			CreatedAt:  from.Add(12 * time.Hour),
			PrisonCode: "MDI",
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/alerts/case-notes/A1234BC", r.URL.Path)
			assert.Equal(t, "2025-01-01", r.URL.Query().Get("from"))
			assert.Equal(t, "2025-02-01", r.URL.Query().Get("to"))
			json.NewEncoder(w).Encode([]Alert{alert})
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL, 0).CaseNoteAlerts(ctx, "A1234BC", from, to)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alert.AlertUUID, got[0].AlertUUID)
		assert.Equal(t, "MDI", got[0].PrisonCode)
	})

	t.Run("404 means no alerts, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL, 0).CaseNoteAlerts(ctx, "A1234BC", from, to)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("5xx retries until success", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode([]Alert{})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 5).CaseNoteAlerts(ctx, "A1234BC", from, to)
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries exhausted surfaces the error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 1).CaseNoteAlerts(ctx, "A1234BC", from, to)
		require.Error(t, err)
	})

	t.Run("other 4xx fails immediately without retry", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 5).CaseNoteAlerts(ctx, "A1234BC", from, to)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestAlert(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a single alert", func(t *testing.T) {
		id := uuid.New()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/alerts/"+id.String(), r.URL.Path)
			json.NewEncoder(w).Encode(Alert{AlertUUID: id, PrisonCode: "LEI"})
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL, 0).Alert(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, id, got.AlertUUID)
	})

	t.Run("unknown alert returns nil without error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		got, err := newTestClient(srv.URL, 0).Alert(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, Alert{}.IsActive(now))
	assert.True(t, Alert{ActiveTo: &future}.IsActive(now))
	assert.False(t, Alert{ActiveTo: &past}.IsActive(now))
	assert.False(t, Alert{ActiveTo: &now}.IsActive(now))
}
