package users

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubLookup counts calls and serves a fixed result.
type stubLookup struct {
	calls   atomic.Int32
	details *Details
	err     error
}

func (s *stubLookup) Details(context.Context, string) (*Details, error) {
	s.calls.Add(1)
	return s.details, s.err
}

func TestSystemUserCache(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("resolves once and caches the result", func(t *testing.T) {
		lookup := &stubLookup{details: &Details{Username: SystemUsername, UserID: "42", Name: "Prisoner Manager"}}
		cache := NewSystemUserCache(lookup, logger)

		author := cache.Author(ctx)
		assert.Equal(t, "Prisoner Manager", author.Name)
		assert.Equal(t, "42", author.UserID)

		cache.Author(ctx)
		cache.Author(ctx)
		assert.Equal(t, int32(1), lookup.calls.Load())
	})

	t.Run("lookup failure degrades to defaults", func(t *testing.T) {
		lookup := &stubLookup{err: errors.New("service down")}
		cache := NewSystemUserCache(lookup, logger)

		author := cache.Author(ctx)
		assert.Equal(t, SystemUsername, author.Username)
		assert.Equal(t, "System Generated", author.Name)

		// The failure is cached too; availability blips must not turn the
		// cache into a hot loop against the user service.
		cache.Author(ctx)
		assert.Equal(t, int32(1), lookup.calls.Load())
	})

	t.Run("nil result degrades to defaults", func(t *testing.T) {
		cache := NewSystemUserCache(&stubLookup{}, logger)
		author := cache.Author(ctx)
		assert.Equal(t, SystemUsername, author.Username)
	})

	t.Run("nil lookup serves defaults", func(t *testing.T) {
		cache := NewSystemUserCache(nil, logger)
		author := cache.Author(ctx)
		assert.Equal(t, SystemUsername, author.Username)
		assert.Equal(t, "System Generated", author.Name)
	})

	t.Run("Invalidate forces re-resolution", func(t *testing.T) {
		lookup := &stubLookup{details: &Details{Username: SystemUsername, Name: "Before"}}
		cache := NewSystemUserCache(lookup, logger)

		assert.Equal(t, "Before", cache.Author(ctx).Name)

		lookup.details = &Details{Username: SystemUsername, Name: "After"}
		cache.Invalidate()
		assert.Equal(t, "After", cache.Author(ctx).Name)
		assert.Equal(t, int32(2), lookup.calls.Load())
	})
}
