package users

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// SystemUsername is the fixed account synthesized notes are attributed to
// when no real user applies.
const SystemUsername = "PRISONER_MANAGER_API"

const systemDisplayName = "System Generated"

// Lookup is the slice of Client the cache needs.
type Lookup interface {
	Details(ctx context.Context, username string) (*Details, error)
}

// SystemUserCache resolves the system user's details once and serves the
// cached value thereafter. Resolution failure degrades to fixed defaults;
// identity lookup availability is not on any critical path.
type SystemUserCache struct {
	lookup Lookup
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
	author models.Author
}

func NewSystemUserCache(lookup Lookup, logger *slog.Logger) *SystemUserCache {
	return &SystemUserCache{lookup: lookup, logger: logger}
}

// Author returns the system author identity, resolving it on first use.
func (c *SystemUserCache) Author(ctx context.Context) models.Author {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.author
	}

	c.author = models.Author{Username: SystemUsername, Name: systemDisplayName}
	if c.lookup != nil {
		details, err := c.lookup.Details(ctx, SystemUsername)
		switch {
		case err != nil:
			// Best-effort: log and keep the defaults. The zero identity is
			// still correct enough to attribute synthesized notes.
			c.logger.Warn("system user lookup failed, using defaults", "err", err)
		case details != nil:
			c.author = models.Author{Username: details.Username, UserID: details.UserID, Name: details.Name}
		}
	}
	c.loaded = true
	return c.author
}

// Invalidate clears the cached identity so the next Author call re-resolves.
func (c *SystemUserCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}
