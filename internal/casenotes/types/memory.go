package types

import (
	"context"
	"fmt"
	"sync"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

// InMemoryRegistry serves sub-types from a map. Test double for Registry.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	subTypes map[models.TypeKey]models.SubType
}

func NewInMemory(subTypes ...models.SubType) *InMemoryRegistry {
	r := &InMemoryRegistry{subTypes: make(map[models.TypeKey]models.SubType, len(subTypes))}
	for _, st := range subTypes {
		r.subTypes[st.Key()] = st
	}
	return r
}

// Add registers further sub-types after construction.
func (r *InMemoryRegistry) Add(subTypes ...models.SubType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range subTypes {
		r.subTypes[st.Key()] = st
	}
}

func (r *InMemoryRegistry) Get(_ context.Context, key models.TypeKey) (*models.SubType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.subTypes[key]
	if !ok {
		return nil, fmt.Errorf("sub-type %s: %w", key, sentinel.ErrNotFound)
	}
	cp := st
	return &cp, nil
}

func (r *InMemoryRegistry) GetAll(_ context.Context, keys []models.TypeKey) (map[models.TypeKey]*models.SubType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[models.TypeKey]*models.SubType, len(keys))
	for _, k := range keys {
		if st, ok := r.subTypes[k]; ok {
			cp := st
			result[k] = &cp
		}
	}
	return result, nil
}
