package tenantstore

import (
	"context"
	"sync"

	"github.com/convoflow/convoflow/types"
)

// MemoryStore is an in-memory Store fake for tests, grounded on the dual real/fake
// implementation shape used throughout the corpus for external stores.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]*types.TenantConfig
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*types.TenantConfig)}
}

// Put seeds or replaces a tenant config row.
func (s *MemoryStore) Put(cfg *types.TenantConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key(cfg.CompanyID, cfg.ProjectID)] = cfg
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, companyID, projectID string) (*types.TenantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[key(companyID, projectID)]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

func key(companyID, projectID string) string {
	return companyID + "#" + projectID
}
