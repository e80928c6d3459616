package tenantstore

import (
	"context"
	"testing"

	"github.com/convoflow/convoflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetFound(t *testing.T) {
	s := NewMemoryStore()
	cfg := &types.TenantConfig{CompanyID: "ci-1", ProjectID: "pi-1", ProjectStatus: types.ProjectActive}
	s.Put(cfg)

	got, err := s.Get(context.Background(), "ci-1", "pi-1")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
