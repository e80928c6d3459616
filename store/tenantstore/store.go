// Package tenantstore reads the Config Store: the tenant+project config row keyed by
// (company_id, project_id). It is read-only to the core.
package tenantstore

import (
	"context"
	"errors"

	"github.com/convoflow/convoflow/types"
)

// ErrNotFound is returned when no tenant config row exists for the given identity.
var ErrNotFound = errors.New("tenantstore: company/project not found")

// Store reads Tenant Config Records.
type Store interface {
	// Get returns the config row for (companyID, projectID). Returns ErrNotFound if absent.
	Get(ctx context.Context, companyID, projectID string) (*types.TenantConfig, error)
}
