package tenant

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
)

// DefaultTenantID is the demo tenant every install ships with. Resolution
// falls back to it whenever no real tenant can be determined.
const DefaultTenantID = "e97f27c9-8d4e-4e8c-a172-7846995c38b2"

// Store persists the resolved tenant id between sessions.
type Store interface {
	Load() string
	Save(id string)
}

// Lookup fetches a tenant row from the remote backend.
type Lookup interface {
	FindTenant(ctx context.Context, id string) (*models.Tenant, error)
}

// TenantContext receives the resolved tenant id so subsequent gateway
// calls are scoped to it.
type TenantContext interface {
	SetTenantContext(tenantID string)
}

// Resolver produces a single, stable tenant identifier per process. Every
// tenant-aware read and write must obtain the id through it; no component
// may cache its own copy beyond one operation.
type Resolver struct {
	lookup  Lookup
	store   Store
	tenants TenantContext

	mu       sync.Mutex
	cached   string
	inflight chan struct{} // non-nil while a resolution is running
}

// NewResolver wires a resolver. tenants may be nil when no gateway context
// needs updating (tests).
func NewResolver(lookup Lookup, store Store, tenants TenantContext) *Resolver {
	return &Resolver{lookup: lookup, store: store, tenants: tenants}
}

// GetTenantID always resolves to some id: the in-memory cache, the
// persisted id, the remote demo tenant row, or the hard-coded fallback, in
// that order. Overlapping calls share a single in-flight resolution;
// latecomers wait and re-read the cached value instead of issuing their
// own lookup.
func (r *Resolver) GetTenantID(ctx context.Context) string {
	for {
		r.mu.Lock()
		if r.cached != "" {
			id := r.cached
			r.mu.Unlock()
			return id
		}
		if r.inflight != nil {
			wait := r.inflight
			r.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return DefaultTenantID
			}
			continue
		}
		done := make(chan struct{})
		r.inflight = done
		r.mu.Unlock()

		id := r.resolve(ctx)

		r.mu.Lock()
		r.cached = id
		r.inflight = nil
		r.mu.Unlock()
		close(done)
		return id
	}
}

// resolve runs at most once concurrently, guarded by GetTenantID.
func (r *Resolver) resolve(ctx context.Context) string {
	if stored := r.store.Load(); stored != "" {
		return stored
	}

	t, err := r.lookup.FindTenant(ctx, DefaultTenantID)
	if err != nil {
		logrus.WithError(err).Error("tenant fallback lookup failed")
		return r.handleNoTenant()
	}
	if t == nil {
		logrus.Error("nenhum tenant encontrado")
		return r.handleNoTenant()
	}

	id := t.ID.String()
	r.store.Save(id)
	return id
}

// handleNoTenant pins the fixed fallback id and persists it.
func (r *Resolver) handleNoTenant() string {
	r.store.Save(DefaultTenantID)
	return DefaultTenantID
}

// SetCurrentTenant unconditionally overwrites the cached and persisted
// tenant id and updates the gateway's tenant context. The id is trusted:
// it comes straight from a profile fetched during sign-in.
func (r *Resolver) SetCurrentTenant(ctx context.Context, id string) {
	r.mu.Lock()
	r.cached = id
	r.mu.Unlock()

	r.store.Save(id)
	if r.tenants != nil {
		r.tenants.SetTenantContext(id)
	}
}

// Reset clears the cached id. Called on sign-out so the next resolution
// starts from persisted state.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cached = ""
	r.mu.Unlock()
}

// GatewayLookup resolves tenants through the remote data gateway.
type GatewayLookup struct {
	Gateway *gateway.Gateway
}

// FindTenant returns the tenant row or nil when it does not exist.
func (l GatewayLookup) FindTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	err := l.Gateway.DB().WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
