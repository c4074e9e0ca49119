package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/financeai/backoffice/services/licenses"
	"github.com/financeai/backoffice/shared/models"
)

// LicenseStore holds the owner's license list plus the one selected as
// active. Listing degrades to empty at the service layer, so Fetch always
// lands in Ready.
type LicenseStore struct {
	svc *licenses.Service

	mu     sync.Mutex
	state  State
	err    error
	items  []models.License
	active *models.License
}

// NewLicenseStore builds an idle license store.
func NewLicenseStore(svc *licenses.Service) *LicenseStore {
	return &LicenseStore{svc: svc}
}

// State returns the lifecycle phase and, when Failed, the captured error.
func (s *LicenseStore) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Items returns the current license list.
func (s *LicenseStore) Items() []models.License {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.License(nil), s.items...)
}

// Active returns the selected license, or nil.
func (s *LicenseStore) Active() *models.License {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	license := *s.active
	return &license
}

// SetActive selects a license; nil deselects.
func (s *LicenseStore) SetActive(license *models.License) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if license == nil {
		s.active = nil
		return
	}
	copied := *license
	s.active = &copied
}

// Fetch loads the owner's licenses.
func (s *LicenseStore) Fetch(ctx context.Context, ownerID uuid.UUID) {
	s.mu.Lock()
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	items := s.svc.FindAll(ctx, ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Ready
	s.items = items
}

// Add merges a license into the list: an existing id is replaced in place,
// a new one is prepended.
func (s *LicenseStore) Add(license models.License) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == license.ID {
			s.items[i] = license
			return
		}
	}
	s.items = append([]models.License{license}, s.items...)
}

// Update replaces the matching list entry and, when it is the active
// license, the active copy too.
func (s *LicenseStore) Update(license models.License) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == license.ID {
			s.items[i] = license
			break
		}
	}
	if s.active != nil && s.active.ID == license.ID {
		copied := license
		s.active = &copied
	}
}
