package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/auth"
	"github.com/financeai/backoffice/services/users"
	"github.com/financeai/backoffice/shared/models"
)

// UserStore holds the tenant's user list. Mutations go through the user
// service; failures land in Failed state instead of propagating.
type UserStore struct {
	svc *users.Service

	mu    sync.Mutex
	state State
	err   error
	items []models.Profile
}

// NewUserStore builds an idle user store.
func NewUserStore(svc *users.Service) *UserStore {
	return &UserStore{svc: svc}
}

// State returns the lifecycle phase and, when Failed, the captured error.
func (s *UserStore) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Items returns the current user list.
func (s *UserStore) Items() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Profile(nil), s.items...)
}

// Fetch loads the tenant's users.
func (s *UserStore) Fetch(ctx context.Context) {
	s.mu.Lock()
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	items, err := s.svc.FindAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.err = err
		logrus.WithError(err).Error("falha ao carregar usuários")
		return
	}
	s.state = Ready
	s.items = items
}

// Create provisions a user and prepends it to the list. Returns nil on
// failure, with the error captured in store state.
func (s *UserStore) Create(ctx context.Context, input users.CreateUserInput) *auth.User {
	created, err := s.svc.Create(ctx, input)
	if err != nil {
		logrus.WithError(err).Error("falha ao criar usuário")
		s.mu.Lock()
		s.state = Failed
		s.err = err
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.items = append([]models.Profile{{
		ID:        created.ID,
		Email:     created.Email,
		Name:      created.Name,
		AvatarURL: created.AvatarURL,
		Role:      created.Role,
		TenantID:  created.TenantID,
	}}, s.items...)
	s.mu.Unlock()
	return created
}

// Update mutates a user and replaces the matching list entry in place.
// Returns nil on failure, with the error captured in store state.
func (s *UserStore) Update(ctx context.Context, id uuid.UUID, input users.UpdateUserInput) *models.Profile {
	updated, err := s.svc.Update(ctx, id, input)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("falha ao atualizar usuário")
		s.mu.Lock()
		s.state = Failed
		s.err = err
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = *updated
			break
		}
	}
	s.mu.Unlock()
	return updated
}
