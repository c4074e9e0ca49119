// Package users manages application profiles and their contacts. Account
// creation is delegated to the identity provider; the profile row itself is
// materialized by a backend trigger.
package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/auth"
	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

var (
	// ErrUserNotFound marks a lookup that matched no profile.
	ErrUserNotFound = errors.New("usuário não encontrado")

	errCreate = errors.New("não foi possível criar o usuário")
	errFetch  = errors.New("não foi possível buscar os usuários")
	errUpdate = errors.New("não foi possível atualizar o usuário")
)

// ContactInput is a contact attached during user creation or update.
type ContactInput struct {
	Type         models.ContactType `json:"type"`
	Identifier   string             `json:"identifier"`
	Name         string             `json:"name"`
	DisplayOrder int                `json:"display_order"`
}

// CreateUserInput carries everything needed to provision a user: the
// identity account, the profile seed and any initial contacts.
type CreateUserInput struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
	Contacts []ContactInput  `json:"contacts"`
}

// UpdateUserInput carries the mutable profile fields. Nil means unchanged.
type UpdateUserInput struct {
	Name      *string          `json:"name,omitempty"`
	AvatarURL *string          `json:"avatar_url,omitempty"`
	Role      *models.UserRole `json:"role,omitempty"`
	Contacts  []ContactInput   `json:"contacts,omitempty"`
}

// Service is the user management façade.
type Service struct {
	gw            *gateway.Gateway
	provider      auth.Provider
	resolver      *tenant.Resolver
	notifications *notifications.Service
}

// NewService wires the user service.
func NewService(gw *gateway.Gateway, provider auth.Provider, resolver *tenant.Resolver, notifier *notifications.Service) *Service {
	return &Service{gw: gw, provider: provider, resolver: resolver, notifications: notifier}
}

// FindAll lists the tenant's profiles with their visible contacts hydrated.
func (s *Service) FindAll(ctx context.Context) ([]models.Profile, error) {
	tenantID := s.resolver.GetTenantID(ctx)

	var profiles []models.Profile
	err := s.gw.DB().WithContext(ctx).
		Preload("Contacts").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&profiles).Error
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar usuários")
		return nil, errFetch
	}

	for i := range profiles {
		profiles[i].Contacts = profiles[i].VisibleContacts()
	}
	return profiles, nil
}

// FindOne fetches a single profile with its visible contacts.
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := s.gw.DB().WithContext(ctx).
		Preload("Contacts").
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("erro ao buscar usuário")
		return nil, ErrUserNotFound
	}
	profile.Contacts = profile.VisibleContacts()
	return &profile, nil
}

// Create provisions the identity account and seeds contacts plus a welcome
// notification. Contact and notification failures are logged but never fail
// the creation: the account already exists remotely at that point.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (*auth.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	resp, err := s.provider.SignUp(ctx, input.Email, input.Password, map[string]interface{}{
		"name": input.Name,
		"role": string(role),
	})
	if err != nil {
		logrus.WithError(err).WithField("email", input.Email).Error("erro ao criar usuário")
		return nil, errCreate
	}
	user := resp.User

	if len(input.Contacts) > 0 {
		s.insertContacts(ctx, user.ID, user.TenantID, input.Contacts)
	}

	if s.notifications != nil {
		_, err := s.notifications.Create(ctx, notifications.CreateNotificationInput{
			UserID:  user.ID,
			Title:   "Bem-vindo ao Finance AI",
			Message: "Sua conta foi criada com sucesso. Explore todas as funcionalidades disponíveis.",
			Type:    models.NotificationSuccess,
		})
		if err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("não foi possível criar a notificação de boas-vindas")
		}
	}

	return user, nil
}

func (s *Service) insertContacts(ctx context.Context, ownerID, tenantID uuid.UUID, inputs []ContactInput) {
	contacts := make([]models.Contact, 0, len(inputs))
	for _, c := range inputs {
		contacts = append(contacts, models.Contact{
			ID:           uuid.New(),
			TenantID:     tenantID,
			OwnerID:      ownerID,
			Type:         c.Type,
			Identifier:   c.Identifier,
			Name:         c.Name,
			DisplayOrder: c.DisplayOrder,
		})
	}
	if err := s.gw.DB().WithContext(ctx).Create(&contacts).Error; err != nil {
		logrus.WithError(err).WithField("user_id", ownerID).Warn("não foi possível salvar os contatos do usuário")
	}
}

// Update mutates the profile through the update_profile procedure so the
// database enforces tenant boundaries, then replaces contacts when given.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.Profile, error) {
	err := s.gw.UpdateProfile(ctx, id, gateway.UpdateProfileInput{
		Name:      input.Name,
		AvatarURL: input.AvatarURL,
		Role:      (*string)(input.Role),
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("erro ao atualizar usuário")
		return nil, errUpdate
	}

	if input.Contacts != nil {
		contacts := make([]gateway.ContactRecord, 0, len(input.Contacts))
		for _, c := range input.Contacts {
			contacts = append(contacts, gateway.ContactRecord{
				Type:         string(c.Type),
				Identifier:   c.Identifier,
				Name:         c.Name,
				DisplayOrder: c.DisplayOrder,
			})
		}
		if err := s.gw.UpdateUserContacts(ctx, id, contacts); err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("não foi possível atualizar os contatos do usuário")
		}
	}

	return s.FindOne(ctx, id)
}
