// Package tenants manages customer organizations. Onboarding goes through
// the backend's transactional create_full_tenant procedure.
package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
)

var (
	// ErrTenantNotFound maps the backend's empty result.
	ErrTenantNotFound = errors.New("tenant não encontrado")

	errCreate = errors.New("não foi possível criar o tenant")
	errFetch  = errors.New("não foi possível buscar os tenants")
	errUpdate = errors.New("não foi possível atualizar o tenant")
	errDelete = errors.New("não foi possível deletar o tenant")
)

// UpdateTenantInput updates any subset of tenant fields. Status values are
// applied verbatim; transition legality is enforced by the backend.
type UpdateTenantInput struct {
	Name     *string              `json:"name,omitempty"`
	Slug     *string              `json:"slug,omitempty"`
	Settings models.JSONMap       `json:"settings,omitempty"`
	Status   *models.EntityStatus `json:"status,omitempty"`
}

// Service is the tenant CRUD façade.
type Service struct {
	gw *gateway.Gateway
}

// NewService wires the tenant service.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// CreateFull onboards a tenant with its first license and admin user in a
// single atomic remote procedure. After success the tenant has exactly one
// owning admin and at least one license; after failure none of the rows
// exist.
func (s *Service) CreateFull(ctx context.Context, input gateway.CreateFullTenantInput) (*gateway.CreateFullTenantResult, error) {
	result, err := s.gw.CreateFullTenant(ctx, input)
	if err != nil {
		logrus.WithError(err).WithField("slug", input.Tenant.Slug).Error("erro ao criar tenant completo")
		return nil, errCreate
	}
	return result, nil
}

// FindAll lists tenants, newest first.
func (s *Service) FindAll(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.gw.DB().WithContext(ctx).Order("created_at DESC").Find(&tenants).Error
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar tenants")
		return nil, errFetch
	}
	return tenants, nil
}

// FindOne returns a tenant by id.
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := s.gw.DB().WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		logrus.WithError(err).WithField("tenant_id", id).Error("erro ao buscar tenant")
		return nil, errFetch
	}
	return &t, nil
}

// Update applies the given fields and returns the updated row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateTenantInput) (*models.Tenant, error) {
	t, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Slug != nil {
		t.Slug = *input.Slug
	}
	if input.Settings != nil {
		t.Settings = input.Settings
	}
	if input.Status != nil {
		t.Status = *input.Status
	}

	if err := s.gw.DB().WithContext(ctx).Save(t).Error; err != nil {
		logrus.WithError(err).WithField("tenant_id", id).Error("erro ao atualizar tenant")
		return nil, errUpdate
	}
	return t, nil
}

// Delete removes a tenant.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.gw.DB().WithContext(ctx).Where("id = ?", id).Delete(&models.Tenant{})
	if result.Error != nil {
		logrus.WithError(result.Error).WithField("tenant_id", id).Error("erro ao deletar tenant")
		return errDelete
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}
