// Package licenses manages the grants of product modules to tenants.
package licenses

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

var (
	// ErrInvalidDomain is raised before any remote call.
	ErrInvalidDomain = errors.New("domínio inválido")
	// ErrLicenseNotFound maps the backend's empty result.
	ErrLicenseNotFound = errors.New("licença não encontrada")

	errCreate = errors.New("não foi possível criar a licença")
	errFetch  = errors.New("não foi possível buscar a licença")
	errUpdate = errors.New("não foi possível atualizar a licença")
	errDelete = errors.New("não foi possível deletar a licença")
)

// domainPattern accepts DNS-style hosts (at least two labels).
var domainPattern = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

// CreateLicenseInput carries the fields of a new license.
type CreateLicenseInput struct {
	Name         string              `json:"name"`
	Domain       string              `json:"domain"`
	CompanyName  string              `json:"company_name"`
	Document     string              `json:"document,omitempty"`
	DocumentType models.DocumentType `json:"document_type,omitempty"`
	Modules      []string            `json:"modules"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	PrimaryColor string              `json:"primary_color"`
}

// UpdateLicenseInput updates any subset of license fields. Status is set
// verbatim; transition legality is the backend's concern.
type UpdateLicenseInput struct {
	Name         *string              `json:"name,omitempty"`
	Domain       *string              `json:"domain,omitempty"`
	CompanyName  *string              `json:"company_name,omitempty"`
	Document     *string              `json:"document,omitempty"`
	DocumentType *models.DocumentType `json:"document_type,omitempty"`
	Modules      []string             `json:"modules,omitempty"`
	ExpiresAt    *time.Time           `json:"expires_at,omitempty"`
	PrimaryColor *string              `json:"primary_color,omitempty"`
	Status       *models.EntityStatus `json:"status,omitempty"`
}

// Service is the license CRUD façade.
type Service struct {
	gw       *gateway.Gateway
	resolver *tenant.Resolver
}

// NewService wires the license service.
func NewService(gw *gateway.Gateway, resolver *tenant.Resolver) *Service {
	return &Service{gw: gw, resolver: resolver}
}

// Create inserts a license scoped to the resolved tenant and the given
// owner. New licenses always start active.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateLicenseInput) (*models.License, error) {
	if !domainPattern.MatchString(input.Domain) {
		return nil, ErrInvalidDomain
	}

	tenantID, err := uuid.Parse(s.resolver.GetTenantID(ctx))
	if err != nil {
		logrus.WithError(err).Error("tenant id resolvido inválido")
		return nil, errCreate
	}

	license := models.License{
		ID:           uuid.New(),
		Name:         input.Name,
		Domain:       input.Domain,
		CompanyName:  input.CompanyName,
		TenantID:     tenantID,
		OwnerID:      ownerID,
		Document:     input.Document,
		DocumentType: input.DocumentType,
		Modules:      models.StringList(input.Modules),
		ExpiresAt:    input.ExpiresAt,
		PrimaryColor: input.PrimaryColor,
		Status:       models.StatusActive,
	}

	if err := s.gw.DB().WithContext(ctx).Create(&license).Error; err != nil {
		logrus.WithError(err).WithField("domain", input.Domain).Error("erro ao criar licença")
		return nil, errCreate
	}
	return &license, nil
}

// FindAll lists the owner's licenses in the current tenant, newest first.
// Listing is non-critical: failures degrade to an empty result.
func (s *Service) FindAll(ctx context.Context, ownerID uuid.UUID) []models.License {
	tenantID := s.resolver.GetTenantID(ctx)

	var licenses []models.License
	err := s.gw.DB().WithContext(ctx).
		Where("owner_id = ? AND tenant_id = ?", ownerID, tenantID).
		Order("created_at DESC").
		Find(&licenses).Error
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar licenças")
		return []models.License{}
	}
	return licenses
}

// FindOne returns a license by id.
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	err := s.gw.DB().WithContext(ctx).Where("id = ?", id).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLicenseNotFound
		}
		logrus.WithError(err).WithField("license_id", id).Error("erro ao buscar licença")
		return nil, errFetch
	}
	return &license, nil
}

// Update applies the given fields and returns the updated row.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateLicenseInput) (*models.License, error) {
	license, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Domain != nil {
		if !domainPattern.MatchString(*input.Domain) {
			return nil, ErrInvalidDomain
		}
		license.Domain = *input.Domain
	}
	if input.Name != nil {
		license.Name = *input.Name
	}
	if input.CompanyName != nil {
		license.CompanyName = *input.CompanyName
	}
	if input.Document != nil {
		license.Document = *input.Document
	}
	if input.DocumentType != nil {
		license.DocumentType = *input.DocumentType
	}
	if input.Modules != nil {
		license.Modules = models.StringList(input.Modules)
	}
	if input.ExpiresAt != nil {
		license.ExpiresAt = input.ExpiresAt
	}
	if input.PrimaryColor != nil {
		license.PrimaryColor = *input.PrimaryColor
	}
	if input.Status != nil {
		license.Status = *input.Status
	}

	if err := s.gw.DB().WithContext(ctx).Save(license).Error; err != nil {
		logrus.WithError(err).WithField("license_id", id).Error("erro ao atualizar licença")
		return nil, errUpdate
	}
	return license, nil
}

// Delete removes a license.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.gw.DB().WithContext(ctx).Where("id = ?", id).Delete(&models.License{})
	if result.Error != nil {
		logrus.WithError(result.Error).WithField("license_id", id).Error("erro ao deletar licença")
		return errDelete
	}
	if result.RowsAffected == 0 {
		return ErrLicenseNotFound
	}
	return nil
}
