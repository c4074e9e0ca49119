package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/financeai/backoffice/shared/models"
)

// CreateFullTenantInput is the payload of the create_full_tenant stored
// procedure: tenant, first license and admin user created atomically
// inside the database. The client treats the procedure as opaque; either
// all three rows exist afterwards or none do.
type CreateFullTenantInput struct {
	Tenant  TenantInput  `json:"tenant"`
	License LicenseInput `json:"license"`
	Admin   AdminInput   `json:"admin"`
}

// TenantInput describes the organization being onboarded.
type TenantInput struct {
	Name                string         `json:"name"`
	Slug                string         `json:"slug"`
	Settings            models.JSONMap `json:"settings,omitempty"`
	CompanyName         string         `json:"company_name,omitempty"`
	CompanyDocument     string         `json:"company_document,omitempty"`
	CompanyDocumentType string         `json:"company_document_type,omitempty"`
	CompanyEmail        string         `json:"company_email,omitempty"`
	CompanyPhone        string         `json:"company_phone,omitempty"`
	CompanyAddress      models.JSONMap `json:"company_address,omitempty"`
}

// LicenseInput describes the tenant's first license.
type LicenseInput struct {
	Modules   []string        `json:"modules"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Features  map[string]bool `json:"features,omitempty"`
	Limits    map[string]int  `json:"limits,omitempty"`
}

// AdminInput describes the owning admin account.
type AdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateFullTenantResult is the procedure's return value.
type CreateFullTenantResult struct {
	Tenant  models.Tenant  `json:"tenant"`
	License models.License `json:"license"`
	Admin   struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"admin"`
}

// CreateFullTenant invokes the transactional stored procedure. It is the
// only multi-row write in the system not issued as individual statements.
func (g *Gateway) CreateFullTenant(ctx context.Context, input CreateFullTenantInput) (*CreateFullTenantResult, error) {
	tenantJSON, err := json.Marshal(input.Tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant input: %w", err)
	}
	licenseJSON, err := json.Marshal(input.License)
	if err != nil {
		return nil, fmt.Errorf("failed to encode license input: %w", err)
	}
	adminJSON, err := json.Marshal(input.Admin)
	if err != nil {
		return nil, fmt.Errorf("failed to encode admin input: %w", err)
	}

	var raw string
	err = g.db.WithContext(ctx).
		Raw("SELECT create_full_tenant(?::jsonb, ?::jsonb, ?::jsonb)", string(tenantJSON), string(licenseJSON), string(adminJSON)).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	var result CreateFullTenantResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode create_full_tenant result: %w", err)
	}
	return &result, nil
}

// UpdateProfileInput carries the mutable profile columns. Nil fields are
// left untouched by the procedure.
type UpdateProfileInput struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// UpdateProfile mutates a profile through the update_profile procedure,
// which rejects cross-tenant writes server-side.
func (g *Gateway) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode profile update: %w", err)
	}
	return g.db.WithContext(ctx).
		Exec("SELECT update_profile(?::uuid, ?::jsonb)", userID.String(), string(payload)).Error
}

// ContactRecord is a contact row as the update_user_contacts procedure
// expects it.
type ContactRecord struct {
	Type         string `json:"type"`
	Identifier   string `json:"identifier"`
	Name         string `json:"name,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// UpdateUserContacts replaces a user's contact list atomically through the
// update_user_contacts procedure.
func (g *Gateway) UpdateUserContacts(ctx context.Context, userID uuid.UUID, contacts []ContactRecord) error {
	payload, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	return g.db.WithContext(ctx).
		Exec("SELECT update_user_contacts(?::uuid, ?::jsonb)", userID.String(), string(payload)).Error
}
