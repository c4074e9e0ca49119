package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType is the kind of fiscal document attached to a license.
type DocumentType string

const (
	DocumentCPF  DocumentType = "cpf"
	DocumentCNPJ DocumentType = "cnpj"
)

// License grants product modules to a tenant, optionally expiring.
// A license belongs to exactly one tenant.
type License struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key"`
	Name         string       `json:"name" gorm:"not null"`
	Domain       string       `json:"domain" gorm:"not null;index"`
	CompanyName  string       `json:"company_name"`
	TenantID     uuid.UUID    `json:"tenant_id" gorm:"type:uuid;not null;index"`
	OwnerID      uuid.UUID    `json:"owner_id" gorm:"type:uuid;not null;index"`
	Document     string       `json:"document,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty" gorm:"type:varchar(10)"`
	Modules      StringList   `json:"modules" gorm:"type:jsonb"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	PrimaryColor string       `json:"primary_color"`
	Status       EntityStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relationships
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName returns the table name for the License model
func (License) TableName() string {
	return "licenses"
}

// IsExpired reports whether the license passed its expiry date.
func (l *License) IsExpired() bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(time.Now())
}
