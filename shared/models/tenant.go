package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityStatus is shared by tenants and licenses.
type EntityStatus string

const (
	StatusActive    EntityStatus = "active"
	StatusInactive  EntityStatus = "inactive"
	StatusSuspended EntityStatus = "suspended"
)

// Tenant represents an isolated customer organization. Every tenant-scoped
// row in the system carries its id.
type Tenant struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primary_key"`
	Name      string       `json:"name" gorm:"not null"`
	Slug      string       `json:"slug" gorm:"uniqueIndex"`
	OwnerID   uuid.UUID    `json:"owner_id" gorm:"type:uuid;index"`
	Settings  JSONMap      `json:"settings" gorm:"type:jsonb"`
	Status    EntityStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Relationships
	Licenses []License `json:"licenses,omitempty" gorm:"foreignKey:TenantID"`
	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// IsActive checks if the tenant can be operated on
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}
