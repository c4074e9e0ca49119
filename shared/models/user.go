package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// UserRole is the application-level role of a profile.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Profile is the application-level user record, linked 1:1 to an
// identity-backend account. The row is materialized by a backend trigger
// after sign-up, so readers must tolerate it being briefly absent.
type Profile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Tenant   *Tenant   `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Contacts []Contact `json:"contacts,omitempty" gorm:"foreignKey:OwnerID"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// VisibleContacts filters out contacts flagged hidden in metadata and
// returns the rest ordered by display_order.
func (p *Profile) VisibleContacts() []Contact {
	visible := make([]Contact, 0, len(p.Contacts))
	for _, c := range p.Contacts {
		if hidden, ok := c.Metadata["hidden"].(bool); ok && hidden {
			continue
		}
		visible = append(visible, c)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].DisplayOrder < visible[j].DisplayOrder
	})
	return visible
}

// ContactType is the channel a contact identifier belongs to.
type ContactType string

const (
	ContactWhatsApp  ContactType = "whatsapp"
	ContactEmail     ContactType = "email"
	ContactInstagram ContactType = "instagram"
	ContactPhone     ContactType = "phone"
)

// Contact is a reachable identifier owned by exactly one profile.
type Contact struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID   `json:"tenant_id" gorm:"type:uuid;not null;index"`
	OwnerID      uuid.UUID   `json:"owner_id" gorm:"type:uuid;not null;index"`
	Type         ContactType `json:"type" gorm:"type:varchar(20);not null"`
	Identifier   string      `json:"identifier" gorm:"not null"`
	Name         string      `json:"name"`
	Metadata     JSONMap     `json:"metadata" gorm:"type:jsonb"`
	DisplayOrder int         `json:"display_order" gorm:"default:0"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TableName returns the table name for the Contact model
func (Contact) TableName() string {
	return "contacts"
}
