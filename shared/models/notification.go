package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType is the severity/category of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// Notification is owned by a single user. Its only mutation after creation
// is the one-way read flag (false to true); deletion is explicit.
type Notification struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type" gorm:"type:varchar(10);not null;default:'info'"`
	Read      bool             `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at"`
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
