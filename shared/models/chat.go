package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomType distinguishes one-on-one conversations from group rooms.
type RoomType string

const (
	RoomDirect RoomType = "direct"
	RoomGroup  RoomType = "group"
)

// MessageType is the payload kind of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// ChatRoom groups participants and messages inside a tenant.
type ChatRoom struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Type      RoomType  `json:"type" gorm:"type:varchar(10);not null;default:'group'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Participants []ChatParticipant `json:"participants,omitempty" gorm:"foreignKey:RoomID"`
	Messages     []ChatMessage     `json:"messages,omitempty" gorm:"foreignKey:RoomID"`
}

// TableName returns the table name for the ChatRoom model
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// ChatParticipant is the membership of a profile in a room.
type ChatParticipant struct {
	RoomID   uuid.UUID `json:"room_id" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `json:"joined_at"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for the ChatParticipant model
func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// ChatMessage is immutable once created; there is no update path.
// Display order is newest-first by created_at.
type ChatMessage struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	RoomID    uuid.UUID   `json:"room_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Content   string      `json:"content" gorm:"not null"`
	Type      MessageType `json:"type" gorm:"type:varchar(10);not null;default:'text'"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
