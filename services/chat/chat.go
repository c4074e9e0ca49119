// Package chat implements tenant-scoped chat rooms with realtime message
// delivery over the gateway feed.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/tenant"
)

// messagePageSize bounds a single history fetch.
const messagePageSize = 50

var (
	// ErrMissingUser marks a send attempt without a signed-in user.
	ErrMissingUser = errors.New("usuário não autenticado")

	errCreateRoom  = errors.New("não foi possível criar a sala")
	errFetchRooms  = errors.New("não foi possível buscar as salas")
	errFetchMsgs   = errors.New("não foi possível buscar as mensagens")
	errSendMessage = errors.New("não foi possível enviar a mensagem")
	errParticipant = errors.New("não foi possível atualizar os participantes")
)

// Service is the chat façade. It keeps at most one live message
// subscription; subscribing to a new room tears the previous one down.
type Service struct {
	gw       *gateway.Gateway
	resolver *tenant.Resolver

	mu     sync.Mutex
	subSeq int
	unsub  gateway.UnsubscribeFunc
}

// NewService wires the chat service.
func NewService(gw *gateway.Gateway, resolver *tenant.Resolver) *Service {
	return &Service{gw: gw, resolver: resolver}
}

func messageScope(roomID uuid.UUID) gateway.Scope {
	return gateway.Scope{Table: "chat_messages", Column: "room_id", Value: roomID.String()}
}

// CreateRoom creates a room in the current tenant and enrolls the given
// participants.
func (s *Service) CreateRoom(ctx context.Context, name string, roomType models.RoomType, participants []uuid.UUID) (*models.ChatRoom, error) {
	tenantID, err := uuid.Parse(s.resolver.GetTenantID(ctx))
	if err != nil {
		tenantID = uuid.MustParse(tenant.DefaultTenantID)
	}

	room := models.ChatRoom{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     name,
		Type:     roomType,
	}
	if err := s.gw.DB().WithContext(ctx).Create(&room).Error; err != nil {
		logrus.WithError(err).Error("erro ao criar sala de chat")
		return nil, errCreateRoom
	}

	for _, userID := range participants {
		if err := s.AddParticipant(ctx, room.ID, userID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"room_id": room.ID,
				"user_id": userID,
			}).Warn("não foi possível adicionar participante à sala")
		}
	}
	return &room, nil
}

// GetRooms lists the tenant's rooms, most recently active first.
func (s *Service) GetRooms(ctx context.Context) ([]models.ChatRoom, error) {
	tenantID := s.resolver.GetTenantID(ctx)

	var rooms []models.ChatRoom
	err := s.gw.DB().WithContext(ctx).
		Preload("Participants").
		Where("tenant_id = ?", tenantID).
		Order("updated_at DESC").
		Find(&rooms).Error
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar salas de chat")
		return nil, errFetchRooms
	}
	return rooms, nil
}

// GetMessages fetches a room's recent history, newest first, capped at one
// page.
func (s *Service) GetMessages(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.gw.DB().WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(messagePageSize).
		Find(&messages).Error
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("erro ao buscar mensagens")
		return nil, errFetchMsgs
	}
	return messages, nil
}

// SendMessage persists a message and broadcasts it to the room's scope.
// Messages are immutable after this point.
func (s *Service) SendMessage(ctx context.Context, roomID, userID uuid.UUID, content string, msgType models.MessageType) (*models.ChatMessage, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	message := models.ChatMessage{
		ID:      uuid.New(),
		RoomID:  roomID,
		UserID:  userID,
		Content: content,
		Type:    msgType,
	}
	if err := s.gw.DB().WithContext(ctx).Create(&message).Error; err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("erro ao enviar mensagem")
		return nil, errSendMessage
	}

	// Bump the room so GetRooms surfaces active conversations first.
	if err := s.gw.DB().WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("updated_at", message.CreatedAt).Error; err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("não foi possível atualizar a sala")
	}

	s.gw.NotifyInsert(messageScope(roomID), message)
	return &message, nil
}

// SubscribeToMessages opens the realtime subscription for a room, replacing
// any previous room subscription. The returned disposer is idempotent.
func (s *Service) SubscribeToMessages(roomID uuid.UUID, handler func(models.ChatMessage)) gateway.UnsubscribeFunc {
	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
	}

	unsub := s.gw.Feed().Subscribe(messageScope(roomID), func(event gateway.Event) {
		var message models.ChatMessage
		if err := json.Unmarshal(event.Payload, &message); err != nil {
			logrus.WithError(err).Warn("descartando evento de mensagem malformado")
			return
		}
		handler(message)
	})

	s.subSeq++
	seq := s.subSeq
	s.unsub = unsub
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			s.mu.Lock()
			if s.subSeq == seq {
				s.unsub = nil
			}
			s.mu.Unlock()
		})
	}
}

// GetParticipants lists a room's members with their profiles hydrated.
func (s *Service) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	err := s.gw.DB().WithContext(ctx).
		Preload("Profile").
		Where("room_id = ?", roomID).
		Find(&participants).Error
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("erro ao buscar participantes")
		return nil, errParticipant
	}
	return participants, nil
}

// AddParticipant enrolls a user in a room.
func (s *Service) AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	participant := models.ChatParticipant{RoomID: roomID, UserID: userID}
	if err := s.gw.DB().WithContext(ctx).Create(&participant).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"user_id": userID,
		}).Error("erro ao adicionar participante")
		return errParticipant
	}
	return nil
}

// RemoveParticipant drops a user from a room. Their past messages stay.
func (s *Service) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	err := s.gw.DB().WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.ChatParticipant{}).Error
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"user_id": userID,
		}).Error("erro ao remover participante")
		return errParticipant
	}
	return nil
}
