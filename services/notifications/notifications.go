// Package notifications manages the per-user notification center and its
// realtime delivery.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/shared/models"
)

var (
	errCreate = errors.New("não foi possível criar a notificação")
	errUpdate = errors.New("não foi possível atualizar a notificação")
	errDelete = errors.New("não foi possível deletar a notificação")
)

// CreateNotificationInput carries the fields of a new notification.
type CreateNotificationInput struct {
	UserID  uuid.UUID               `json:"user_id"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Type    models.NotificationType `json:"type"`
}

// Service is the notification façade. It keeps at most one live realtime
// subscription for the signed-in user's scope.
type Service struct {
	gw *gateway.Gateway

	mu     sync.Mutex
	subSeq int
	unsub  gateway.UnsubscribeFunc
}

// NewService wires the notification service.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// scope selects a user's notification inserts on the realtime feed.
func scope(userID uuid.UUID) gateway.Scope {
	return gateway.Scope{Table: "notifications", Column: "user_id", Value: userID.String()}
}

// Create inserts an unread notification and publishes it on the feed.
func (s *Service) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	notification := models.Notification{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
		Read:    false,
	}

	if err := s.gw.DB().WithContext(ctx).Create(&notification).Error; err != nil {
		logrus.WithError(err).WithField("user_id", input.UserID).Error("erro ao criar notificação")
		return nil, errCreate
	}

	s.gw.NotifyInsert(scope(notification.UserID), notification)
	return &notification, nil
}

// FindAll lists the user's notifications, newest first. Listing is
// non-critical: failures degrade to an empty result so the UI stays up.
func (s *Service) FindAll(ctx context.Context, userID uuid.UUID) []models.Notification {
	var notifications []models.Notification
	err := s.gw.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		logrus.WithError(err).Error("erro ao buscar notificações")
		return []models.Notification{}
	}
	return notifications
}

// MarkAsRead flips the read flag; the flag only ever moves false to true.
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	err := s.gw.DB().WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
	if err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("erro ao marcar notificação como lida")
		return errUpdate
	}
	return nil
}

// Delete removes a notification.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.gw.DB().WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{}).Error
	if err != nil {
		logrus.WithError(err).WithField("notification_id", id).Error("erro ao deletar notificação")
		return errDelete
	}
	return nil
}

// Subscribe opens the realtime subscription for a user's notifications,
// replacing any previous one: there is never more than one live listener
// for this scope class. The returned disposer is idempotent.
func (s *Service) Subscribe(userID uuid.UUID, handler func(models.Notification)) gateway.UnsubscribeFunc {
	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
	}

	unsub := s.gw.Feed().Subscribe(scope(userID), func(event gateway.Event) {
		var notification models.Notification
		if err := json.Unmarshal(event.Payload, &notification); err != nil {
			logrus.WithError(err).Warn("descartando evento de notificação malformado")
			return
		}
		handler(notification)
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
