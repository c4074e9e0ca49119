package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/chat"
	"github.com/financeai/backoffice/shared/models"
)

// ChatStore holds the room list, per-room message history and the active
// room. At most one realtime subscription is live at a time, always for the
// active room.
type ChatStore struct {
	svc *chat.Service

	mu         sync.Mutex
	state      State
	err        error
	rooms      []models.ChatRoom
	messages   map[uuid.UUID][]models.ChatMessage
	activeRoom *uuid.UUID
	unsub      gateway.UnsubscribeFunc
}

// NewChatStore builds an idle chat store.
func NewChatStore(svc *chat.Service) *ChatStore {
	return &ChatStore{svc: svc, messages: make(map[uuid.UUID][]models.ChatMessage)}
}

// State returns the lifecycle phase and, when Failed, the captured error.
func (s *ChatStore) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Rooms returns the last fetched room list.
func (s *ChatStore) Rooms() []models.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatRoom(nil), s.rooms...)
}

// Messages returns the history of a room, newest first.
func (s *ChatStore) Messages(roomID uuid.UUID) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.messages[roomID]...)
}

// ActiveRoom returns the active room id, or nil when none is selected.
func (s *ChatStore) ActiveRoom() *uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeRoom == nil {
		return nil
	}
	id := *s.activeRoom
	return &id
}

// FetchRooms loads the room list. Errors land in Failed state, never on the
// caller.
func (s *ChatStore) FetchRooms(ctx context.Context) {
	s.mu.Lock()
	s.state = Loading
	s.err = nil
	s.mu.Unlock()

	rooms, err := s.svc.GetRooms(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.err = err
		logrus.WithError(err).Error("falha ao carregar salas")
		return
	}
	s.state = Ready
	s.rooms = rooms
}

// SetActiveRoom switches the active room: fetches its history and replaces
// the realtime subscription. A nil id deselects and tears the subscription
// down.
func (s *ChatStore) SetActiveRoom(ctx context.Context, roomID *uuid.UUID) {
	s.mu.Lock()
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.activeRoom = nil
	s.mu.Unlock()

	if roomID == nil {
		return
	}
	id := *roomID

	messages, err := s.svc.GetMessages(ctx, id)

	// Subscribe even when the history fetch failed: inbound realtime
	// messages still belong to the newly active room.
	unsub := s.svc.SubscribeToMessages(id, func(message models.ChatMessage) {
		s.addMessage(id, message)
	})

	s.mu.Lock()
	s.activeRoom = &id
	s.unsub = unsub
	if err != nil {
		s.state = Failed
		s.err = err
		s.messages[id] = nil
		s.mu.Unlock()
		logrus.WithError(err).WithField("room_id", id).Error("falha ao carregar mensagens")
		return
	}
	s.state = Ready
	s.err = nil
	s.messages[id] = messages
	s.mu.Unlock()
}

// SendMessage sends to the active room. With no active room it is a silent
// no-op and nothing reaches the backend. A failed send lands in Failed
// state instead of propagating.
func (s *ChatStore) SendMessage(ctx context.Context, userID uuid.UUID, content string, msgType models.MessageType) {
	s.mu.Lock()
	active := s.activeRoom
	s.mu.Unlock()
	if active == nil {
		return
	}

	if _, err := s.svc.SendMessage(ctx, *active, userID, content, msgType); err != nil {
		logrus.WithError(err).WithField("room_id", *active).Error("falha ao enviar mensagem")
		s.mu.Lock()
		s.state = Failed
		s.err = err
		s.mu.Unlock()
	}
}

// addMessage merges an inbound realtime message: an existing id is updated
// in place, a new one is prepended (list is newest-first).
func (s *ChatStore) addMessage(roomID uuid.UUID, message models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[roomID]
	for i := range list {
		if list[i].ID == message.ID {
			list[i] = message
			return
		}
	}
	s.messages[roomID] = append([]models.ChatMessage{message}, list...)
}

// Dispose tears down the live subscription. Safe to call repeatedly.
func (s *ChatStore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.activeRoom = nil
}
