package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examease/backend/internal/model/chat"
	"github.com/examease/backend/internal/model/persona"
)

var (
	ErrInvalidRole  = errors.New("invalid message role")
	ErrEmptyContent = errors.New("message content is required")
)

// Service holds the single process-wide transcript. It is seeded with the
// persona prompt and greeting and only ever grows.
type Service struct {
	mu       sync.RWMutex
	messages []chat.Message
	now      func() time.Time
}

// NewService seeds the transcript with the persona's system prompt followed
// by its greeting.
func NewService(p persona.Persona) *Service {
	s := &Service{
		messages: make([]chat.Message, 0, 64),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.messages = append(s.messages,
		s.newMessage(chat.RoleSystem, p.Prompt),
		s.newMessage(chat.RoleAssistant, p.Greeting),
	)
	return s
}

// Append adds a turn to the end of the transcript and returns it as stored.
func (s *Service) Append(_ context.Context, role chat.Role, content string) (chat.Message, error) {
	if !role.Valid() {
		return chat.Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if strings.TrimSpace(content) == "" {
		return chat.Message{}, ErrEmptyContent
	}

	msg := s.newMessage(role, content)

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	return msg, nil
}

// Transcript returns a snapshot of every stored turn in conversation order.
func (s *Service) Transcript(_ context.Context) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports how many turns are stored.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Service) newMessage(role chat.Role, content string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
}
