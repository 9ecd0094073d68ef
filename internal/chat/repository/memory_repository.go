package repository

import (
	"context"
	"sort"
	"sync"

	"language_exchange_service/internal/chat/domain"
	errprocess "language_exchange_service/pkg/err"
)

// MemorySessionRepository in-process SessionRepository (storage: memory, tests)
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession
	pairs    map[string]string // pair key -> session id
}

// NewMemorySessionRepository create empty repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]domain.ChatSession),
		pairs:    make(map[string]string),
	}
}

func (r *MemorySessionRepository) FindByID(_ context.Context, id string) (*domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errprocess.NotFound("chat session not found")
	}
	return &s, nil
}

func (r *MemorySessionRepository) FindByPair(ctx context.Context, pairKey string) (*domain.ChatSession, error) {
	r.mu.RLock()
	id, ok := r.pairs[pairKey]
	r.mu.RUnlock()
	if !ok {
		return nil, errprocess.NotFound("chat session not found")
	}
	return r.FindByID(ctx, id)
}

func (r *MemorySessionRepository) Insert(_ context.Context, session *domain.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pairs[session.PairKey]; ok {
		return errprocess.Conflict("chat session already exists")
	}
	r.sessions[session.ID] = *session
	r.pairs[session.PairKey] = session.ID
	return nil
}

func (r *MemorySessionRepository) mutate(id string, fn func(s *domain.ChatSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errprocess.NotFound("chat session not found")
	}
	fn(&s)
	r.sessions[id] = s
	return nil
}

func (r *MemorySessionRepository) UpdateStatus(_ context.Context, id string, status domain.SessionStatus) error {
	return r.mutate(id, func(s *domain.ChatSession) { s.Status = status })
}

func (r *MemorySessionRepository) IncrementSessionCount(_ context.Context, id string) error {
	return r.mutate(id, func(s *domain.ChatSession) { s.SessionCount++ })
}

func (r *MemorySessionRepository) RecordMessage(_ context.Context, session *domain.ChatSession, last domain.LastMessage, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[session.ID]
	if !ok {
		return errprocess.NotFound("chat session not found")
	}
	if s.LastMessage != nil && s.LastMessage.Timestamp >= last.Timestamp {
		return errprocess.Conflict("chat session has a newer message")
	}

	l := last
	s.LastMessage = &l
	if last.Timestamp > s.LastActivity {
		s.LastActivity = last.Timestamp
	}
	s.Status = domain.StatusActive
	if s.ParticipantA == recipientID {
		s.UnreadA++
	} else {
		s.UnreadB++
	}
	r.sessions[session.ID] = s
	return nil
}

func (r *MemorySessionRepository) ResetUnread(_ context.Context, session *domain.ChatSession, userID string) error {
	return r.mutate(session.ID, func(s *domain.ChatSession) {
		if s.ParticipantA == userID {
			s.UnreadA = 0
		} else {
			s.UnreadB = 0
		}
	})
}

func (r *MemorySessionRepository) ListByParticipant(_ context.Context, userID string, status domain.SessionStatus) ([]domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.ChatSession{}
	for _, s := range r.sessions {
		if !s.HasParticipant(userID) || (status != "" && s.Status != status) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastActivity > out[j].LastActivity })
	return out, nil
}

// MemoryMessageRepository in-process MessageRepository
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]domain.ChatMessage // chat id -> append order
}

// NewMemoryMessageRepository create empty repository
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{messages: make(map[string][]domain.ChatMessage)}
}

func (r *MemoryMessageRepository) Insert(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ChatID] = append(r.messages[msg.ChatID], *msg)
	return nil
}

func (r *MemoryMessageRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for chatID, msgs := range r.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				r.messages[chatID] = append(msgs[:i:i], msgs[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *MemoryMessageRepository) Find(_ context.Context, chatID string, query domain.MessageQuery) ([]domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.ChatMessage{}
	for _, m := range r.messages[chatID] {
		if m.Timestamp <= query.After {
			continue
		}
		out = append(out, m)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryMessageRepository) MarkRead(_ context.Context, chatID, readerID string, readAt int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	msgs := r.messages[chatID]
	for i := range msgs {
		if msgs[i].SenderID == readerID || msgs[i].Read {
			continue
		}
		msgs[i].Read = true
		msgs[i].ReadAt = readAt
		n++
	}
	return n, nil
}
