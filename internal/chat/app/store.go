package app

import (
	"context"
	"strings"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/internal/chat/repository"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/keylock"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatStore source of truth for chat sessions, history and read state
type ChatStore interface {
	// GetOrCreateSession one session per unordered pair, archived sessions are reactivated
	GetOrCreateSession(ctx context.Context, a, b string) (*domain.ChatSession, error)
	// RecordMatch GetOrCreateSession + bump session count
	RecordMatch(ctx context.Context, a, b string) (*domain.ChatSession, error)
	Append(ctx context.Context, chatID, senderID, content string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, chatID string, query domain.MessageQuery) ([]domain.ChatMessage, error)
	// MarkRead mark the partner's messages read and reset readerID's unread counter
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	// Authorize load the session and check userID participates
	Authorize(ctx context.Context, chatID, userID string) (*domain.ChatSession, error)
	SetStatus(ctx context.Context, chatID, userID string, status domain.SessionStatus) (*domain.ChatSession, error)
	// SharesChat a and b have a session that is not blocked
	SharesChat(ctx context.Context, a, b string) (bool, error)
}

// appendAttempts bound on retries after losing the timestamp race to another node
const appendAttempts = 3

type chatStore struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	locks    *keylock.KeyedMutex
	now      func() time.Time
}

// NewChatStore create chat store
func NewChatStore(sessions repository.SessionRepository, messages repository.MessageRepository) ChatStore {
	return &chatStore{
		sessions: sessions,
		messages: messages,
		locks:    keylock.New(),
		now:      time.Now,
	}
}

func (s *chatStore) GetOrCreateSession(ctx context.Context, a, b string) (*domain.ChatSession, error) {
	defer metrics.ObserveStore("get_or_create", time.Now())

	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return nil, errprocess.Validation("both participants are required")
	}
	if a == b {
		return nil, errprocess.Validation("cannot chat with yourself")
	}

	pairKey := domain.PairKey(a, b)
	unlock := s.locks.Lock("pair:" + pairKey)
	defer unlock()

	session, err := s.sessions.FindByPair(ctx, pairKey)
	switch {
	case err == nil:
		return s.reactivate(ctx, session)
	case !errprocess.Is(err, errprocess.ErrNotFound):
		return nil, err
	}

	now := s.now().UnixMilli()
	session = &domain.ChatSession{
		ID:           uuid.New().String(),
		PairKey:      pairKey,
		ParticipantA: a,
		ParticipantB: b,
		Status:       domain.StatusActive,
		LastActivity: now,
		CreatedAt:    now,
	}
	err = s.sessions.Insert(ctx, session)
	if errprocess.Is(err, errprocess.ErrConflict) {
		// 另一個節點先建立了, 回傳贏家
		logger.Log.Debug("chat session insert lost race", zap.String("pair", pairKey))
		winner, findErr := s.sessions.FindByPair(ctx, pairKey)
		if findErr != nil {
			return nil, findErr
		}
		return s.reactivate(ctx, winner)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *chatStore) reactivate(ctx context.Context, session *domain.ChatSession) (*domain.ChatSession, error) {
	if session.Status != domain.StatusArchived {
		return session, nil
	}
	if err := s.sessions.UpdateStatus(ctx, session.ID, domain.StatusActive); err != nil {
		return nil, err
	}
	session.Status = domain.StatusActive
	return session, nil
}

func (s *chatStore) RecordMatch(ctx context.Context, a, b string) (*domain.ChatSession, error) {
	session, err := s.GetOrCreateSession(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.IncrementSessionCount(ctx, session.ID); err != nil {
		return nil, err
	}
	session.SessionCount++
	return session, nil
}

func (s *chatStore) Append(ctx context.Context, chatID, senderID, content string) (*domain.ChatMessage, error) {
	defer metrics.ObserveStore("append", time.Now())

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errprocess.Validation("message content is empty")
	}

	unlock := s.locks.Lock(chatID)
	defer unlock()

	session, err := s.Authorize(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.StatusBlocked {
		return nil, errprocess.Authorization("chat is blocked")
	}

	for attempt := 1; ; attempt++ {
		msg, err := s.appendOnce(ctx, session, senderID, content)
		if err == nil {
			metrics.MessagesAppended.Inc()
			return msg, nil
		}
		if !errprocess.Is(err, errprocess.ErrConflict) || attempt == appendAttempts {
			return nil, err
		}

		// 其他節點先寫入較新的訊息, 重新讀取 session 再排時間
		logger.Log.Debug("append lost timestamp race", zap.String("chatID", chatID), zap.Int("attempt", attempt))
		if session, err = s.Authorize(ctx, chatID, senderID); err != nil {
			return nil, err
		}
		if session.Status == domain.StatusBlocked {
			return nil, errprocess.Authorization("chat is blocked")
		}
	}
}

// appendOnce insert the message then record it on the session, the insert is
// rolled back when the session update fails so unread counters stay exact
func (s *chatStore) appendOnce(ctx context.Context, session *domain.ChatSession, senderID, content string) (*domain.ChatMessage, error) {
	// server time, strictly increasing within the session
	ts := s.now().UnixMilli()
	if session.LastMessage != nil && ts <= session.LastMessage.Timestamp {
		ts = session.LastMessage.Timestamp + 1
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		ChatID:    session.ID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: ts,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}

	last := domain.LastMessage{Content: content, SenderID: senderID, Timestamp: ts}
	err := s.sessions.RecordMessage(ctx, session, last, session.Partner(senderID))
	if err == nil {
		return msg, nil
	}

	if delErr := s.messages.Delete(ctx, msg.ID); delErr != nil {
		logger.Log.Error("rollback chat message failed",
			zap.String("chatID", session.ID),
			zap.String("messageID", msg.ID),
			zap.Error(delErr),
		)
	}
	if !errprocess.Is(err, errprocess.ErrConflict) {
		logger.Log.Error("record last message failed", zap.String("chatID", session.ID), zap.Error(err))
	}
	return nil, err
}

func (s *chatStore) ListMessages(ctx context.Context, chatID string, query domain.MessageQuery) ([]domain.ChatMessage, error) {
	defer metrics.ObserveStore("list", time.Now())
	if query.Limit < 0 || query.After < 0 {
		return nil, errprocess.Validation("after and limit must be positive")
	}
	return s.messages.Find(ctx, chatID, query)
}

func (s *chatStore) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	defer metrics.ObserveStore("mark_read", time.Now())

	unlock := s.locks.Lock(chatID)
	defer unlock()

	session, err := s.Authorize(ctx, chatID, readerID)
	if err != nil {
		return 0, err
	}

	n, err := s.messages.MarkRead(ctx, chatID, readerID, s.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	if err := s.sessions.ResetUnread(ctx, session, readerID); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *chatStore) Authorize(ctx context.Context, chatID, userID string) (*domain.ChatSession, error) {
	session, err := s.sessions.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(userID) {
		logger.Log.Warn("chat access denied", zap.String("chatID", chatID), zap.String("userID", userID))
		return nil, errprocess.Authorization("not a participant of this chat")
	}
	return session, nil
}

func (s *chatStore) SetStatus(ctx context.Context, chatID, userID string, status domain.SessionStatus) (*domain.ChatSession, error) {
	if !status.Valid() {
		return nil, errprocess.Validation("unknown chat status")
	}

	unlock := s.locks.Lock(chatID)
	defer unlock()

	session, err := s.Authorize(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateStatus(ctx, chatID, status); err != nil {
		return nil, err
	}
	session.Status = status
	return session, nil
}

func (s *chatStore) SharesChat(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" || a == b {
		return false, nil
	}
	session, err := s.sessions.FindByPair(ctx, domain.PairKey(a, b))
	if errprocess.Is(err, errprocess.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return session.Status != domain.StatusBlocked, nil
}
