package repository

import (
	"context"
	"errors"
	"time"

	"language_exchange_service/internal/presence/domain"
	"language_exchange_service/pkg/database"
)

const (
	keyPrefix = "presence:user:"
	// offline records keep last_active around for the chat list
	offlineTTL = 7 * 24 * time.Hour
)

// RedisPresence presence keys with TTL, shared by every chat_service node
type RedisPresence struct {
	repo database.RedisRepository[domain.Status]
	ttl  time.Duration
}

// NewRedisPresence ttl should exceed the heartbeat interval
func NewRedisPresence(repo database.RedisRepository[domain.Status], ttl time.Duration) *RedisPresence {
	return &RedisPresence{repo: repo, ttl: ttl}
}

// Key redis key of a user
func Key(userID string) string {
	return keyPrefix + userID
}

// Online write the record with ttl
func (p *RedisPresence) Online(ctx context.Context, s domain.Status) error {
	return p.repo.Set(ctx, Key(s.UserID), s, p.ttl)
}

// Offline keep a newer connection's record untouched
func (p *RedisPresence) Offline(ctx context.Context, s domain.Status) error {
	current, err := p.repo.Get(ctx, Key(s.UserID))
	if err != nil && !errors.Is(err, database.ErrRedisNil) {
		return err
	}
	if err == nil && current.Online && current.ConnID != s.ConnID {
		return nil
	}
	s.ConnID = ""
	s.NodeID = ""
	return p.repo.Set(ctx, Key(s.UserID), s, offlineTTL)
}

// Touch heartbeat
func (p *RedisPresence) Touch(ctx context.Context, s domain.Status) error {
	return p.repo.ExtendTTL(ctx, Key(s.UserID), p.ttl)
}

// Lookup read a user's record
func (p *RedisPresence) Lookup(ctx context.Context, userID string) (domain.Status, bool, error) {
	s, err := p.repo.Get(ctx, Key(userID))
	if errors.Is(err, database.ErrRedisNil) {
		return domain.Status{}, false, nil
	}
	if err != nil {
		return domain.Status{}, false, err
	}
	return s, true, nil
}
