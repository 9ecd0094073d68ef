package repository

import (
	"context"
	"sync"
	"time"

	"language_exchange_service/internal/identity/domain"
	errprocess "language_exchange_service/pkg/err"
	t_token "language_exchange_service/pkg/token"
)

// MemoryProvider in-process identity provider, verifies JWTs locally.
// Used by chat_service in storage=memory mode and by tests.
type MemoryProvider struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryProvider create provider seeded with users
func NewMemoryProvider(users ...domain.User) *MemoryProvider {
	p := &MemoryProvider{users: make(map[string]domain.User)}
	for _, u := range users {
		p.Put(u)
	}
	return p
}

// Put insert or replace a user
func (p *MemoryProvider) Put(u domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[u.ID] = u
}

// Authenticate parse the token and look the member up
func (p *MemoryProvider) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := t_token.ParseJWTWrapper(token)
	if err != nil {
		return domain.User{}, errprocess.Wrap(errprocess.CodeAuthentication, "invalid token", err)
	}
	u, err := p.Profile(ctx, claims.MemberID)
	if err != nil {
		return domain.User{}, errprocess.Authentication("unknown member")
	}
	return u, nil
}

// Profile lookup by id
func (p *MemoryProvider) Profile(_ context.Context, userID string) (domain.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.users[userID]
	if !ok {
		return domain.User{}, errprocess.NotFound("member not found")
	}
	return u, nil
}

// SetOnline flip flag and stamp last active
func (p *MemoryProvider) SetOnline(_ context.Context, userID string, online bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return errprocess.NotFound("member not found")
	}
	u.Online = online
	u.LastActive = time.Now()
	p.users[userID] = u
	return nil
}
