package app

import (
	"context"
	"sync"
	"time"

	"language_exchange_service/internal/presence/domain"
	"language_exchange_service/pkg/keylock"
	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
)

// Registry maps a live user to at most one connection.
// Only the session router writes to it.
type Registry interface {
	// SetOnline map userID to connID, return the replaced connection if any
	SetOnline(userID string, connID domain.ConnID) (domain.ConnID, bool)
	// SetOffline remove the mapping only while it still points at connID
	SetOffline(userID string, connID domain.ConnID) bool
	// IsOnline local connection or, with a directory, any node
	IsOnline(userID string) bool
	// Resolve local connection of userID
	Resolve(userID string) (domain.ConnID, bool)
	// Touch refresh last active and projection ttl
	Touch(userID string)
	LastActive(userID string) time.Time
	OnlineCount() int
}

// Options registry collaborators
type Options struct {
	NodeID      string
	Projections []domain.Projection
	Directory   domain.Directory
	// Timeout bound for each projection / directory call
	Timeout time.Duration
}

type registry struct {
	mu         sync.RWMutex
	conns      map[string]domain.ConnID
	lastActive map[string]time.Time

	keys *keylock.KeyedMutex
	opts Options
	now  func() time.Time
}

// NewRegistry create presence registry
func NewRegistry(opts Options) Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &registry{
		conns:      make(map[string]domain.ConnID),
		lastActive: make(map[string]time.Time),
		keys:       keylock.New(),
		opts:       opts,
		now:        time.Now,
	}
}

func (r *registry) SetOnline(userID string, connID domain.ConnID) (domain.ConnID, bool) {
	unlock := r.keys.Lock(userID)
	defer unlock()

	now := r.now()
	r.mu.Lock()
	prev, had := r.conns[userID]
	r.conns[userID] = connID
	r.lastActive[userID] = now
	r.mu.Unlock()

	r.project("online", func(ctx context.Context, p domain.Projection) error {
		return p.Online(ctx, r.status(userID, connID, true, now))
	})
	return prev, had && prev != connID
}

func (r *registry) SetOffline(userID string, connID domain.ConnID) bool {
	unlock := r.keys.Lock(userID)
	defer unlock()

	now := r.now()
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current != connID {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	r.lastActive[userID] = now
	r.mu.Unlock()

	r.project("offline", func(ctx context.Context, p domain.Projection) error {
		return p.Offline(ctx, r.status(userID, connID, false, now))
	})
	return true
}

func (r *registry) IsOnline(userID string) bool {
	if _, ok := r.Resolve(userID); ok {
		return true
	}
	if r.opts.Directory == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()
	s, found, err := r.opts.Directory.Lookup(ctx, userID)
	if err != nil {
		logger.Log.Warn("presence directory lookup failed", zap.String("userID", userID), zap.Error(err))
		return false
	}
	return found && s.Online
}

func (r *registry) Resolve(userID string) (domain.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *registry) Touch(userID string) {
	unlock := r.keys.Lock(userID)
	defer unlock()

	now := r.now()
	r.mu.Lock()
	connID, ok := r.conns[userID]
	if ok {
		r.lastActive[userID] = now
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.project("touch", func(ctx context.Context, p domain.Projection) error {
		return p.Touch(ctx, r.status(userID, connID, true, now))
	})
}

func (r *registry) LastActive(userID string) time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive[userID]
}

func (r *registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *registry) status(userID string, connID domain.ConnID, online bool, at time.Time) domain.Status {
	return domain.Status{
		UserID:     userID,
		Online:     online,
		ConnID:     connID,
		NodeID:     r.opts.NodeID,
		LastActive: at,
	}
}

// project projection 失敗只記 log, 不影響記憶體狀態
func (r *registry) project(op string, fn func(ctx context.Context, p domain.Projection) error) {
	for _, p := range r.opts.Projections {
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
		if err := fn(ctx, p); err != nil {
			logger.Log.Warn("presence projection failed", zap.String("op", op), zap.Error(err))
		}
		cancel()
	}
}
