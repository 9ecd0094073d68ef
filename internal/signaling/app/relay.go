package app

import (
	"context"
	"sync"
	"time"

	"language_exchange_service/internal/signaling/domain"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"

	"go.uber.org/zap"
)

// Router live delivery, UNAVAILABLE when the user is not reachable
type Router interface {
	Deliver(userID, action string, payload interface{}) error
}

// PairAuthorizer whether two users may call each other
type PairAuthorizer interface {
	SharesChat(ctx context.Context, a, b string) (bool, error)
}

// Relay forwards call setup between chat partners, never touches media
type Relay interface {
	Relay(ctx context.Context, env domain.Envelope) error
	// EndAll drop userID's call attempts and tell the partners
	EndAll(userID string)
	ActiveCalls() int
}

type attempt struct {
	callID   string
	caller   string
	callee   string
	answered bool
	timer    *time.Timer
}

func (a *attempt) partner(userID string) string {
	if a.caller == userID {
		return a.callee
	}
	return a.caller
}

type relay struct {
	router  Router
	auth    PairAuthorizer
	timeout time.Duration

	mu       sync.Mutex
	attempts map[string]*attempt // pair key -> attempt
}

// NewRelay timeout bounds an unanswered call
func NewRelay(router Router, auth PairAuthorizer, timeout time.Duration) Relay {
	return &relay{
		router:   router,
		auth:     auth,
		timeout:  timeout,
		attempts: make(map[string]*attempt),
	}
}

func pairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

func (r *relay) Relay(ctx context.Context, env domain.Envelope) error {
	if err := env.Validate(); err != nil {
		metrics.Signals.WithLabelValues(string(env.Kind), "invalid").Inc()
		return err
	}

	ok, err := r.auth.SharesChat(ctx, env.FromUserID, env.ToUserID)
	if err != nil {
		return err
	}
	if !ok {
		metrics.Signals.WithLabelValues(string(env.Kind), "denied").Inc()
		logger.Log.Warn("signal between strangers rejected",
			zap.String("from", env.FromUserID),
			zap.String("to", env.ToUserID),
		)
		return errprocess.Authorization("signaling requires a shared chat")
	}

	if env.Kind == domain.KindEnd {
		r.clear(env.FromUserID, env.ToUserID)
		if err := r.router.Deliver(env.ToUserID, domain.ActionSignal, env); err != nil {
			logger.Log.Debug("end signal not delivered", zap.String("to", env.ToUserID), zap.Error(err))
		}
		metrics.Signals.WithLabelValues(string(env.Kind), "relayed").Inc()
		return nil
	}

	// attempt 先登記, 對方在 Deliver 返回前就回 answer/end 也能對上
	placed := r.track(env)
	if err := r.router.Deliver(env.ToUserID, domain.ActionSignal, env); err != nil {
		r.untrack(env, placed)
		metrics.Signals.WithLabelValues(string(env.Kind), "unavailable").Inc()
		return err
	}
	metrics.Signals.WithLabelValues(string(env.Kind), "relayed").Inc()
	return nil
}

// track update the pair's attempt, returns the attempt an offer created
func (r *relay) track(env domain.Envelope) *attempt {
	key := pairKey(env.FromUserID, env.ToUserID)

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.attempts[key]
	switch env.Kind {
	case domain.KindOffer:
		if current != nil {
			current.timer.Stop()
		}
		a := &attempt{callID: env.CallID, caller: env.FromUserID, callee: env.ToUserID}
		a.timer = time.AfterFunc(r.timeout, func() { r.expire(key, a) })
		r.attempts[key] = a
		return a
	case domain.KindAnswer:
		if current != nil {
			// 接通後不再計時, 直到 end 或斷線
			current.answered = true
			current.timer.Stop()
		}
	case domain.KindCandidate:
		if current != nil && !current.answered {
			current.timer.Reset(r.timeout)
		}
	}
	return nil
}

// untrack drop an offer's attempt that never reached the callee
func (r *relay) untrack(env domain.Envelope, placed *attempt) {
	if placed == nil {
		return
	}
	key := pairKey(env.FromUserID, env.ToUserID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts[key] == placed {
		placed.timer.Stop()
		delete(r.attempts, key)
	}
}

func (r *relay) clear(a, b string) {
	key := pairKey(a, b)
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.attempts[key]; ok {
		current.timer.Stop()
		delete(r.attempts, key)
	}
}

func (r *relay) expire(key string, a *attempt) {
	r.mu.Lock()
	if r.attempts[key] != a || a.answered {
		r.mu.Unlock()
		return
	}
	delete(r.attempts, key)
	r.mu.Unlock()

	logger.Log.Info("call attempt timed out", zap.String("callID", a.callID))
	metrics.Signals.WithLabelValues("timeout", "emitted").Inc()
	for _, user := range []string{a.caller, a.callee} {
		notice := domain.CallNotice{CallID: a.callID, PartnerID: a.partner(user), Reason: "timeout"}
		if err := r.router.Deliver(user, domain.ActionCallTimeout, notice); err != nil {
			logger.Log.Debug("call_timeout not delivered", zap.String("userID", user), zap.Error(err))
		}
	}
}

func (r *relay) EndAll(userID string) {
	r.mu.Lock()
	var ended []*attempt
	for key, a := range r.attempts {
		if a.caller != userID && a.callee != userID {
			continue
		}
		a.timer.Stop()
		delete(r.attempts, key)
		ended = append(ended, a)
	}
	r.mu.Unlock()

	for _, a := range ended {
		partner := a.partner(userID)
		notice := domain.CallNotice{CallID: a.callID, PartnerID: userID, Reason: "disconnected"}
		if err := r.router.Deliver(partner, domain.ActionCallEnded, notice); err != nil {
			logger.Log.Debug("call_ended not delivered", zap.String("userID", partner), zap.Error(err))
		}
	}
}

func (r *relay) ActiveCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
