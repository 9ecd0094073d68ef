package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"language_exchange_service/internal/signaling/domain"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	m.Run()
}

type delivered struct {
	userID  string
	action  string
	payload interface{}
}

// fakeRouter records deliveries, users in offline are unreachable
type fakeRouter struct {
	mu      sync.Mutex
	offline map[string]bool
	out     []delivered
}

func (r *fakeRouter) Deliver(userID, action string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline[userID] {
		return errprocess.Unavailable("user is offline")
	}
	r.out = append(r.out, delivered{userID, action, payload})
	return nil
}

func (r *fakeRouter) actions(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.out {
		if d.userID == userID {
			out = append(out, d.action)
		}
	}
	return out
}

type MockPairAuthorizer struct {
	mock.Mock
}

func (m *MockPairAuthorizer) SharesChat(ctx context.Context, a, b string) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func allowAll() *MockPairAuthorizer {
	auth := new(MockPairAuthorizer)
	auth.On("SharesChat", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	return auth
}

func offer(from, to, callID string) domain.Envelope {
	return domain.Envelope{FromUserID: from, ToUserID: to, Kind: domain.KindOffer, CallID: callID, Payload: json.RawMessage(`{"sdp":"v=0"}`)}
}

func TestRelayForwardsVerbatim(t *testing.T) {
	router := &fakeRouter{}
	r := NewRelay(router, allowAll(), time.Minute)

	env := offer("a", "b", "call-1")
	require.NoError(t, r.Relay(context.Background(), env))

	require.Len(t, router.out, 1)
	assert.Equal(t, "b", router.out[0].userID)
	assert.Equal(t, domain.ActionSignal, router.out[0].action)
	assert.Equal(t, env, router.out[0].payload)
	assert.Equal(t, 1, r.ActiveCalls())
}

func TestRelayRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("strangers", func(t *testing.T) {
		auth := new(MockPairAuthorizer)
		auth.On("SharesChat", mock.Anything, "a", "b").Return(false, nil)
		r := NewRelay(&fakeRouter{}, auth, time.Minute)
		err := r.Relay(ctx, offer("a", "b", "c"))
		assert.ErrorIs(t, err, errprocess.ErrAuthorization)
	})

	t.Run("recipient offline", func(t *testing.T) {
		router := &fakeRouter{offline: map[string]bool{"b": true}}
		r := NewRelay(router, allowAll(), time.Minute)
		err := r.Relay(ctx, offer("a", "b", "c"))
		assert.ErrorIs(t, err, errprocess.ErrUnavailable)
		assert.Equal(t, 0, r.ActiveCalls())
	})

	t.Run("bad envelope", func(t *testing.T) {
		r := NewRelay(&fakeRouter{}, allowAll(), time.Minute)
		assert.ErrorIs(t, r.Relay(ctx, domain.Envelope{FromUserID: "a", ToUserID: "a", Kind: domain.KindOffer}), errprocess.ErrValidation)
		assert.ErrorIs(t, r.Relay(ctx, domain.Envelope{FromUserID: "a", ToUserID: "b", Kind: "ring"}), errprocess.ErrValidation)
	})

	t.Run("authorizer failure", func(t *testing.T) {
		auth := new(MockPairAuthorizer)
		auth.On("SharesChat", mock.Anything, "a", "b").Return(false, errors.New("mongo down"))
		r := NewRelay(&fakeRouter{}, auth, time.Minute)
		assert.Error(t, r.Relay(ctx, offer("a", "b", "c")))
	})
}

func TestUnansweredCallTimesOut(t *testing.T) {
	router := &fakeRouter{}
	r := NewRelay(router, allowAll(), 20*time.Millisecond)

	require.NoError(t, r.Relay(context.Background(), offer("a", "b", "call-1")))

	assert.Eventually(t, func() bool { return r.ActiveCalls() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(router.actions("a")) == 1 && len(router.actions("b")) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{domain.ActionCallTimeout}, router.actions("a"))
	assert.Equal(t, []string{domain.ActionSignal, domain.ActionCallTimeout}, router.actions("b"))
}

func TestAnsweredCallDoesNotTimeOut(t *testing.T) {
	router := &fakeRouter{}
	r := NewRelay(router, allowAll(), 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, r.Relay(ctx, offer("a", "b", "call-1")))
	require.NoError(t, r.Relay(ctx, domain.Envelope{FromUserID: "b", ToUserID: "a", Kind: domain.KindAnswer, CallID: "call-1"}))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, r.ActiveCalls())
	assert.NotContains(t, router.actions("a"), domain.ActionCallTimeout)

	require.NoError(t, r.Relay(ctx, domain.Envelope{FromUserID: "a", ToUserID: "b", Kind: domain.KindEnd, CallID: "call-1"}))
	assert.Equal(t, 0, r.ActiveCalls())
}

func TestEndIsBestEffort(t *testing.T) {
	router := &fakeRouter{}
	r := NewRelay(router, allowAll(), time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Relay(ctx, offer("a", "b", "call-1")))
	router.offline = map[string]bool{"b": true}

	err := r.Relay(ctx, domain.Envelope{FromUserID: "a", ToUserID: "b", Kind: domain.KindEnd, CallID: "call-1"})
	assert.NoError(t, err)
	assert.Equal(t, 0, r.ActiveCalls())
}

func TestEndAllNotifiesPartners(t *testing.T) {
	router := &fakeRouter{}
	r := NewRelay(router, allowAll(), time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Relay(ctx, offer("a", "b", "call-1")))
	require.NoError(t, r.Relay(ctx, offer("c", "a", "call-2")))
	require.NoError(t, r.Relay(ctx, offer("d", "e", "call-3")))

	r.EndAll("a")

	assert.Equal(t, 1, r.ActiveCalls())
	assert.Equal(t, []string{domain.ActionSignal, domain.ActionCallEnded}, router.actions("b"))
	assert.Equal(t, []string{domain.ActionCallEnded}, router.actions("c"))

	for _, d := range router.out {
		if d.action == domain.ActionCallEnded {
			notice := d.payload.(domain.CallNotice)
			assert.Equal(t, "a", notice.PartnerID)
			assert.Equal(t, "disconnected", notice.Reason)
		}
	}
}

// answeringRouter the callee answers while the offer is still being delivered
type answeringRouter struct {
	fakeRouter
	relay Relay
}

func (r *answeringRouter) Deliver(userID, action string, payload interface{}) error {
	if err := r.fakeRouter.Deliver(userID, action, payload); err != nil {
		return err
	}
	env, ok := payload.(domain.Envelope)
	if ok && env.Kind == domain.KindOffer {
		answer := domain.Envelope{FromUserID: env.ToUserID, ToUserID: env.FromUserID, Kind: domain.KindAnswer, CallID: env.CallID, Payload: json.RawMessage(`{"sdp":"v=0"}`)}
		return r.relay.Relay(context.Background(), answer)
	}
	return nil
}

func TestAnswerDuringOfferDelivery(t *testing.T) {
	t.Run("answered call never times out", func(t *testing.T) {
		router := &answeringRouter{}
		r := NewRelay(router, allowAll(), 50*time.Millisecond)
		router.relay = r

		require.NoError(t, r.Relay(context.Background(), offer("a", "b", "call-1")))
		time.Sleep(120 * time.Millisecond)

		assert.NotContains(t, router.actions("a"), domain.ActionCallTimeout)
		assert.NotContains(t, router.actions("b"), domain.ActionCallTimeout)
		assert.Equal(t, []string{domain.ActionSignal}, router.actions("a"))
		assert.Equal(t, 1, r.ActiveCalls())
	})

	t.Run("undelivered offer leaves no attempt", func(t *testing.T) {
		router := &fakeRouter{offline: map[string]bool{"b": true}}
		r := NewRelay(router, allowAll(), 20*time.Millisecond)

		err := r.Relay(context.Background(), offer("a", "b", "call-1"))
		assert.ErrorIs(t, err, errprocess.ErrUnavailable)
		assert.Equal(t, 0, r.ActiveCalls())

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, router.actions("a"))
	})

	t.Run("undelivered re-offer drops the replaced attempt", func(t *testing.T) {
		router := &fakeRouter{}
		r := NewRelay(router, allowAll(), time.Minute)
		ctx := context.Background()

		require.NoError(t, r.Relay(ctx, offer("a", "b", "call-1")))
		router.mu.Lock()
		router.offline = map[string]bool{"b": true}
		router.mu.Unlock()

		assert.Error(t, r.Relay(ctx, offer("a", "b", "call-2")))
		assert.Equal(t, 0, r.ActiveCalls())
	})
}
