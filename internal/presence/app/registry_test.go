package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"language_exchange_service/internal/presence/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProjection struct {
	mock.Mock
}

func (m *MockProjection) Online(ctx context.Context, s domain.Status) error {
	return m.Called(s.UserID, s.ConnID).Error(0)
}

func (m *MockProjection) Offline(ctx context.Context, s domain.Status) error {
	return m.Called(s.UserID, s.ConnID).Error(0)
}

func (m *MockProjection) Touch(ctx context.Context, s domain.Status) error {
	return m.Called(s.UserID, s.ConnID).Error(0)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Lookup(ctx context.Context, userID string) (domain.Status, bool, error) {
	args := m.Called(userID)
	return args.Get(0).(domain.Status), args.Bool(1), args.Error(2)
}

func TestSetOnlineOffline(t *testing.T) {
	proj := new(MockProjection)
	proj.On("Online", "u1", domain.ConnID("c1")).Return(nil)
	proj.On("Online", "u1", domain.ConnID("c2")).Return(nil)
	proj.On("Offline", "u1", domain.ConnID("c2")).Return(nil)

	r := NewRegistry(Options{NodeID: "node-a", Projections: []domain.Projection{proj}})

	prev, replaced := r.SetOnline("u1", "c1")
	assert.False(t, replaced)
	assert.Empty(t, prev)
	assert.True(t, r.IsOnline("u1"))

	t.Run("reconnect replaces and reports stale connection", func(t *testing.T) {
		prev, replaced := r.SetOnline("u1", "c2")
		assert.True(t, replaced)
		assert.Equal(t, domain.ConnID("c1"), prev)
		c, ok := r.Resolve("u1")
		require.True(t, ok)
		assert.Equal(t, domain.ConnID("c2"), c)
	})

	t.Run("stale teardown keeps the user online", func(t *testing.T) {
		assert.False(t, r.SetOffline("u1", "c1"))
		assert.True(t, r.IsOnline("u1"))
	})

	t.Run("current teardown goes offline", func(t *testing.T) {
		assert.True(t, r.SetOffline("u1", "c2"))
		assert.False(t, r.IsOnline("u1"))
		_, ok := r.Resolve("u1")
		assert.False(t, ok)
		assert.False(t, r.LastActive("u1").IsZero())
		assert.Equal(t, 0, r.OnlineCount())
	})

	proj.AssertExpectations(t)
	proj.AssertNotCalled(t, "Offline", "u1", domain.ConnID("c1"))
}

func TestProjectionFailureDoesNotFailTransition(t *testing.T) {
	proj := new(MockProjection)
	proj.On("Online", "u1", domain.ConnID("c1")).Return(errors.New("redis down"))
	proj.On("Touch", "u1", domain.ConnID("c1")).Return(errors.New("redis down"))

	r := NewRegistry(Options{Projections: []domain.Projection{proj}})
	r.SetOnline("u1", "c1")
	r.Touch("u1")

	assert.True(t, r.IsOnline("u1"))
	proj.AssertExpectations(t)
}

func TestTouchOfflineUserIsNoop(t *testing.T) {
	proj := new(MockProjection)
	r := NewRegistry(Options{Projections: []domain.Projection{proj}})
	r.Touch("ghost")
	proj.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything)
}

func TestIsOnlineFallsBackToDirectory(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("Lookup", "remote").Return(domain.Status{UserID: "remote", Online: true, NodeID: "node-b"}, true, nil)
	dir.On("Lookup", "gone").Return(domain.Status{UserID: "gone", Online: false}, true, nil)
	dir.On("Lookup", "broken").Return(domain.Status{}, false, errors.New("timeout"))

	r := NewRegistry(Options{NodeID: "node-a", Directory: dir})
	assert.True(t, r.IsOnline("remote"))
	assert.False(t, r.IsOnline("gone"))
	assert.False(t, r.IsOnline("broken"))

	_, local := r.Resolve("remote")
	assert.False(t, local)
}

func TestConcurrentReconnects(t *testing.T) {
	r := NewRegistry(Options{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := domain.ConnID([]string{"c1", "c2"}[i%2])
			r.SetOnline("u1", c)
			r.SetOffline("u1", c)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, r.OnlineCount(), 1)
}
