package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	presence "language_exchange_service/internal/presence/domain"
	"language_exchange_service/internal/realtime/domain"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/require"
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport in-memory websocket, the test plays the client
type fakeTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once

	// block writes until release is closed
	block   bool
	release chan struct{}

	mu         sync.Mutex
	closeFrame []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:      make(chan []byte, 16),
		out:     make(chan []byte, 256),
		closed:  make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	select {
	case m := <-f.in:
		return websocket.TextMessage, m, nil
	case <-f.closed:
		return 0, nil, errTransportClosed
	}
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	if f.block {
		select {
		case <-f.release:
		case <-f.closed:
			return errTransportClosed
		}
	}
	select {
	case <-f.closed:
		return errTransportClosed
	case f.out <- data:
		return nil
	}
}

func (f *fakeTransport) WriteControl(mt int, data []byte, _ time.Time) error {
	if mt == websocket.CloseMessage {
		f.mu.Lock()
		f.closeFrame = data
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeTransport) SetReadDeadline(time.Time) error { return nil }
func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeTransport) SetPongHandler(func(string) error) {}
func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) closeCode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.closeFrame) < 2 {
		return 0
	}
	return int(f.closeFrame[0])<<8 | int(f.closeFrame[1])
}

// received response as the client sees it
type received struct {
	Action    string          `json:"action"`
	Success   bool            `json:"success"`
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
}

func (r received) payload(t *testing.T) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if len(r.Payload) > 0 {
		require.NoError(t, json.Unmarshal(r.Payload, &out))
	}
	return out
}

// client test side of one connection
type client struct {
	t    *testing.T
	tr   *fakeTransport
	done chan struct{}
}

func connect(t *testing.T, h *Hub, userID string, users map[string]userFixture) *client {
	t.Helper()
	tr := newFakeTransport()
	c := &client{t: t, tr: tr, done: make(chan struct{})}
	go func() {
		h.Serve(tr, users[userID].user())
		close(c.done)
	}()
	require.Eventually(t, func() bool {
		connID, ok := h.opts.Registry.Resolve(userID)
		return ok && h.conn(connID) != nil && h.conn(connID).transport == tr
	}, time.Second, time.Millisecond)
	return c
}

func (c *client) send(req domain.WSRequest) {
	data, err := json.Marshal(req)
	require.NoError(c.t, err)
	c.tr.in <- data
}

// expect read until action arrives, other pushes are skipped
func (c *client) expect(action string) received {
	c.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.tr.out:
			var r received
			require.NoError(c.t, json.Unmarshal(data, &r))
			if r.Action == action {
				return r
			}
		case <-deadline:
			c.t.Fatalf("timed out waiting for %s", action)
			return received{}
		}
	}
}

// never fail if action arrives within d
func (c *client) never(action string, d time.Duration) {
	c.t.Helper()
	deadline := time.After(d)
	for {
		select {
		case data := <-c.tr.out:
			var r received
			require.NoError(c.t, json.Unmarshal(data, &r))
			if r.Action == action {
				c.t.Fatalf("unexpected %s", action)
			}
		case <-deadline:
			return
		}
	}
}

func (c *client) disconnect() {
	_ = c.tr.Close()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		c.t.Fatal("connection did not tear down")
	}
}

// memoryBus fans out to every attached hub
type memoryBus struct {
	mu       sync.Mutex
	handlers []func(domain.BusMessage)
	ready    sync.WaitGroup
}

func (b *memoryBus) Publish(_ context.Context, msg domain.BusMessage) error {
	b.mu.Lock()
	handlers := append([]func(domain.BusMessage){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *memoryBus) Run(ctx context.Context, handler func(domain.BusMessage)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	b.ready.Done()
	<-ctx.Done()
	return nil
}

// sharedPresence projection + directory shared by every node in a test
type sharedPresence struct {
	mu     sync.Mutex
	status map[string]presence.Status
}

func newSharedPresence() *sharedPresence {
	return &sharedPresence{status: make(map[string]presence.Status)}
}

func (s *sharedPresence) Online(_ context.Context, st presence.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[st.UserID] = st
	return nil
}

func (s *sharedPresence) Offline(_ context.Context, st presence.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.status[st.UserID]; ok && cur.ConnID != st.ConnID {
		return nil
	}
	s.status[st.UserID] = st
	return nil
}

func (s *sharedPresence) Touch(ctx context.Context, st presence.Status) error {
	return s.Online(ctx, st)
}

func (s *sharedPresence) Lookup(_ context.Context, userID string) (presence.Status, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[userID]
	return st, ok, nil
}
