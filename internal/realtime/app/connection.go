package app

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	identity "language_exchange_service/internal/identity/domain"
	presence "language_exchange_service/internal/presence/domain"
	"language_exchange_service/internal/realtime/domain"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Connection one authenticated websocket.
// reader -> inbound -> dispatcher, handlers/pushes -> out -> writer
type Connection struct {
	id     presence.ConnID
	userID string
	user   identity.User

	hub       *Hub
	transport Transport

	inbound chan []byte
	out     chan []byte

	state atomic.Int32
	// rooms guarded by hub.mu
	rooms map[string]struct{}

	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	writerDone chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func newConnection(h *Hub, t Transport, user identity.User) *Connection {
	ctx, cancel := context.WithCancel(h.ctx)
	c := &Connection{
		id:         presence.ConnID(uuid.New().String()),
		userID:     user.ID,
		user:       user,
		hub:        h,
		transport:  t,
		inbound:    make(chan []byte, h.opts.Config.OutboundBuffer),
		out:        make(chan []byte, h.opts.Config.OutboundBuffer),
		rooms:      make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	c.setState(domain.StateAuthenticating)
	return c
}

// ID arena index
func (c *Connection) ID() presence.ConnID { return c.id }

// UserID owner
func (c *Connection) UserID() string { return c.userID }

// State current state
func (c *Connection) State() domain.ConnState {
	return domain.ConnState(c.state.Load())
}

func (c *Connection) setState(s domain.ConnState) {
	for {
		cur := c.state.Load()
		if domain.ConnState(cur) == domain.StateDisconnected {
			return
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// Send enqueue resp, a full buffer tears the connection down
func (c *Connection) Send(resp domain.WSResponse) bool {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Error("marshal websocket response failed", zap.String("action", resp.Action), zap.Error(err))
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- data:
		return true
	default:
		metrics.Deliveries.WithLabelValues(resp.Action, "dropped").Inc()
		logger.Log.Warn("outbound buffer full, dropping connection",
			zap.String("userID", c.userID),
			zap.String("connID", string(c.id)),
		)
		go c.close(domain.CloseSlowConsumer, "outbound buffer full")
		return false
	}
}

// close exactly once per connection, whoever notices first
func (c *Connection) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.state.Store(int32(domain.StateDisconnected))
		close(c.done)
		c.cancel()

		logger.Log.Info("websocket close",
			zap.String("userID", c.userID),
			zap.String("connID", string(c.id)),
			zap.Int("code", code),
			zap.String("reason", reason),
		)
		c.hub.teardown(c)
	})
}

func (c *Connection) readLoop() {
	cfg := c.hub.opts.Config
	_ = c.transport.SetReadDeadline(time.Now().Add(cfg.PongWait))
	//server發出ping之後client連線正常會回pong
	c.transport.SetPongHandler(func(string) error {
		c.hub.opts.Registry.Touch(c.userID)
		return c.transport.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		mt, message, err := c.transport.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Warn("websocket read error", zap.String("userID", c.userID), zap.Error(err))
			}
			return
		}
		_ = c.transport.SetReadDeadline(time.Now().Add(cfg.PongWait))

		if mt != websocket.TextMessage {
			c.Send(domain.WSResponse{Action: string(domain.Error), Error: "only text messages are supported"})
			continue
		}

		select {
		case c.inbound <- message:
		case <-c.done:
			return
		}
	}
}

func (c *Connection) dispatchLoop() {
	for {
		select {
		case message := <-c.inbound:
			c.hub.dispatch(c, message)
		case <-c.done:
			return
		}
	}
}

func (c *Connection) writeLoop() {
	cfg := c.hub.opts.Config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.transport.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case message := <-c.out:
			_ = c.transport.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.transport.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Log.Debug("websocket write error", zap.String("userID", c.userID), zap.Error(err))
				c.close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.transport.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.WriteWait)); err != nil {
				c.close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		case <-c.done:
			c.flush(cfg.WriteWait)
			_ = c.transport.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(c.closeCode, c.closeReason),
				time.Now().Add(cfg.WriteWait),
			)
			return
		}
	}
}

// flush already queued replies before the close frame
func (c *Connection) flush(wait time.Duration) {
	for {
		select {
		case message := <-c.out:
			_ = c.transport.SetWriteDeadline(time.Now().Add(wait))
			if err := c.transport.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
