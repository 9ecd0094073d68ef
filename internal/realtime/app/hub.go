package app

import (
	"context"
	"sync"
	"time"

	chat "language_exchange_service/internal/chat/app"
	identity "language_exchange_service/internal/identity/domain"
	matchmaking "language_exchange_service/internal/matchmaking/app"
	presenceapp "language_exchange_service/internal/presence/app"
	presence "language_exchange_service/internal/presence/domain"
	"language_exchange_service/internal/realtime/domain"
	signaling "language_exchange_service/internal/signaling/app"
	"language_exchange_service/pkg/config"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options hub collaborators
type Options struct {
	NodeID   string
	Config   config.RealtimeConfig
	Registry presenceapp.Registry
	Queue    matchmaking.MatchQueue
	Chats    chat.ChatStore
	Profiles identity.Provider
	// Bus nil means single node
	Bus    Bus
	Events EventPublisher
	// OpTimeout bound for one inbound action
	OpTimeout time.Duration
}

// Hub session router: owns the connection arena and the room index
type Hub struct {
	opts     Options
	relay    signaling.Relay
	handlers map[domain.Action]handlerFunc

	mu    sync.RWMutex
	conns map[presence.ConnID]*Connection
	rooms map[string]map[presence.ConnID]*Connection

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub create hub, the signaling relay is owned by the hub
func NewHub(opts Options) *Hub {
	opts.Config = opts.Config.WithDefaults()
	if opts.NodeID == "" {
		opts.NodeID = opts.Config.NodeID
	}
	if opts.NodeID == "" {
		opts.NodeID = uuid.New().String()
	}
	if opts.Events == nil {
		opts.Events = NopPublisher{}
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		opts:   opts,
		conns:  make(map[presence.ConnID]*Connection),
		rooms:  make(map[string]map[presence.ConnID]*Connection),
		ctx:    ctx,
		cancel: cancel,
	}
	h.relay = signaling.NewRelay(h, opts.Chats, opts.Config.CallTimeout)
	h.handlers = h.routes()
	return h
}

// NodeID id of this node on the bus
func (h *Hub) NodeID() string { return h.opts.NodeID }

// Run consume the bus until ctx is done, returns at once on a single node
func (h *Hub) Run(ctx context.Context) error {
	if h.opts.Bus == nil {
		return nil
	}
	logger.Log.Info("realtime bus subscribed", zap.String("nodeID", h.opts.NodeID))
	return h.opts.Bus.Run(ctx, h.onBus)
}

// Shutdown close every connection
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.cancel()
}

// Serve run one authenticated connection, blocks until it is torn down
func (h *Hub) Serve(t Transport, user identity.User) {
	c := newConnection(h, t, user)
	h.register(c)

	go c.writeLoop()
	go c.dispatchLoop()
	c.readLoop()

	c.close(websocket.CloseNormalClosure, "connection closed")
	<-c.writerDone
}

// Connections live connections on this node
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Deliver push action to userID on any node
func (h *Hub) Deliver(userID, action string, payload interface{}) error {
	return h.deliver(userID, domain.WSResponse{Action: action, Success: true, Payload: payload})
}

func (h *Hub) deliver(userID string, resp domain.WSResponse) error {
	if h.deliverLocal(userID, resp) {
		metrics.Deliveries.WithLabelValues(resp.Action, "local").Inc()
		return nil
	}

	if h.opts.Bus != nil && h.opts.Registry.IsOnline(userID) {
		ctx, cancel := context.WithTimeout(h.ctx, h.opts.OpTimeout)
		defer cancel()
		err := h.opts.Bus.Publish(ctx, domain.BusMessage{Origin: h.opts.NodeID, UserID: userID, Response: resp})
		if err == nil {
			metrics.Deliveries.WithLabelValues(resp.Action, "remote").Inc()
			return nil
		}
		logger.Log.Warn("bus publish failed", zap.String("userID", userID), zap.Error(err))
	}

	metrics.Deliveries.WithLabelValues(resp.Action, "unavailable").Inc()
	return errprocess.Unavailable("user is offline")
}

func (h *Hub) deliverLocal(userID string, resp domain.WSResponse) bool {
	connID, ok := h.opts.Registry.Resolve(userID)
	if !ok {
		return false
	}
	c := h.conn(connID)
	if c == nil {
		return false
	}
	if resp.Action == string(domain.MatchFound) {
		c.setState(domain.StateIdle)
	}
	return c.Send(resp)
}

func (h *Hub) conn(id presence.ConnID) *Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[id]
}

// Broadcast push resp to every member of rooms on every node, each connection at most once
func (h *Hub) Broadcast(rooms []string, resp domain.WSResponse, excludeUserID string) {
	if len(rooms) == 0 {
		return
	}
	h.broadcastLocal(rooms, resp, excludeUserID)
	if h.opts.Bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, h.opts.OpTimeout)
	defer cancel()
	msg := domain.BusMessage{Origin: h.opts.NodeID, Rooms: rooms, ExcludeUserID: excludeUserID, Response: resp}
	if err := h.opts.Bus.Publish(ctx, msg); err != nil {
		logger.Log.Warn("room broadcast publish failed", zap.Strings("rooms", rooms), zap.Error(err))
	}
}

func (h *Hub) broadcastLocal(rooms []string, resp domain.WSResponse, excludeUserID string) int {
	h.mu.RLock()
	targets := make(map[presence.ConnID]*Connection)
	for _, room := range rooms {
		for id, c := range h.rooms[room] {
			if c.userID != excludeUserID {
				targets[id] = c
			}
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if c.Send(resp) {
			sent++
		}
	}
	return sent
}

func (h *Hub) onBus(msg domain.BusMessage) {
	if msg.Origin == h.opts.NodeID {
		return
	}
	if msg.UserID != "" {
		if !h.deliverLocal(msg.UserID, msg.Response) {
			logger.Log.Debug("bus delivery for user not on this node", zap.String("userID", msg.UserID))
		}
		return
	}
	h.broadcastLocal(msg.Rooms, msg.Response, msg.ExcludeUserID)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.conns[c.id] = c
	for _, room := range domain.LanguageRooms(c.user.NativeLanguage, c.user.LearningLanguages) {
		h.joinLocked(c, room)
	}
	h.mu.Unlock()

	metrics.OnlineConnections.Inc()
	c.setState(domain.StateConnected)

	if prev, replaced := h.opts.Registry.SetOnline(c.userID, c.id); replaced {
		if old := h.conn(prev); old != nil {
			old.close(domain.CloseReplaced, "replaced by a newer connection")
		}
	}
	logger.Log.Info("websocket connected",
		zap.String("userID", c.userID),
		zap.String("connID", string(c.id)),
	)
	h.announce(c.userID, h.roomsOf(c), true)
}

// teardown 每條連線只會執行一次
func (h *Hub) teardown(c *Connection) {
	h.mu.Lock()
	delete(h.conns, c.id)
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	for _, room := range rooms {
		h.leaveLocked(c, room)
	}
	h.mu.Unlock()
	metrics.OnlineConnections.Dec()

	h.opts.Queue.LeaveOwned(c.userID, string(c.id))
	if !h.opts.Registry.SetOffline(c.userID, c.id) {
		// 已被新連線取代, presence 由新連線負責
		return
	}
	h.relay.EndAll(c.userID)
	h.announce(c.userID, rooms, false)
}

func (h *Hub) announce(userID string, rooms []string, online bool) {
	lastActive := h.opts.Registry.LastActive(userID).UnixMilli()
	h.Broadcast(rooms, domain.WSResponse{
		Action:  string(domain.UserStatus),
		Success: true,
		Payload: map[string]interface{}{
			"user_id":     userID,
			"online":      online,
			"last_active": lastActive,
		},
	}, userID)

	h.opts.Events.Publish(h.ctx, domain.Event{
		Type:   domain.EventPresenceChanged,
		UserID: userID,
		NodeID: h.opts.NodeID,
		At:     time.Now().UnixMilli(),
		Data:   map[string]interface{}{"online": online, "last_active": lastActive},
	})
}

func (h *Hub) joinLocked(c *Connection, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[presence.ConnID]*Connection)
		h.rooms[room] = members
	}
	members[c.id] = c
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Connection, room string) bool {
	if _, ok := c.rooms[room]; !ok {
		return false
	}
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	return true
}

func (h *Hub) joinRoom(c *Connection, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.State() == domain.StateDisconnected {
		return
	}
	h.joinLocked(c, room)
}

func (h *Hub) leaveRoom(c *Connection, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(c, room)
}

func (h *Hub) roomsOf(c *Connection) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// RoomSize connections of room on this node
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
