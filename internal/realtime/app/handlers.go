package app

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	chat "language_exchange_service/internal/chat/domain"
	identity "language_exchange_service/internal/identity/domain"
	matchmaking "language_exchange_service/internal/matchmaking/domain"
	"language_exchange_service/internal/realtime/domain"
	signaling "language_exchange_service/internal/signaling/domain"
	"language_exchange_service/pkg"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error)

// silent handler already pushed what it had to, no reply
type silent struct{}

const maxRoomName = 64

func (h *Hub) routes() map[domain.Action]handlerFunc {
	return map[domain.Action]handlerFunc{
		domain.FindMatch:   h.findMatch,
		domain.CancelMatch: h.cancelMatch,
		domain.SendMessage: h.sendMessage,
		domain.MarkRead:    h.markRead,
		domain.Typing:      h.typing,
		domain.Signal:      h.signal,
		domain.JoinRoom:    h.joinRoomAction,
		domain.LeaveRoom:   h.leaveRoomAction,
		domain.Ping:        h.ping,
	}
}

func (h *Hub) dispatch(c *Connection, message []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.Send(domain.WSResponse{Action: string(domain.Error), Error: "invalid json"})
		return
	}

	handler, ok := h.handlers[domain.Action(req.Action)]
	if !ok {
		c.Send(domain.WSResponse{Action: string(domain.Error), RequestID: req.RequestID, Error: "unknown action"})
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, h.opts.OpTimeout)
	defer cancel()
	payload, err := handler(ctx, c, req)
	if _, quiet := payload.(silent); quiet && err == nil {
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: err == nil, RequestID: req.RequestID, Payload: payload}
	if err != nil {
		code := errprocess.CodeOf(err)
		resp.Error = "internal error"
		if appErr, ok := errprocess.As(err); ok {
			resp.Error = appErr.Message
		}
		p := map[string]interface{}{"code": code}
		if code == errprocess.CodeUnavailable {
			p["status"] = "unavailable"
		}
		resp.Payload = p
		if code == errprocess.CodeStorage || code == errprocess.CodeInternal {
			logger.Log.Error("websocket err ", zap.String("MemberID", c.userID), zap.String("Action", req.Action), zap.Error(err))
		} else {
			logger.Log.Debug("websocket action rejected", zap.String("MemberID", c.userID), zap.String("Action", req.Action), zap.Error(err))
		}
	}
	c.Send(resp)
}

func (h *Hub) findMatch(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	target := pkg.NormalizeLanguage(req.TargetLanguage)
	if !c.user.Learns(target) {
		return nil, errprocess.Validation("target language must be one of your learning languages")
	}

	result, err := h.opts.Queue.Join(matchmaking.QueueEntry{
		UserID:           c.userID,
		NativeLanguage:   c.user.NativeLanguage,
		LearningLanguage: target,
		ConnID:           string(c.id),
	})
	if err != nil {
		return nil, err
	}
	if result.Status == matchmaking.StatusWaiting {
		c.setState(domain.StateMatching)
		return map[string]interface{}{"status": matchmaking.StatusWaiting}, nil
	}

	waiting := result.Match.Partner(c.userID)
	session, err := h.opts.Chats.RecordMatch(ctx, waiting.UserID, c.userID)
	if err != nil {
		// 對方已離開佇列, 通知失敗讓雙方重新配對
		logger.Log.Error("record match failed", zap.String("a", waiting.UserID), zap.String("b", c.userID), zap.Error(err))
		_ = h.deliver(waiting.UserID, domain.WSResponse{
			Action: string(domain.FindMatch),
			Error:  "match could not be recorded, please retry",
		})
		c.setState(domain.StateIdle)
		return nil, err
	}

	partner := h.publicProfile(ctx, waiting.UserID, waiting.NativeLanguage)
	self := c.user.Public()
	self.Online = true

	if err := h.Deliver(waiting.UserID, string(domain.MatchFound), map[string]interface{}{
		"status":  matchmaking.StatusMatched,
		"partner": self,
		"chat_id": session.ID,
	}); err != nil {
		logger.Log.Warn("match_found not delivered to waiting partner", zap.String("userID", waiting.UserID), zap.Error(err))
	}

	found := map[string]interface{}{
		"status":  matchmaking.StatusMatched,
		"partner": partner,
		"chat_id": session.ID,
	}
	c.setState(domain.StateIdle)
	c.Send(domain.WSResponse{Action: string(domain.MatchFound), Success: true, Payload: found})

	h.opts.Events.Publish(h.ctx, domain.Event{
		Type:      domain.EventMatchFound,
		UserID:    c.userID,
		PartnerID: waiting.UserID,
		ChatID:    session.ID,
		NodeID:    h.opts.NodeID,
		At:        time.Now().UnixMilli(),
		Data:      map[string]interface{}{"session_count": session.SessionCount, "language": target},
	})
	return found, nil
}

func (h *Hub) publicProfile(ctx context.Context, userID, native string) identity.PublicProfile {
	u, err := h.opts.Profiles.Profile(ctx, userID)
	if err != nil {
		logger.Log.Warn("partner profile lookup failed", zap.String("userID", userID), zap.Error(err))
		return identity.PublicProfile{ID: userID, NativeLanguage: native, Online: true}
	}
	p := u.Public()
	p.Online = true
	return p
}

func (h *Hub) cancelMatch(_ context.Context, c *Connection, _ domain.WSRequest) (interface{}, error) {
	h.opts.Queue.Leave(c.userID)
	c.setState(domain.StateIdle)
	return map[string]interface{}{"status": "left"}, nil
}

func (h *Hub) sendMessage(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	session, err := h.opts.Chats.Authorize(ctx, req.ChatID, c.userID)
	if err != nil {
		return nil, err
	}
	msg, err := h.opts.Chats.Append(ctx, req.ChatID, c.userID, req.Content)
	if err != nil {
		return nil, err
	}

	partnerID := session.Partner(c.userID)
	if err := h.Deliver(partnerID, string(domain.NewMessage), msg); err != nil {
		logger.Log.Debug("new_message not delivered", zap.String("to", partnerID), zap.Error(err))
	}

	h.opts.Events.Publish(h.ctx, domain.Event{
		Type:      domain.EventMessageSent,
		UserID:    c.userID,
		PartnerID: partnerID,
		ChatID:    msg.ChatID,
		NodeID:    h.opts.NodeID,
		At:        msg.Timestamp,
		Data:      map[string]interface{}{"message_id": msg.ID},
	})
	return msg, nil
}

func (h *Hub) markRead(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	session, err := h.opts.Chats.Authorize(ctx, req.ChatID, c.userID)
	if err != nil {
		return nil, err
	}
	count, err := h.opts.Chats.MarkRead(ctx, req.ChatID, c.userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	partnerID := session.Partner(c.userID)
	if err := h.Deliver(partnerID, string(domain.MessagesRead), map[string]interface{}{
		"chat_id":   req.ChatID,
		"reader_id": c.userID,
		"count":     count,
		"read_at":   now,
	}); err != nil {
		logger.Log.Debug("messages_read not delivered", zap.String("to", partnerID), zap.Error(err))
	}

	h.opts.Events.Publish(h.ctx, domain.Event{
		Type:      domain.EventChatRead,
		UserID:    c.userID,
		PartnerID: partnerID,
		ChatID:    req.ChatID,
		NodeID:    h.opts.NodeID,
		At:        now,
		Data:      map[string]interface{}{"count": count},
	})
	return map[string]interface{}{"status": "ok", "count": count}, nil
}

func (h *Hub) typing(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	session, err := h.opts.Chats.Authorize(ctx, req.ChatID, c.userID)
	if err != nil {
		return nil, err
	}
	if session.Status == chat.StatusBlocked {
		return silent{}, nil
	}
	_ = h.Deliver(session.Partner(c.userID), string(domain.Typing), map[string]interface{}{
		"chat_id":   req.ChatID,
		"user_id":   c.userID,
		"is_typing": req.IsTyping,
	})
	return silent{}, nil
}

func (h *Hub) signal(ctx context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	env := signaling.Envelope{
		FromUserID: c.userID,
		ToUserID:   req.ToUserID,
		Kind:       signaling.Kind(req.Kind),
		CallID:     req.CallID,
		Payload:    req.Payload,
	}
	if err := h.relay.Relay(ctx, env); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "relayed", "call_id": req.CallID}, nil
}

func validRoom(room string) bool {
	return room != "" && len(room) <= maxRoomName && !strings.ContainsAny(room, " *?[]")
}

func (h *Hub) joinRoomAction(_ context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	if !validRoom(req.Room) {
		return nil, errprocess.Validation("invalid room name")
	}
	h.joinRoom(c, req.Room)
	return map[string]interface{}{"status": "joined", "room": req.Room}, nil
}

func (h *Hub) leaveRoomAction(_ context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	if !h.leaveRoom(c, req.Room) {
		return nil, errprocess.NotFound("not in room")
	}
	return map[string]interface{}{"status": "left", "room": req.Room}, nil
}

func (h *Hub) ping(_ context.Context, c *Connection, req domain.WSRequest) (interface{}, error) {
	h.opts.Registry.Touch(c.userID)
	c.Send(domain.WSResponse{
		Action:    string(domain.Pong),
		Success:   true,
		RequestID: req.RequestID,
		Payload:   map[string]interface{}{"time": time.Now().UnixMilli()},
	})
	return silent{}, nil
}
