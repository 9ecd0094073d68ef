package domain

import (
	"encoding/json"

	"language_exchange_service/pkg"
)

// Action websocket action
type Action string

// inbound actions
const (
	FindMatch   Action = "find_match"
	CancelMatch Action = "cancel_match"
	SendMessage Action = "send_message"
	MarkRead    Action = "mark_read"
	Typing      Action = "typing"
	Signal      Action = "signal"
	JoinRoom    Action = "join_room"
	LeaveRoom   Action = "leave_room"
	Ping        Action = "ping"
)

// server pushes
const (
	MatchFound   Action = "match_found"
	NewMessage   Action = "new_message"
	MessagesRead Action = "messages_read"
	UserStatus   Action = "user_status"
	Pong         Action = "pong"
	Error        Action = "error"
)

// WSRequest 前端送來的 JSON, 欄位依 action 使用
type WSRequest struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`

	// find_match
	TargetLanguage string `json:"target_language,omitempty"`

	// send_message / mark_read / typing
	ChatID   string `json:"chat_id,omitempty"`
	Content  string `json:"content,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`

	// signal
	ToUserID string          `json:"to_user_id,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	CallID   string          `json:"call_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// join_room / leave_room
	Room string `json:"room,omitempty"`
}

// WSResponse 回傳給前端
type WSResponse struct {
	Action    string      `json:"action"`
	Success   bool        `json:"success"`
	RequestID string      `json:"request_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ConnState connection state machine
type ConnState int32

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticating
	StateConnected
	StateMatching
	StateIdle
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	case StateMatching:
		return "matching"
	case StateIdle:
		return "idle"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// custom close codes
const (
	CloseAuthenticationFailed = 4001
	CloseReplaced             = 4002
	CloseSlowConsumer         = 4003
)

// NativeRoom room of native speakers of lang
func NativeRoom(lang string) string {
	return "native_" + pkg.NormalizeLanguage(lang)
}

// LearningRoom room of learners of lang
func LearningRoom(lang string) string {
	return "learning_" + pkg.NormalizeLanguage(lang)
}

// LanguageRooms default rooms of a user
func LanguageRooms(native string, learning []string) []string {
	rooms := make([]string, 0, len(learning)+1)
	if n := pkg.NormalizeLanguage(native); n != "" {
		rooms = append(rooms, NativeRoom(n))
	}
	for _, l := range pkg.NormalizeLanguages(learning) {
		rooms = append(rooms, LearningRoom(l))
	}
	return rooms
}
