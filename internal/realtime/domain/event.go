package domain

// domain event types
const (
	EventMatchFound      = "match.found"
	EventMessageSent     = "message.sent"
	EventChatRead        = "chat.read"
	EventPresenceChanged = "presence.changed"
)

// Event published to the domain event stream
type Event struct {
	Type      string      `json:"type"`
	UserID    string      `json:"user_id"`
	PartnerID string      `json:"partner_id,omitempty"`
	ChatID    string      `json:"chat_id,omitempty"`
	NodeID    string      `json:"node_id,omitempty"`
	At        int64       `json:"at"`
	Data      interface{} `json:"data,omitempty"`
}

// Key partition key, keeps one chat (or one user) on one partition
func (e Event) Key() string {
	if e.ChatID != "" {
		return e.ChatID
	}
	return e.UserID
}

// BusMessage cross node delivery, either UserID or Rooms is set
type BusMessage struct {
	Origin        string     `json:"origin"`
	UserID        string     `json:"user_id,omitempty"`
	Rooms         []string   `json:"rooms,omitempty"`
	ExcludeUserID string     `json:"exclude_user_id,omitempty"`
	Response      WSResponse `json:"response"`
}

// Channel redis channel the message is published on
func (m BusMessage) Channel() string {
	if m.UserID != "" {
		return UserChannel(m.UserID)
	}
	if len(m.Rooms) > 0 {
		return RoomChannel(m.Rooms[0])
	}
	return ""
}

// UserChannel redis channel of one user
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

// RoomChannel redis channel of one room
func RoomChannel(room string) string {
	return "chat:room:" + room
}
