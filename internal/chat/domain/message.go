package domain

import (
	"sort"
	"strings"

	identity "language_exchange_service/internal/identity/domain"
)

// SessionStatus chat session lifecycle
type SessionStatus string

const (
	// StatusActive normal chat
	StatusActive SessionStatus = "active"
	// StatusArchived hidden from the active list, reactivated on the next match or message
	StatusArchived SessionStatus = "archived"
	// StatusBlocked no new messages
	StatusBlocked SessionStatus = "blocked"
)

// Valid known status
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusBlocked:
		return true
	}
	return false
}

// LastMessage 最後一則訊息摘要
type LastMessage struct {
	Content   string `bson:"content" json:"content"`
	SenderID  string `bson:"sender_id" json:"sender_id"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// ChatSession 1對1 聊天, unique per unordered pair
type ChatSession struct {
	ID           string        `bson:"_id" json:"id"`
	PairKey      string        `bson:"pair_key" json:"-"`
	ParticipantA string        `bson:"participant_a" json:"participant_a"`
	ParticipantB string        `bson:"participant_b" json:"participant_b"`
	Status       SessionStatus `bson:"status" json:"status"`
	LastMessage  *LastMessage  `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastActivity int64         `bson:"last_activity" json:"last_activity"`
	// unread counters per participant, only messages sent by the other side count
	UnreadA      int   `bson:"unread_a" json:"-"`
	UnreadB      int   `bson:"unread_b" json:"-"`
	SessionCount int   `bson:"session_count" json:"session_count"`
	CreatedAt    int64 `bson:"created_at" json:"created_at"`
}

// ChatMessage 表示一則聊天訊息, immutable except the read transition
type ChatMessage struct {
	ID        string `bson:"_id" json:"id"`
	ChatID    string `bson:"chat_id" json:"chat_id"`
	SenderID  string `bson:"sender_id" json:"sender_id"`
	Content   string `bson:"content" json:"content"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
	Read      bool   `bson:"read" json:"read"`
	ReadAt    int64  `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// MessageQuery zero value returns the full history
type MessageQuery struct {
	After int64 `query:"after"`
	Limit int   `query:"limit"`
}

// PairKey order independent key of two users
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// HasParticipant whether userID belongs to the session
func (s *ChatSession) HasParticipant(userID string) bool {
	return userID != "" && (s.ParticipantA == userID || s.ParticipantB == userID)
}

// Partner the other participant
func (s *ChatSession) Partner(userID string) string {
	if s.ParticipantA == userID {
		return s.ParticipantB
	}
	return s.ParticipantA
}

// UnreadFor unread count of userID
func (s *ChatSession) UnreadFor(userID string) int {
	switch userID {
	case s.ParticipantA:
		return s.UnreadA
	case s.ParticipantB:
		return s.UnreadB
	}
	return 0
}

// UnreadField bson field holding userID's counter
func (s *ChatSession) UnreadField(userID string) string {
	if s.ParticipantA == userID {
		return "unread_a"
	}
	return "unread_b"
}

// ChatSummary one row of the active chats list
type ChatSummary struct {
	ChatID        string                 `json:"chat_id"`
	Partner       identity.PublicProfile `json:"partner"`
	PartnerOnline bool                   `json:"partner_online"`
	LastMessage   *LastMessage           `json:"last_message,omitempty"`
	LastActivity  int64                  `json:"last_activity"`
	Unread        int                    `json:"unread"`
	SessionCount  int                    `json:"session_count"`
	Status        SessionStatus          `json:"status"`
}

// RecentMatch a partner the user was paired with inside the recent window
type RecentMatch struct {
	ChatID       string                 `json:"chat_id"`
	Partner      identity.PublicProfile `json:"partner"`
	SessionCount int                    `json:"session_count"`
	CreatedAt    int64                  `json:"created_at"`
	LastActivity int64                  `json:"last_activity"`
}

// LanguageProgress practice with native speakers of one learning language
type LanguageProgress struct {
	Language          string `json:"language"`
	SessionsCompleted int    `json:"sessions_completed"`
	LastPractice      int64  `json:"last_practice,omitempty"`
}

// MatchHistory GET /chats/recent body
type MatchHistory struct {
	RecentMatches    []RecentMatch      `json:"recent_matches"`
	LanguageProgress []LanguageProgress `json:"language_progress"`
}
