package domain

import (
	"strings"
	"time"

	errprocess "language_exchange_service/pkg/err"
)

// Status result of a join
type Status string

const (
	// StatusWaiting entry appended, no partner yet
	StatusWaiting Status = "waiting"
	// StatusMatched partner found
	StatusMatched Status = "matched"
)

// QueueEntry 等待配對的使用者
type QueueEntry struct {
	UserID           string    `json:"user_id"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
	ConnID           string    `json:"conn_id"`
	JoinedAt         time.Time `json:"joined_at"`
}

// Match A is the waiting entry, B the joiner
type Match struct {
	A QueueEntry
	B QueueEntry
}

// MatchResult Join result
type MatchResult struct {
	Status Status
	Match  *Match
}

// Partner return the other side of the match for userID
func (m Match) Partner(userID string) QueueEntry {
	if m.A.UserID == userID {
		return m.B
	}
	return m.A
}

// Validate entry must carry a user and two different languages
func (e QueueEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return errprocess.Validation("user id is required")
	}
	if e.NativeLanguage == "" || e.LearningLanguage == "" {
		return errprocess.Validation("native and target language are required")
	}
	if e.NativeLanguage == e.LearningLanguage {
		return errprocess.Validation("target language must differ from native language")
	}
	return nil
}

// Compatible exact bidirectional language match between two different users
func (e QueueEntry) Compatible(other QueueEntry) bool {
	return e.UserID != other.UserID &&
		e.LearningLanguage == other.NativeLanguage &&
		e.NativeLanguage == other.LearningLanguage
}
