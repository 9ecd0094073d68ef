package app

import (
	"container/list"
	"sync"
	"time"

	"language_exchange_service/internal/matchmaking/domain"
	"language_exchange_service/pkg"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/metrics"

	"go.uber.org/zap"
)

// MatchQueue pairs users on exact bidirectional language compatibility
type MatchQueue interface {
	// Join match against the oldest compatible entry or wait at the tail
	Join(entry domain.QueueEntry) (domain.MatchResult, error)
	// Leave remove the user's entry, no-op when absent
	Leave(userID string) bool
	// LeaveOwned remove the entry only if it was queued by connID
	LeaveOwned(userID, connID string) bool
	Len() int
	Waiting(userID string) bool
}

type matchQueue struct {
	mu    sync.Mutex
	order *list.List               // FIFO of domain.QueueEntry
	index map[string]*list.Element // userID -> element
	now   func() time.Time
}

// NewMatchQueue create an empty in-memory queue
func NewMatchQueue() MatchQueue {
	return &matchQueue{
		order: list.New(),
		index: make(map[string]*list.Element),
		now:   time.Now,
	}
}

func (q *matchQueue) Join(entry domain.QueueEntry) (domain.MatchResult, error) {
	entry.NativeLanguage = pkg.NormalizeLanguage(entry.NativeLanguage)
	entry.LearningLanguage = pkg.NormalizeLanguage(entry.LearningLanguage)
	if err := entry.Validate(); err != nil {
		metrics.QueueOperations.WithLabelValues("join", "invalid").Inc()
		return domain.MatchResult{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// 同一使用者只保留一筆, 重新排到隊尾
	q.removeLocked(entry.UserID)

	for e := q.order.Front(); e != nil; e = e.Next() {
		waiting := e.Value.(domain.QueueEntry)
		if !entry.Compatible(waiting) {
			continue
		}
		q.order.Remove(e)
		delete(q.index, waiting.UserID)
		metrics.QueueOperations.WithLabelValues("join", "matched").Inc()
		metrics.QueueWaiting.Set(float64(q.order.Len()))
		logger.Log.Debug("match found",
			zap.String("waiting", waiting.UserID),
			zap.String("joiner", entry.UserID),
			zap.String("languages", entry.NativeLanguage+"<->"+entry.LearningLanguage),
		)
		return domain.MatchResult{
			Status: domain.StatusMatched,
			Match:  &domain.Match{A: waiting, B: entry},
		}, nil
	}

	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = q.now()
	}
	q.index[entry.UserID] = q.order.PushBack(entry)
	metrics.QueueOperations.WithLabelValues("join", "waiting").Inc()
	metrics.QueueWaiting.Set(float64(q.order.Len()))
	return domain.MatchResult{Status: domain.StatusWaiting}, nil
}

func (q *matchQueue) Leave(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.leaveLocked(userID)
}

func (q *matchQueue) LeaveOwned(userID, connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.index[userID]
	if !ok || e.Value.(domain.QueueEntry).ConnID != connID {
		metrics.QueueOperations.WithLabelValues("leave", "noop").Inc()
		return false
	}
	return q.leaveLocked(userID)
}

func (q *matchQueue) leaveLocked(userID string) bool {
	removed := q.removeLocked(userID)
	result := "noop"
	if removed {
		result = "removed"
	}
	metrics.QueueOperations.WithLabelValues("leave", result).Inc()
	metrics.QueueWaiting.Set(float64(q.order.Len()))
	return removed
}

func (q *matchQueue) removeLocked(userID string) bool {
	e, ok := q.index[userID]
	if !ok {
		return false
	}
	q.order.Remove(e)
	delete(q.index, userID)
	return true
}

func (q *matchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

func (q *matchQueue) Waiting(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.index[userID]
	return ok
}
