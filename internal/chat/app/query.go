package app

import (
	"context"
	"sort"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/internal/chat/repository"
	identity "language_exchange_service/internal/identity/domain"
	"language_exchange_service/pkg"
	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
)

// OnlineChecker presence lookup
type OnlineChecker interface {
	IsOnline(userID string) bool
}

// ChatQuery read side of the chat list
type ChatQuery interface {
	// ActiveChats active sessions of userID, most recent activity first
	ActiveChats(ctx context.Context, userID string) ([]domain.ChatSummary, error)
	// Partner resolve a chat partner, NOT_FOUND for an unknown member
	Partner(ctx context.Context, partnerID string) (identity.User, error)
	// MatchHistory recent matches + per learning language session totals
	MatchHistory(ctx context.Context, userID string) (*domain.MatchHistory, error)
}

const (
	recentMatchWindow = 30 * 24 * time.Hour
	recentMatchLimit  = 5
)

type chatQuery struct {
	sessions repository.SessionRepository
	profiles identity.Provider
	online   OnlineChecker
	now      func() time.Time
}

// NewChatQuery create chat query
func NewChatQuery(sessions repository.SessionRepository, profiles identity.Provider, online OnlineChecker) ChatQuery {
	return &chatQuery{sessions: sessions, profiles: profiles, online: online, now: time.Now}
}

func (q *chatQuery) ActiveChats(ctx context.Context, userID string) ([]domain.ChatSummary, error) {
	sessions, err := q.sessions.ListByParticipant(ctx, userID, domain.StatusActive)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChatSummary, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		partnerID := s.Partner(userID)

		partner := identity.PublicProfile{ID: partnerID}
		if u, err := q.profiles.Profile(ctx, partnerID); err == nil {
			partner = u.Public()
		} else {
			logger.Log.Warn("partner profile lookup failed", zap.String("partnerID", partnerID), zap.Error(err))
		}
		online := q.online.IsOnline(partnerID)
		partner.Online = online

		out = append(out, domain.ChatSummary{
			ChatID:        s.ID,
			Partner:       partner,
			PartnerOnline: online,
			LastMessage:   s.LastMessage,
			LastActivity:  s.LastActivity,
			Unread:        s.UnreadFor(userID),
			SessionCount:  s.SessionCount,
			Status:        s.Status,
		})
	}
	return out, nil
}

func (q *chatQuery) Partner(ctx context.Context, partnerID string) (identity.User, error) {
	return q.profiles.Profile(ctx, partnerID)
}

func (q *chatQuery) MatchHistory(ctx context.Context, userID string) (*domain.MatchHistory, error) {
	user, err := q.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := q.sessions.ListByParticipant(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	learning := pkg.NormalizeLanguages(user.LearningLanguages)
	progress := make(map[string]*domain.LanguageProgress, len(learning))
	history := &domain.MatchHistory{
		RecentMatches:    []domain.RecentMatch{},
		LanguageProgress: make([]domain.LanguageProgress, 0, len(learning)),
	}
	for _, lang := range learning {
		progress[lang] = &domain.LanguageProgress{Language: lang}
	}

	since := q.now().Add(-recentMatchWindow).UnixMilli()
	for i := range sessions {
		s := &sessions[i]
		partnerID := s.Partner(userID)
		partner := identity.PublicProfile{ID: partnerID}
		if u, err := q.profiles.Profile(ctx, partnerID); err == nil {
			partner = u.Public()
		} else {
			logger.Log.Warn("partner profile lookup failed", zap.String("partnerID", partnerID), zap.Error(err))
		}

		// 對方的母語就是這段 session 練習的語言
		if p, ok := progress[pkg.NormalizeLanguage(partner.NativeLanguage)]; ok {
			p.SessionsCompleted += s.SessionCount
			if s.SessionCount > 0 && s.LastActivity > p.LastPractice {
				p.LastPractice = s.LastActivity
			}
		}
		if s.CreatedAt >= since {
			history.RecentMatches = append(history.RecentMatches, domain.RecentMatch{
				ChatID:       s.ID,
				Partner:      partner,
				SessionCount: s.SessionCount,
				CreatedAt:    s.CreatedAt,
				LastActivity: s.LastActivity,
			})
		}
	}

	sort.SliceStable(history.RecentMatches, func(i, j int) bool {
		return history.RecentMatches[i].CreatedAt > history.RecentMatches[j].CreatedAt
	})
	if len(history.RecentMatches) > recentMatchLimit {
		history.RecentMatches = history.RecentMatches[:recentMatchLimit]
	}
	for _, lang := range learning {
		history.LanguageProgress = append(history.LanguageProgress, *progress[lang])
	}
	return history, nil
}
