package domain

import (
	"context"
	"time"

	"language_exchange_service/pkg"
)

// User verified identity as seen by the real-time core
type User struct {
	ID                string
	DisplayName       string
	NativeLanguage    string
	LearningLanguages []string
	Online            bool
	LastActive        time.Time
}

// PublicProfile what a partner may see
type PublicProfile struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"display_name"`
	NativeLanguage    string   `json:"native_language"`
	LearningLanguages []string `json:"learning_languages"`
	Online            bool     `json:"online"`
	LastActive        int64    `json:"last_active,omitempty"`
}

// Provider identity lookup owned by member_service
type Provider interface {
	// Authenticate resolve a credential into a user
	Authenticate(ctx context.Context, token string) (User, error)
	Profile(ctx context.Context, userID string) (User, error)
	// SetOnline update online flag and last active
	SetOnline(ctx context.Context, userID string, online bool) error
}

// Learns whether lang is one of the user's learning languages
func (u User) Learns(lang string) bool {
	return pkg.Contains(pkg.NormalizeLanguages(u.LearningLanguages), pkg.NormalizeLanguage(lang))
}

// Public strip private fields
func (u User) Public() PublicProfile {
	p := PublicProfile{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		NativeLanguage:    u.NativeLanguage,
		LearningLanguages: u.LearningLanguages,
		Online:            u.Online,
	}
	if !u.LastActive.IsZero() {
		p.LastActive = u.LastActive.UnixMilli()
	}
	return p
}
