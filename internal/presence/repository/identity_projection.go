package repository

import (
	"context"

	identity "language_exchange_service/internal/identity/domain"
	"language_exchange_service/internal/presence/domain"
)

// IdentityProjection mirror the online flag onto the member profile
type IdentityProjection struct {
	provider identity.Provider
}

// NewIdentityProjection create projection
func NewIdentityProjection(provider identity.Provider) *IdentityProjection {
	return &IdentityProjection{provider: provider}
}

// Online set flag
func (p *IdentityProjection) Online(ctx context.Context, s domain.Status) error {
	return p.provider.SetOnline(ctx, s.UserID, true)
}

// Offline clear flag
func (p *IdentityProjection) Offline(ctx context.Context, s domain.Status) error {
	return p.provider.SetOnline(ctx, s.UserID, false)
}

// Touch no-op, last active is stamped on transitions
func (p *IdentityProjection) Touch(context.Context, domain.Status) error {
	return nil
}
