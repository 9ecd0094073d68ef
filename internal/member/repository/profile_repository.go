package repository

import (
	"context"
	"errors"
	"time"

	"language_exchange_service/internal/member/domain"
	errprocess "language_exchange_service/pkg/err"

	"gorm.io/gorm"
)

// ProfileRepository language profile, gorm on postgres
type ProfileRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, memberID string) (*domain.Profile, error)
	// SetOnline update online flag, last active is stamped with at
	SetOnline(ctx context.Context, memberID string, online bool, at time.Time) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository create a ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&domain.Profile{}); err != nil {
		return errprocess.Storage("migrate member_profiles", err)
	}
	return nil
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errprocess.Conflict("profile already exists")
		}
		return errprocess.Storage("create profile", err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, memberID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errprocess.NotFound("member not found")
	}
	if err != nil {
		return nil, errprocess.Storage("get profile", err)
	}
	return &p, nil
}

func (r *profileRepository) SetOnline(ctx context.Context, memberID string, online bool, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Profile{}).
		Where("member_id = ?", memberID).
		Updates(map[string]interface{}{"online": online, "last_active": at})
	if res.Error != nil {
		return errprocess.Storage("update profile online", res.Error)
	}
	if res.RowsAffected == 0 {
		return errprocess.NotFound("member not found")
	}
	return nil
}
