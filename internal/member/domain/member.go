package domain

import (
	"net/mail"
	"strings"
	"time"

	"language_exchange_service/pkg"
	"language_exchange_service/pkg/encrypt"
	errprocess "language_exchange_service/pkg/err"
)

// MemberStatus 用來表示使用者狀態
type MemberStatus int

// 状态: 0=offline, 1=online, 2=ban ,3=delete
const (
	// MemberStatusOffLine 離線
	MemberStatusOffLine MemberStatus = iota
	// MemberStatusOnLine 在線
	MemberStatusOnLine
	// MemberStatusBan 封鎖
	MemberStatusBan
	// MemberStatusDelete 刪除
	MemberStatusDelete
)

const maxDisplayName = 64

// Member 帳號, 存在 postgres member table
type Member struct {
	ID       int64
	MemberID string
	Email    string
	Password string
	Status   MemberStatus
}

// Profile language profile, gorm model
type Profile struct {
	MemberID          string    `gorm:"column:member_id;primaryKey;size:36"`
	DisplayName       string    `gorm:"column:display_name;size:64;not null"`
	NativeLanguage    string    `gorm:"column:native_language;size:16;index;not null"`
	LearningLanguages []string  `gorm:"column:learning_languages;serializer:json"`
	Online            bool      `gorm:"column:online;not null;default:false"`
	LastActive        time.Time `gorm:"column:last_active"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName gorm table
func (Profile) TableName() string {
	return "member_profiles"
}

// MemberSession 用來表示使用者的 Session
type MemberSession struct {
	Token        string    `json:"Token"`
	MemberID     string    `json:"MemberID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
}

// RegisterParam Register input
type RegisterParam struct {
	Email             string
	Password          string
	DisplayName       string
	NativeLanguage    string
	LearningLanguages []string
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// IsExpired 檢查 Session 是否已過期
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// Normalize trim and lower-case languages
func (p RegisterParam) Normalize() RegisterParam {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.NativeLanguage = pkg.NormalizeLanguage(p.NativeLanguage)
	p.LearningLanguages = pkg.NormalizeLanguages(p.LearningLanguages)
	return p
}

// Validate call on a normalized param
func (p RegisterParam) Validate() error {
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errprocess.Validation("invalid email")
	}
	if p.DisplayName == "" || len(p.DisplayName) > maxDisplayName {
		return errprocess.Validation("display name is required, at most 64 characters")
	}
	if p.NativeLanguage == "" {
		return errprocess.Validation("native language is required")
	}
	if len(p.LearningLanguages) == 0 {
		return errprocess.Validation("at least one learning language is required")
	}
	if pkg.Contains(p.LearningLanguages, p.NativeLanguage) {
		return errprocess.Validation("learning languages must differ from native language")
	}
	if err := encrypt.ValidatePasswordStrength(p.Password); err != nil {
		return errprocess.Validation(err.Error())
	}
	return nil
}
