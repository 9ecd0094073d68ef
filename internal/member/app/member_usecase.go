package app

import (
	"context"
	"errors"
	"time"

	"language_exchange_service/internal/member/domain"
	"language_exchange_service/internal/member/repository"
	"language_exchange_service/pkg/database"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	"language_exchange_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, param domain.RegisterParam) (string, error)
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, memberID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) (string, error)

	// Authenticate token 有效且 redis session 仍存在
	Authenticate(ctx context.Context, token string) (*domain.Profile, error)
	GetProfile(ctx context.Context, memberID string) (*domain.Profile, error)
	SetOnline(ctx context.Context, memberID string, online bool) error
}

// HashFunc password hasher, tests swap it
type HashFunc func(password string) (string, error)

type memberUseCase struct {
	memberRepo  repository.MemberRepository
	profileRepo repository.ProfileRepository
	sessionTTL  time.Duration
	redisRepo   database.RedisRepository[domain.MemberSession]
	hash        HashFunc
	now         func() time.Time
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	profileRepo repository.ProfileRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	hash HashFunc,
) MemberUseCase {
	if sessionTTL <= 0 {
		sessionTTL = token.TokenExpiration
	}
	return &memberUseCase{
		memberRepo:  memberRepo,
		profileRepo: profileRepo,
		sessionTTL:  sessionTTL,
		redisRepo:   redisRepo,
		hash:        hash,
		now:         time.Now,
	}
}

// Register 建立帳號與 language profile, 回傳 memberID
func (m *memberUseCase) Register(ctx context.Context, param domain.RegisterParam) (string, error) {
	param = param.Normalize()
	if err := param.Validate(); err != nil {
		return "", err
	}

	// 檢查 email 是否已存在
	_, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &param.Email})
	switch {
	case err == nil:
		return "", errprocess.Conflict("email already exists")
	case !errors.Is(err, errprocess.ErrNotFound):
		return "", err
	}

	pw, err := m.hash(param.Password)
	if err != nil {
		logger.Log.Error("hash password", zap.String("email", param.Email), zap.Error(err))
		return "", err
	}

	member := domain.Member{
		MemberID: uuid.New().String(),
		Email:    param.Email,
		Password: pw,
		Status:   domain.MemberStatusOffLine,
	}
	if err := m.memberRepo.CreateUser(ctx, &member); err != nil {
		return "", err
	}

	profile := domain.Profile{
		MemberID:          member.MemberID,
		DisplayName:       param.DisplayName,
		NativeLanguage:    param.NativeLanguage,
		LearningLanguages: param.LearningLanguages,
		LastActive:        m.now(),
	}
	if err := m.profileRepo.Create(ctx, &profile); err != nil {
		// member row 已存在, 以 delete 狀態停用避免半註冊帳號可登入
		member.Status = domain.MemberStatusDelete
		if rollbackErr := m.memberRepo.UpdateMemberStatus(ctx, &member); rollbackErr != nil {
			logger.Log.Error("disable half registered member", zap.String("memberID", member.MemberID), zap.Error(rollbackErr))
		}
		return "", err
	}

	logger.Log.Info("member registered", zap.String("memberID", member.MemberID), zap.String("native", profile.NativeLanguage))
	return member.MemberID, nil
}

// FindMember 用 id / member_id / email 尋找使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// Login 驗證密碼後發 JWT, session 存 redis
func (m *memberUseCase) Login(ctx context.Context, email, password string) (string, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		if errors.Is(err, errprocess.ErrNotFound) {
			logger.Log.Warn("login unknown email", zap.String("email", email))
			return "", errprocess.Authentication("invalid email or password")
		}
		return "", err
	}

	switch member.Status {
	case domain.MemberStatusBan:
		return "", errprocess.Authorization("member is banned")
	case domain.MemberStatusDelete:
		return "", errprocess.Authentication("invalid email or password")
	}

	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Warn("password can't match", zap.String("memberID", member.MemberID))
		return "", errprocess.Authentication("invalid email or password")
	}

	t, err := token.GenerateJWTWrapper(member.MemberID, string(token.RoleMember))
	if err != nil {
		return "", errprocess.Wrap(errprocess.CodeInternal, "generate token", err)
	}

	now := m.now()
	session := domain.MemberSession{
		Token:        t,
		MemberID:     member.MemberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}
	if err := m.redisRepo.Set(ctx, member.MemberID, session, m.sessionTTL); err != nil {
		return "", errprocess.Storage("save session", err)
	}

	member.Status = domain.MemberStatusOnLine
	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}

	return t, nil
}

// Logout 清除 session
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	claims, err := token.ParseJWTWrapper(t)
	if err != nil {
		logger.Log.Warn("logout with invalid token", zap.Error(err))
		return errprocess.Authentication("invalid token")
	}
	return m.ForceLogout(ctx, claims.MemberID)
}

// ForceLogout 直接把該 memberID 的 session 清除
func (m *memberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, memberID); err != nil {
		return errprocess.Storage("delete session", err)
	}

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// CheckSessionTimeout true = session 已過期或不存在
func (m *memberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	claims, err := token.ParseJWTWrapper(t)
	if err != nil {
		return true, errprocess.Authentication("invalid token")
	}

	ttl, err := m.redisRepo.GetTTL(ctx, claims.MemberID)
	if err != nil {
		return true, errprocess.Storage("session ttl", err)
	}
	return ttl <= 0, nil
}

// ReconnectSession 更新 last activity 並延長 session
func (m *memberUseCase) ReconnectSession(ctx context.Context, t string) (string, error) {
	session, err := m.session(ctx, t)
	if err != nil {
		return "", err
	}

	now := m.now()
	session.LastActivity = now
	session.ExpiredAt = now.Add(m.sessionTTL)
	if err := m.redisRepo.Set(ctx, session.MemberID, session, m.sessionTTL); err != nil {
		return "", errprocess.Storage("extend session", err)
	}
	return session.Token, nil
}

func (m *memberUseCase) Authenticate(ctx context.Context, t string) (*domain.Profile, error) {
	session, err := m.session(ctx, t)
	if err != nil {
		return nil, err
	}

	profile, err := m.profileRepo.Get(ctx, session.MemberID)
	if errors.Is(err, errprocess.ErrNotFound) {
		return nil, errprocess.Authentication("member not found")
	}
	return profile, err
}

func (m *memberUseCase) GetProfile(ctx context.Context, memberID string) (*domain.Profile, error) {
	return m.profileRepo.Get(ctx, memberID)
}

// SetOnline presence transition, last active 同步更新
func (m *memberUseCase) SetOnline(ctx context.Context, memberID string, online bool) error {
	if err := m.profileRepo.SetOnline(ctx, memberID, online, m.now()); err != nil {
		return err
	}
	logger.Log.Debug("member online changed", zap.String("memberID", memberID), zap.Bool("online", online))
	return nil
}

// session token 必須與 redis 中該 member 的 session 相同
func (m *memberUseCase) session(ctx context.Context, t string) (domain.MemberSession, error) {
	t = token.StripBearer(t)
	claims, err := token.ParseJWTWrapper(t)
	if err != nil {
		return domain.MemberSession{}, errprocess.Authentication("invalid token")
	}

	session, err := m.redisRepo.Get(ctx, claims.MemberID)
	if errors.Is(err, database.ErrRedisNil) {
		return domain.MemberSession{}, errprocess.Authentication("session expired")
	}
	if err != nil {
		return domain.MemberSession{}, errprocess.Wrap(errprocess.CodeUnavailable, "session store unavailable", err)
	}
	if session.Token != t || session.IsExpired() {
		return domain.MemberSession{}, errprocess.Authentication("session expired")
	}
	return session, nil
}
