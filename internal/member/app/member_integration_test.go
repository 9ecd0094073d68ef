//go:build integration

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"language_exchange_service/internal/member/domain"
	"language_exchange_service/internal/member/repository"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/encrypt"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"
	testtool "language_exchange_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// **Handler**
var memberHandler *MemberGRPCServer

func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	// **啟動 PostgreSQL**
	postgresContainer, postgresHost, postgresPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "postgres:16-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", postgresHost, postgresPort)
	conn := database.Connection{ConnectStr: dsn, RetryCount: 5, RetryInterval: time.Second}

	pool, err := database.NewDatabaseConnection(conn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	gormDB, err := database.NewPGConnection(conn)
	if err != nil {
		log.Fatalf("❌ Failed to open gorm: %v", err)
	}

	redisClient, err := database.NewStandaloneRedisClient(redisHost+":"+redisPort, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	memberRepo := repository.NewMemberRepository(pool)
	if err := memberRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("❌ member schema: %v", err)
	}
	profileRepo := repository.NewProfileRepository(gormDB)
	if err := profileRepo.AutoMigrate(); err != nil {
		log.Fatalf("❌ profile migrate: %v", err)
	}

	memberUsecase := NewMemberUseCase(memberRepo, profileRepo, time.Hour,
		database.NewRedisRepositoryWithClient[domain.MemberSession](redisClient), encrypt.HashPassword)
	memberHandler = &MemberGRPCServer{Usecase: memberUsecase}

	code := m.Run()

	pool.Close()
	_ = redisClient.Close()
	_ = postgresContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)

	os.Exit(code)
}

var (
	email = "testIntegration@integration.com"
	pw    = "!Integration123"
)

func register(t *testing.T, ctx context.Context, mail string) string {
	t.Helper()
	req, err := memberpb.RegisterRequest{
		Email: mail, Password: pw, DisplayName: "Pierre", NativeLanguage: "fr", LearningLanguages: []string{"es"},
	}.ToStruct()
	require.NoError(t, err)
	res, err := memberHandler.Register(ctx, req)
	require.NoError(t, err)
	return res.GetValue()
}

func login(t *testing.T, ctx context.Context, mail string) string {
	t.Helper()
	req, err := memberpb.LoginRequest{Email: mail, Password: pw}.ToStruct()
	require.NoError(t, err)
	res, err := memberHandler.Login(ctx, req)
	require.NoError(t, err)
	return res.GetValue()
}

func TestMemberLifecycle(t *testing.T) {
	ctx := context.Background()
	memberID := register(t, ctx, email)

	t.Run("Email 已存在", func(t *testing.T) {
		req, _ := memberpb.RegisterRequest{
			Email: email, Password: pw, DisplayName: "P", NativeLanguage: "fr", LearningLanguages: []string{"es"},
		}.ToStruct()
		_, err := memberHandler.Register(ctx, req)
		assert.Equal(t, codes.AlreadyExists, status.Code(err))
	})

	t.Run("找到會員", func(t *testing.T) {
		req, _ := memberpb.FindRequest{Email: email}.ToStruct()
		res, err := memberHandler.FindMember(ctx, req)
		require.NoError(t, err)
		p := memberpb.ProfileFromStruct(res)
		assert.Equal(t, memberID, p.ID)
		assert.Equal(t, []string{"es"}, p.LearningLanguages)
	})

	t.Run("密碼錯誤", func(t *testing.T) {
		req, _ := memberpb.LoginRequest{Email: email, Password: "!Wrong123"}.ToStruct()
		_, err := memberHandler.Login(ctx, req)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("登入後 Authenticate, 登出後失效", func(t *testing.T) {
		tok := login(t, ctx, email)

		res, err := memberHandler.Authenticate(ctx, wrapperspb.String(tok))
		require.NoError(t, err)
		assert.Equal(t, "Pierre", memberpb.ProfileFromStruct(res).DisplayName)

		expired, err := memberHandler.CheckSessionTimeout(ctx, wrapperspb.String(tok))
		require.NoError(t, err)
		assert.False(t, expired.GetValue())

		_, err = memberHandler.Logout(ctx, wrapperspb.String(tok))
		require.NoError(t, err)

		_, err = memberHandler.Authenticate(ctx, wrapperspb.String(tok))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("SetOnline 更新 last active", func(t *testing.T) {
		req, _ := memberpb.OnlineRequest{MemberID: memberID, Online: true}.ToStruct()
		_, err := memberHandler.SetOnline(ctx, req)
		require.NoError(t, err)

		res, err := memberHandler.GetProfile(ctx, wrapperspb.String(memberID))
		require.NoError(t, err)
		p := memberpb.ProfileFromStruct(res)
		assert.True(t, p.Online)
		assert.WithinDuration(t, time.Now(), p.LastActive, time.Minute)
	})

	t.Run("會員不存在", func(t *testing.T) {
		_, err := memberHandler.GetProfile(ctx, wrapperspb.String("non-existent-id"))
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = memberHandler.ForceLogout(ctx, wrapperspb.String("non-existent-id"))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}
