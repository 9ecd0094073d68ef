package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"language_exchange_service/internal/member/app"
	"language_exchange_service/internal/member/domain"
	"language_exchange_service/internal/member/repository"
	"language_exchange_service/pkg/config"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/encrypt"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MemberService, config.EnvConfig.MemberServiceLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Member](config.EnvConfig.MemberService, config.EnvConfig.MemberServiceYAMLPath)

	pg := cfg.PostgreSQL
	conn := database.Connection{
		ConnectStr:    database.PostgresDSN(pg.User, pg.Password, pg.Host, pg.Port, pg.Database),
		RetryCount:    pg.RetryCount,
		RetryInterval: database.Seconds(pg.RetryInterval),
	}

	// member 帳號 (pgx)
	pool, err := database.NewDatabaseConnection(conn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
			zap.String("host", pg.Host), zap.Error(err))
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	if err := memberRepo.EnsureSchema(context.Background()); err != nil {
		logger.Log.Fatal("create member table", zap.Error(err))
	}

	// language profile (gorm)
	gormDB, err := database.NewPGConnection(conn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	profileRepo := repository.NewProfileRepository(gormDB)
	if err := profileRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("migrate member_profiles", zap.Error(err))
	}

	masterName, sentinel := config.GetRedisSetting()
	redisRepo, err := database.NewRedisRepository[domain.MemberSession](masterName, sentinel, cfg.RedisMember.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis", zap.Error(err))
	}

	usecase := app.NewMemberUseCase(memberRepo, profileRepo, cfg.SessionTTL, redisRepo, encrypt.HashPassword)

	lis, err := net.Listen("tcp", cfg.IP+":"+cfg.Port)
	if err != nil {
		logger.Log.Fatal("Failed to listen", zap.String("port", cfg.Port), zap.Error(err))
	}

	// 建立 gRPC 伺服器
	grpcServer := grpc.NewServer()
	memberpb.RegisterMemberServiceServer(grpcServer, &app.MemberGRPCServer{Usecase: usecase})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("MemberService shutting down")
		grpcServer.GracefulStop()
	}()

	logger.Log.Info("MemberService gRPC server listening", zap.String("port", cfg.Port))
	if err := grpcServer.Serve(lis); err != nil {
		logger.Log.Fatal("Failed to serve gRPC server", zap.Error(err))
	}
}
