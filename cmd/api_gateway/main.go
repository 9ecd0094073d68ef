package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "language_exchange_service/cmd/api_gateway/docs" // 引入生成的 Swagger 文档
	"language_exchange_service/internal/api/handlers"
	"language_exchange_service/internal/api/router"
	"language_exchange_service/pkg/config"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.APIGateway](config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayYAMLPath)

	memberGRPC, err := database.CreateGRPCClient(cfg.MemberService.Addr(), 30*time.Second)
	if err != nil {
		logger.Log.Fatal("create member GRPC", zap.Error(err))
	}
	defer memberGRPC.Close()
	memberHandler := handlers.NewMemberHandler(memberpb.NewMemberServiceClient(memberGRPC))

	// 创建 Fiber 应用
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.APIGatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(r, memberHandler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("api gateway shutting down")
		_ = r.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
