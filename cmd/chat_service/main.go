package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatapp "language_exchange_service/internal/chat/app"
	chatdomain "language_exchange_service/internal/chat/domain"
	chatrepo "language_exchange_service/internal/chat/repository"
	chatrouter "language_exchange_service/internal/chat/router"
	identity "language_exchange_service/internal/identity/repository"
	matchmaking "language_exchange_service/internal/matchmaking/app"
	presenceapp "language_exchange_service/internal/presence/app"
	presence "language_exchange_service/internal/presence/domain"
	presencerepo "language_exchange_service/internal/presence/repository"
	realtime "language_exchange_service/internal/realtime/app"
	realtimerepo "language_exchange_service/internal/realtime/repository"
	realtimerouter "language_exchange_service/internal/realtime/router"
	"language_exchange_service/pkg/config"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/logger"
	memberpb "language_exchange_service/pkg/proto/member"
	testtool "language_exchange_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	cfg.Realtime = cfg.Realtime.WithDefaults()

	// 壓測 hub 時用, production 不開
	testtool.StartPprof()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. member_service (Identity Provider)
	memberGRPC, err := database.CreateGRPCClient(cfg.MemberService.Addr(), 30*time.Second)
	if err != nil {
		logger.Log.Fatal("create member GRPC", zap.Error(err))
	}
	defer memberGRPC.Close()
	provider := identity.NewGRPCProvider(memberpb.NewMemberServiceClient(memberGRPC))

	// 2. Chat Store
	var (
		sessions chatrepo.SessionRepository
		messages chatrepo.MessageRepository
	)
	distributed := cfg.Storage != "memory"
	if distributed {
		mongo, err := database.NewMongoDB(ctx, database.Connection{
			ConnectStr:    database.MongoURI(cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port),
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: database.Seconds(cfg.MongoSQL.RetryInterval),
		}, cfg.MongoSQL.Database)
		if err != nil {
			logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.String("host", cfg.MongoSQL.Host), zap.Error(err))
		}
		defer mongo.Close(context.Background())

		if err := chatrepo.EnsureSessionIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Fatal("create chat_sessions indexes", zap.Error(err))
		}
		if err := chatrepo.EnsureMessageIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Fatal("create chat_messages indexes", zap.Error(err))
		}
		sessions = chatrepo.NewMongoSessionRepository(mongo.Database)
		messages = chatrepo.NewMongoMessageRepository(mongo.Database)
	} else {
		logger.Log.Warn("chat storage is in memory, single node only")
		sessions = chatrepo.NewMemorySessionRepository()
		messages = chatrepo.NewMemoryMessageRepository()
	}
	store := chatapp.NewChatStore(sessions, messages)

	// 3. Presence: 本地 registry + member profile 投影, 分散模式加上 redis 投影與目錄
	projections := []presence.Projection{presencerepo.NewIdentityProjection(provider)}
	var (
		directory   presence.Directory
		redisClient *redis.Client
		bus         realtime.Bus
	)
	if distributed {
		masterName, sentinel := config.GetRedisSetting()
		redisClient, err = database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()

		redisPresence := presencerepo.NewRedisPresence(
			database.NewRedisRepositoryWithClient[presence.Status](redisClient), cfg.Realtime.PresenceTTL)
		projections = append(projections, redisPresence)
		directory = redisPresence
		bus = realtimerepo.NewRedisBus(redisClient)
		// 配對池只在本 node, find_match 需 sticky ingress 才能跨全部使用者
		logger.Log.Warn("match queue is node local, route /ws to a single node or use sticky ingress", zap.String("node", cfg.Realtime.NodeID))
	}
	registry := presenceapp.NewRegistry(presenceapp.Options{
		NodeID:      cfg.Realtime.NodeID,
		Projections: projections,
		Directory:   directory,
	})

	// 4. Domain events (kafka), 沒有 broker 時丟棄
	var events realtime.EventPublisher = realtime.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: database.Seconds(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("create kafka writer", zap.Error(err))
		}
		defer writer.Close()
		events = realtimerepo.NewKafkaEvents(writer)
	}

	// 5. Transcript export (rabbitmq + minio + redis job status)
	var exportUC chatapp.ExportUseCase
	if distributed && cfg.RabbitMQ.URL != "" {
		exportUC = newExportUseCase(cfg, store, redisClient)
	} else {
		logger.Log.Info("transcript export disabled")
	}

	// 6. Session Router
	hub := realtime.NewHub(realtime.Options{
		NodeID:   cfg.Realtime.NodeID,
		Config:   cfg.Realtime,
		Registry: registry,
		Queue:    matchmaking.NewMatchQueue(),
		Chats:    store,
		Profiles: provider,
		Bus:      bus,
		Events:   events,
	})
	go func() {
		if err := hub.Run(ctx); err != nil {
			logger.Log.Error("hub bus stopped", zap.Error(err))
		}
	}()

	// 7. Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	chatrouter.RegisterRoutes(r, chatrouter.NewChatHandler(store, chatapp.NewChatQuery(sessions, provider, registry), exportUC))
	realtimerouter.RegisterRoutes(r, hub, provider)

	go func() {
		<-ctx.Done()
		logger.Log.Info("chat service shutting down", zap.String("node", hub.NodeID()))
		hub.Shutdown()
		_ = r.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Log.Info("Chat Service listening", zap.String("port", cfg.Port), zap.String("node", hub.NodeID()), zap.String("storage", cfg.Storage))
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}

func newExportUseCase(cfg config.Chat, store chatapp.ChatStore, redisClient *redis.Client) chatapp.ExportUseCase {
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: database.Seconds(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ 連線失敗", zap.Error(err))
	}
	channel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, database.Seconds(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("RabbitMQ channel", zap.Error(err))
	}
	queue, err := chatrepo.NewRabbitExportQueue(database.NewRabbitRepository(channel), cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Log.Fatal("declare export queue", zap.Error(err))
	}

	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.Error(err))
	}

	jobs := chatrepo.NewRedisExportJobRepository(database.NewRedisRepositoryWithClient[chatdomain.ExportJob](redisClient))
	return chatapp.NewExportUseCase(store, jobs, queue, minioClient)
}
