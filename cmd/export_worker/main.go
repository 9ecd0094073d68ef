package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	chatapp "language_exchange_service/internal/chat/app"
	chatdomain "language_exchange_service/internal/chat/domain"
	chatrepo "language_exchange_service/internal/chat/repository"
	"language_exchange_service/pkg/config"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ExportWorker, config.EnvConfig.ExportWorkerLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.ExportWorker](config.EnvConfig.ExportWorker, config.EnvConfig.ExportWorkerYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 連線 MongoDB (Chat Store 唯讀使用)
	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    database.MongoURI(cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port),
		RetryCount:    cfg.MongoSQL.RetryCount,
		RetryInterval: database.Seconds(cfg.MongoSQL.RetryInterval),
	}, cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries", zap.Error(err))
	}
	defer mongo.Close(context.Background())
	store := chatapp.NewChatStore(
		chatrepo.NewMongoSessionRepository(mongo.Database),
		chatrepo.NewMongoMessageRepository(mongo.Database),
	)

	// 2. 初始化 MinIO 客戶端
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

	// 3. Redis (job status)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("connect redis", zap.Error(err))
	}
	defer redisClient.Close()
	jobs := chatrepo.NewRedisExportJobRepository(database.NewRedisRepositoryWithClient[chatdomain.ExportJob](redisClient))

	// 4. RabbitMQ consumer
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: database.Seconds(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ 連線失敗", zap.Error(err))
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, database.Seconds(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("取得 RabbitMQ Channel 失敗", zap.Error(err))
	}
	defer rabbitChannel.Close()

	queue := cfg.RabbitMQ.Queue
	if queue == "" {
		queue = chatdomain.ExportQueueName
	}
	rabbit := database.NewRabbitRepository(rabbitChannel)
	if err := rabbit.DeclareQueue(queue); err != nil {
		logger.Log.Fatal("Queue Declare failed", zap.String("queue", queue), zap.Error(err))
	}

	hostname, _ := os.Hostname()
	deliveries, err := rabbit.Consume(queue, "export-worker-"+hostname)
	if err != nil {
		logger.Log.Fatal("consume export queue", zap.Error(err))
	}

	// Run 直到收到訊號或 channel 關閉
	chatapp.NewExportWorker(store, jobs, minioClient).Run(ctx, deliveries)
	logger.Log.Info("export worker stopped")
}
