package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/internal/chat/repository"
	"language_exchange_service/pkg/database"
	"language_exchange_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ExportWorker consume export jobs and write transcripts to object storage
type ExportWorker struct {
	store   ChatStore
	jobs    repository.ExportJobRepository
	objects database.ObjectStorage
	now     func() time.Time
}

// NewExportWorker create worker
func NewExportWorker(store ChatStore, jobs repository.ExportJobRepository, objects database.ObjectStorage) *ExportWorker {
	return &ExportWorker{store: store, jobs: jobs, objects: objects, now: time.Now}
}

// Run 持續消費訊息直到 ctx 結束或 channel 關閉
func (w *ExportWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	logger.Log.Info("export worker started")
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				logger.Log.Info("export delivery channel closed")
				return
			}
			w.handleDelivery(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("export worker stopping")
			return
		}
	}
}

func (w *ExportWorker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job domain.ExportJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Log.Error("解析匯出工作失敗", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	err := w.Process(ctx, job)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	// 第一次失敗重新排入佇列, 第二次標記失敗
	if !d.Redelivered {
		logger.Log.Warn("export failed, requeue", zap.String("jobID", job.ID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	logger.Log.Error("export failed", zap.String("jobID", job.ID), zap.Error(err))
	w.fail(ctx, job, err)
	_ = d.Ack(false)
}

// Process build and upload one transcript
func (w *ExportWorker) Process(ctx context.Context, job domain.ExportJob) error {
	session, err := w.store.Authorize(ctx, job.ChatID, job.RequestedBy)
	if err != nil {
		return err
	}
	messages, err := w.store.ListMessages(ctx, job.ChatID, domain.MessageQuery{})
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(domain.Transcript{
		Session:    *session,
		Messages:   messages,
		ExportedAt: w.now().UnixMilli(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	job.ObjectName = TranscriptObjectName(job)
	if err := w.objects.UploadBytes(ctx, job.ObjectName, body, "application/json"); err != nil {
		return err
	}

	job.Status = domain.ExportDone
	job.Error = ""
	job.UpdatedAt = w.now().UnixMilli()
	if err := w.jobs.Save(ctx, job); err != nil {
		return err
	}
	logger.Log.Info("transcript exported",
		zap.String("jobID", job.ID),
		zap.String("chatID", job.ChatID),
		zap.Int("messages", len(messages)),
	)
	return nil
}

func (w *ExportWorker) fail(ctx context.Context, job domain.ExportJob, cause error) {
	job.Status = domain.ExportFailed
	job.Error = cause.Error()
	job.UpdatedAt = w.now().UnixMilli()
	if err := w.jobs.Save(ctx, job); err != nil {
		logger.Log.Error("save failed export job", zap.String("jobID", job.ID), zap.Error(err))
	}
}
