package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/pkg/database"
	errprocess "language_exchange_service/pkg/err"

	"github.com/streadway/amqp"
)

const exportJobTTL = 24 * time.Hour

// ExportJobRepository job status store
type ExportJobRepository interface {
	Save(ctx context.Context, job domain.ExportJob) error
	Get(ctx context.Context, jobID string) (domain.ExportJob, error)
}

// ExportQueue hands jobs to export_worker
type ExportQueue interface {
	Enqueue(ctx context.Context, job domain.ExportJob) error
}

type redisExportJobRepository struct {
	repo database.RedisRepository[domain.ExportJob]
}

// NewRedisExportJobRepository jobs live in redis for a day
func NewRedisExportJobRepository(repo database.RedisRepository[domain.ExportJob]) ExportJobRepository {
	return &redisExportJobRepository{repo: repo}
}

func exportKey(jobID string) string {
	return "export:job:" + jobID
}

func (r *redisExportJobRepository) Save(ctx context.Context, job domain.ExportJob) error {
	if err := r.repo.Set(ctx, exportKey(job.ID), job, exportJobTTL); err != nil {
		return errprocess.Storage("save export job", err)
	}
	return nil
}

func (r *redisExportJobRepository) Get(ctx context.Context, jobID string) (domain.ExportJob, error) {
	job, err := r.repo.Get(ctx, exportKey(jobID))
	if errors.Is(err, database.ErrRedisNil) {
		return domain.ExportJob{}, errprocess.NotFound("export job not found")
	}
	if err != nil {
		return domain.ExportJob{}, errprocess.Storage("get export job", err)
	}
	return job, nil
}

type rabbitExportQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitExportQueue declare the queue and return a publisher on it
func NewRabbitExportQueue(rabbit database.RabbitRepo, queue string) (ExportQueue, error) {
	if queue == "" {
		queue = domain.ExportQueueName
	}
	if err := rabbit.DeclareQueue(queue); err != nil {
		return nil, fmt.Errorf("declare queue [%s]: %w", queue, err)
	}
	return &rabbitExportQueue{rabbit: rabbit, queue: queue}, nil
}

func (q *rabbitExportQueue) Enqueue(_ context.Context, job domain.ExportJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	err = q.rabbit.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Body:         body,
	})
	if err != nil {
		return errprocess.Wrap(errprocess.CodeUnavailable, "export queue unavailable", err)
	}
	return nil
}

// MemoryExportJobRepository in-process job store
type MemoryExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]domain.ExportJob
}

// NewMemoryExportJobRepository create empty store
func NewMemoryExportJobRepository() *MemoryExportJobRepository {
	return &MemoryExportJobRepository{jobs: make(map[string]domain.ExportJob)}
}

func (r *MemoryExportJobRepository) Save(_ context.Context, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *MemoryExportJobRepository) Get(_ context.Context, jobID string) (domain.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return domain.ExportJob{}, errprocess.NotFound("export job not found")
	}
	return job, nil
}
