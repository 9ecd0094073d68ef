package app

import (
	"context"
	"fmt"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/internal/chat/repository"
	"language_exchange_service/pkg/database"
	errprocess "language_exchange_service/pkg/err"

	"github.com/google/uuid"
)

// DownloadURLExpiry presigned transcript url lifetime
const DownloadURLExpiry = 15 * time.Minute

// ExportUseCase transcript export requests
type ExportUseCase interface {
	Request(ctx context.Context, chatID, userID string) (domain.ExportJob, error)
	// Status job state, with a presigned url once done
	Status(ctx context.Context, chatID, jobID, userID string) (domain.ExportJob, error)
}

type exportUseCase struct {
	store   ChatStore
	jobs    repository.ExportJobRepository
	queue   repository.ExportQueue
	objects database.ObjectStorage
	now     func() time.Time
}

// NewExportUseCase create export use case
func NewExportUseCase(store ChatStore, jobs repository.ExportJobRepository, queue repository.ExportQueue, objects database.ObjectStorage) ExportUseCase {
	return &exportUseCase{store: store, jobs: jobs, queue: queue, objects: objects, now: time.Now}
}

func (uc *exportUseCase) Request(ctx context.Context, chatID, userID string) (domain.ExportJob, error) {
	if _, err := uc.store.Authorize(ctx, chatID, userID); err != nil {
		return domain.ExportJob{}, err
	}

	now := uc.now().UnixMilli()
	job := domain.ExportJob{
		ID:          uuid.New().String(),
		ChatID:      chatID,
		RequestedBy: userID,
		Status:      domain.ExportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.jobs.Save(ctx, job); err != nil {
		return domain.ExportJob{}, err
	}
	if err := uc.queue.Enqueue(ctx, job); err != nil {
		job.Status = domain.ExportFailed
		job.Error = "queue unavailable"
		_ = uc.jobs.Save(ctx, job)
		return domain.ExportJob{}, err
	}
	return job, nil
}

func (uc *exportUseCase) Status(ctx context.Context, chatID, jobID, userID string) (domain.ExportJob, error) {
	if _, err := uc.store.Authorize(ctx, chatID, userID); err != nil {
		return domain.ExportJob{}, err
	}
	job, err := uc.jobs.Get(ctx, jobID)
	if err != nil {
		return domain.ExportJob{}, err
	}
	if job.ChatID != chatID {
		return domain.ExportJob{}, errprocess.NotFound("export job not found")
	}
	if job.Status != domain.ExportDone || uc.objects == nil {
		return job, nil
	}

	url, err := uc.objects.PresignGetURL(ctx, job.ObjectName, DownloadURLExpiry)
	if err != nil {
		return domain.ExportJob{}, errprocess.Wrap(errprocess.CodeUnavailable, "object storage unavailable", err)
	}
	job.DownloadURL = url
	return job, nil
}

// TranscriptObjectName object key of a job's transcript
func TranscriptObjectName(job domain.ExportJob) string {
	return fmt.Sprintf("transcripts/%s/%s.json", job.ChatID, job.ID)
}
