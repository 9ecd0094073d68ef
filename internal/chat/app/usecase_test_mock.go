package app

import (
	"context"
	"time"

	"language_exchange_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

// FindByID mock find session by id
func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByPair mock find session by pair key
func (m *MockSessionRepository) FindByPair(ctx context.Context, pairKey string) (*domain.ChatSession, error) {
	args := m.Called(ctx, pairKey)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatSession), args.Error(1)
	}
	return nil, args.Error(1)
}

// Insert mock insert
func (m *MockSessionRepository) Insert(ctx context.Context, session *domain.ChatSession) error {
	return m.Called(ctx, session).Error(0)
}

// UpdateStatus mock update status
func (m *MockSessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// IncrementSessionCount mock inc session count
func (m *MockSessionRepository) IncrementSessionCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// RecordMessage mock record last message
func (m *MockSessionRepository) RecordMessage(ctx context.Context, session *domain.ChatSession, last domain.LastMessage, recipientID string) error {
	return m.Called(ctx, session, last, recipientID).Error(0)
}

// ResetUnread mock reset unread
func (m *MockSessionRepository) ResetUnread(ctx context.Context, session *domain.ChatSession, userID string) error {
	return m.Called(ctx, session, userID).Error(0)
}

// ListByParticipant mock list
func (m *MockSessionRepository) ListByParticipant(ctx context.Context, userID string, status domain.SessionStatus) ([]domain.ChatSession, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]domain.ChatSession), args.Error(1)
}

// MockExportQueue Mock ExportQueue
type MockExportQueue struct {
	mock.Mock
}

// Enqueue mock enqueue
func (m *MockExportQueue) Enqueue(ctx context.Context, job domain.ExportJob) error {
	return m.Called(ctx, job).Error(0)
}

// MockObjectStorage Mock ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

// UploadBytes mock upload
func (m *MockObjectStorage) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error {
	return m.Called(ctx, objectName, data, contentType).Error(0)
}

// PresignGetURL mock presign
func (m *MockObjectStorage) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

// MockOnline Mock OnlineChecker
type MockOnline map[string]bool

// IsOnline lookup
func (m MockOnline) IsOnline(userID string) bool {
	return m[userID]
}
