//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"language_exchange_service/internal/chat/domain"
	"language_exchange_service/pkg/database"
	errprocess "language_exchange_service/pkg/err"
	"language_exchange_service/pkg/logger"
	testtool "language_exchange_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var mongoDB *database.MongoDB

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", host, port),
		RetryCount:    5,
		RetryInterval: time.Second,
	}, "chat_test")
	if err != nil {
		log.Fatalf("Failed to connect MongoDB: %v", err)
	}
	if err := EnsureSessionIndexes(ctx, mongoDB.Database); err != nil {
		log.Fatalf("create indexes: %v", err)
	}
	if err := EnsureMessageIndexes(ctx, mongoDB.Database); err != nil {
		log.Fatalf("create indexes: %v", err)
	}

	code := m.Run()
	_ = mongoDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestMongoSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoSessionRepository(mongoDB.Database)

	s := &domain.ChatSession{
		ID:           "s1",
		PairKey:      domain.PairKey("a", "b"),
		ParticipantA: "a",
		ParticipantB: "b",
		Status:       domain.StatusActive,
		LastActivity: 1,
		CreatedAt:    1,
	}
	require.NoError(t, repo.Insert(ctx, s))

	t.Run("unique pair", func(t *testing.T) {
		dup := *s
		dup.ID = "s2"
		assert.ErrorIs(t, repo.Insert(ctx, &dup), errprocess.ErrConflict)
	})

	t.Run("record message bumps recipient unread", func(t *testing.T) {
		require.NoError(t, repo.RecordMessage(ctx, s, domain.LastMessage{Content: "hi", SenderID: "a", Timestamp: 10}, "b"))
		got, err := repo.FindByPair(ctx, s.PairKey)
		require.NoError(t, err)
		assert.Equal(t, 1, got.UnreadFor("b"))
		assert.Equal(t, int64(10), got.LastActivity)
		require.NotNil(t, got.LastMessage)
		assert.Equal(t, "hi", got.LastMessage.Content)

		require.NoError(t, repo.ResetUnread(ctx, s, "b"))
		got, _ = repo.FindByID(ctx, s.ID)
		assert.Zero(t, got.UnreadFor("b"))
	})

	t.Run("older message never overwrites the summary", func(t *testing.T) {
		err := repo.RecordMessage(ctx, s, domain.LastMessage{Content: "late", SenderID: "b", Timestamp: 10}, "a")
		assert.ErrorIs(t, err, errprocess.ErrConflict)

		got, _ := repo.FindByID(ctx, s.ID)
		assert.Equal(t, "hi", got.LastMessage.Content)
		assert.Equal(t, int64(10), got.LastActivity)
		assert.Zero(t, got.UnreadFor("a"))

		missing := *s
		missing.ID = "missing"
		assert.ErrorIs(t, repo.RecordMessage(ctx, &missing, domain.LastMessage{Timestamp: 99}, "b"), errprocess.ErrNotFound)
	})

	t.Run("list by participant", func(t *testing.T) {
		list, err := repo.ListByParticipant(ctx, "b", domain.StatusActive)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "s1", list[0].ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, errprocess.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.StatusArchived), errprocess.ErrNotFound)
	})
}

func TestMongoMessageRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoMessageRepository(mongoDB.Database)

	for i := 1; i <= 4; i++ {
		sender := "a"
		if i == 4 {
			sender = "b"
		}
		require.NoError(t, repo.Insert(ctx, &domain.ChatMessage{
			ID: fmt.Sprintf("m%d", i), ChatID: "c1", SenderID: sender, Content: "x", Timestamp: int64(i),
		}))
	}

	all, err := repo.Find(ctx, "c1", domain.MessageQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "m1", all[0].ID)

	page, err := repo.Find(ctx, "c1", domain.MessageQuery{After: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m2", page[0].ID)

	n, err := repo.MarkRead(ctx, "c1", "b", 99)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.MarkRead(ctx, "c1", "b", 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Delete(ctx, "m4"))
	all, err = repo.Find(ctx, "c1", domain.MessageQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
