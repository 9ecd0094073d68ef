//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	testtool "language_exchange_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type sample struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestRedisRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	client, err := NewStandaloneRedisClient(host+":"+port, 0)
	require.NoError(t, err)
	repo := NewRedisRepositoryWithClient[sample](client)

	require.NoError(t, repo.Set(ctx, "k", sample{Name: "a", N: 1}, time.Minute))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "a", N: 1}, got)

	ttl, err := repo.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, 0)

	require.NoError(t, repo.Del(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrRedisNil)
}
