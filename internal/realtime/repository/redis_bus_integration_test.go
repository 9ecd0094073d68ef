//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"language_exchange_service/internal/realtime/domain"
	"language_exchange_service/pkg/database"
	testtool "language_exchange_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisBusFanOut(t *testing.T) {
	ctx := context.Background()
	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	client, err := database.NewStandaloneRedisClient(host+":"+port, 0)
	require.NoError(t, err)
	defer client.Close()

	bus := NewRedisBus(client)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	got := make(chan domain.BusMessage, 4)
	go func() { _ = bus.Run(runCtx, func(m domain.BusMessage) { got <- m }) }()

	// 等 pattern subscription 生效
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumPat(ctx).Result()
		return err == nil && n > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, domain.BusMessage{
		Origin:   "node-a",
		UserID:   "u1",
		Response: domain.WSResponse{Action: "new_message", Success: true},
	}))
	require.NoError(t, bus.Publish(ctx, domain.BusMessage{
		Origin:   "node-a",
		Rooms:    []string{"native_fr"},
		Response: domain.WSResponse{Action: "user_status", Success: true},
	}))

	for _, action := range []string{"new_message", "user_status"} {
		select {
		case m := <-got:
			assert.Equal(t, action, m.Response.Action)
			assert.Equal(t, "node-a", m.Origin)
		case <-time.After(5 * time.Second):
			t.Fatalf("no bus message for %s", action)
		}
	}
}
