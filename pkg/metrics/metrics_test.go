package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	MessagesAppended.Inc()
	ObserveStore("append", time.Now())
	QueueOperations.WithLabelValues("join", "waiting").Inc()

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "langex_messages_appended_total")
	assert.Contains(t, string(body), "langex_chat_store_latency_seconds")
	assert.Contains(t, string(body), `langex_match_queue_operations_total{op="join",result="waiting"}`)
}
