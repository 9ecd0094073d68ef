package app

import (
	"context"
	"time"

	"language_exchange_service/internal/realtime/domain"
)

// Transport one live websocket, satisfied by *websocket.Conn
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Bus cross node fan-out
type Bus interface {
	Publish(ctx context.Context, msg domain.BusMessage) error
	// Run deliver every message from the other nodes to handler until ctx is done
	Run(ctx context.Context, handler func(domain.BusMessage)) error
}

// EventPublisher domain event stream, must not block the caller
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// NopPublisher drops events
type NopPublisher struct{}

// Publish drop
func (NopPublisher) Publish(context.Context, domain.Event) {}
