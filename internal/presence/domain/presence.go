package domain

import (
	"context"
	"time"
)

// ConnID index of a live connection in the session router arena
type ConnID string

// Status presence record, also the value of presence:user:<id>
type Status struct {
	UserID     string    `json:"user_id"`
	Online     bool      `json:"online"`
	ConnID     ConnID    `json:"conn_id,omitempty"`
	NodeID     string    `json:"node_id,omitempty"`
	LastActive time.Time `json:"last_active"`
}

// Projection receives presence transitions (redis keys, member profile flag)
type Projection interface {
	Online(ctx context.Context, s Status) error
	Offline(ctx context.Context, s Status) error
	Touch(ctx context.Context, s Status) error
}

// Directory cluster wide lookup for users connected to other nodes
type Directory interface {
	Lookup(ctx context.Context, userID string) (Status, bool, error)
}
