package domain

import (
	"encoding/json"

	errprocess "language_exchange_service/pkg/err"
)

// Kind call setup step
type Kind string

const (
	// KindOffer caller session description
	KindOffer Kind = "offer"
	// KindAnswer callee session description
	KindAnswer Kind = "answer"
	// KindCandidate ICE candidate, either side
	KindCandidate Kind = "candidate"
	// KindEnd hang up
	KindEnd Kind = "end"
)

// push actions emitted by the relay
const (
	ActionSignal      = "signal"
	ActionCallTimeout = "call_timeout"
	ActionCallEnded   = "call_ended"
)

// Envelope relayed verbatim, never persisted
type Envelope struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Kind       Kind            `json:"kind"`
	CallID     string          `json:"call_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// CallNotice payload of call_timeout / call_ended
type CallNotice struct {
	CallID    string `json:"call_id"`
	PartnerID string `json:"partner_id"`
	Reason    string `json:"reason"`
}

// Validate envelope shape
func (e Envelope) Validate() error {
	if e.ToUserID == "" {
		return errprocess.Validation("to_user_id is required")
	}
	if e.ToUserID == e.FromUserID {
		return errprocess.Validation("cannot signal yourself")
	}
	switch e.Kind {
	case KindOffer, KindAnswer, KindCandidate, KindEnd:
		return nil
	}
	return errprocess.Validation("unknown signal kind")
}
