package entity

import (
	"strings"
	"time"
)

type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further automatic transition can leave s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureMissingIdentifier FailureKind = "missing_identifier"
	FailureDeclined          FailureKind = "declined"
	FailureUnreachable       FailureKind = "unreachable"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureUnexpectedStatus  FailureKind = "unexpected_status"
	FailureTimeout           FailureKind = "timeout"
)

const (
	MessageMissingIdentifier = "Payment ID is missing"
	MessageDeclined          = "Payment verification failed"
	MessageTimeout           = "Payment verification timed out. Please contact support with your payment ID."
)

// Payload holds the optional details reported with a confirmed payment.
type Payload struct {
	Status         string
	Message        string
	SubscriptionID string
	PaymentID      string
	PaymentMethod  string
	CompletedAt    string
}

func (p *Payload) Empty() bool {
	return p == nil || (p.SubscriptionID == "" && p.PaymentID == "" && p.PaymentMethod == "" && p.CompletedAt == "")
}

type Outcome struct {
	PaymentID string
	State     State
	Payload   *Payload
	Reason    string
	Code      int
	Kind      FailureKind
	Checks    int
	UpdatedAt time.Time
}

func Pending(paymentID string) Outcome {
	return Outcome{PaymentID: paymentID, State: StatePolling, UpdatedAt: time.Now().UTC()}
}

func Succeeded(paymentID string, code int, payload *Payload) Outcome {
	return Outcome{
		PaymentID: paymentID,
		State:     StateSucceeded,
		Payload:   payload,
		Code:      code,
		UpdatedAt: time.Now().UTC(),
	}
}

func Failed(paymentID string, kind FailureKind, code int, reason string) Outcome {
	return Outcome{
		PaymentID: paymentID,
		State:     StateFailed,
		Reason:    reason,
		Code:      code,
		Kind:      kind,
		UpdatedAt: time.Now().UTC(),
	}
}

// NormalizePaymentID trims the identifier taken from a path segment or query string.
func NormalizePaymentID(raw string) string {
	return strings.TrimSpace(raw)
}
