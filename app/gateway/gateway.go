package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyBody      = errors.New("empty response body")
	ErrUnexpectedBody = errors.New("response body does not match the status shape")
)

const detailStatusSuccess = "SUCCESS"

// StatusClient performs a single status check against the payment gateway.
// Any HTTP response is returned as a StatusResponse; an error means no response
// was obtained.
type StatusClient interface {
	CheckStatus(ctx context.Context, paymentID string) (*StatusResponse, error)
}

type StatusResponse struct {
	StatusCode int
	Body       []byte
}

type StatusBody struct {
	Status         flexString      `json:"status"`
	SubscriptionID flexString      `json:"subscription_id"`
	Message        string          `json:"message"`
	PaymentDetails *PaymentDetails `json:"payment_details"`
	Detail         json.RawMessage `json:"detail"`
}

type PaymentDetails struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	PaymentID     flexString `json:"payment_id"`
	PaymentMethod string     `json:"payment_method"`
	CompletedAt   string     `json:"completed_at"`
}

type errorDetail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DecodeStatusBody parses a gateway response body. It accepts both the success
// shape (status, subscription_id, payment_details) and the error shape
// ({"detail": {...}} or {"detail": "..."}).
func DecodeStatusBody(raw []byte) (*StatusBody, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyBody
	}

	var body StatusBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, fmt.Errorf("decode status body: %w", err)
	}
	return &body, nil
}

// ConfirmsSuccess reports whether a success response carries the success
// shape: one of status, subscription_id or payment_details, or a detail object
// whose status is SUCCESS.
func (b *StatusBody) ConfirmsSuccess() error {
	if b == nil {
		return ErrEmptyBody
	}
	if b.Status != "" || b.SubscriptionID != "" || b.PaymentDetails != nil {
		return nil
	}
	if detail, ok := b.detailObject(); ok && strings.EqualFold(strings.TrimSpace(detail.Status), detailStatusSuccess) {
		return nil
	}
	return ErrUnexpectedBody
}

// DetailStatus returns the status of a {"detail": {...}} body, if any.
func (b *StatusBody) DetailStatus() string {
	if detail, ok := b.detailObject(); ok {
		return strings.TrimSpace(detail.Status)
	}
	return ""
}

func (b *StatusBody) detailObject() (errorDetail, bool) {
	var detail errorDetail
	if b == nil || len(b.Detail) == 0 {
		return detail, false
	}
	if err := json.Unmarshal(b.Detail, &detail); err != nil {
		return detail, false
	}
	return detail, true
}

// ServerMessage returns the human readable message the gateway attached, if any.
func (b *StatusBody) ServerMessage() string {
	if b == nil {
		return ""
	}
	if detail, ok := b.detailObject(); ok && strings.TrimSpace(detail.Message) != "" {
		return strings.TrimSpace(detail.Message)
	}
	if len(b.Detail) > 0 {
		var text string
		if err := json.Unmarshal(b.Detail, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	if msg := strings.TrimSpace(b.Message); msg != "" {
		return msg
	}
	if b.PaymentDetails != nil {
		return strings.TrimSpace(b.PaymentDetails.Message)
	}
	return ""
}

// flexString accepts JSON strings and numbers; gateways disagree on id types.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}
