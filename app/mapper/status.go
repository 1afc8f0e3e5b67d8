package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-payment-status/app/dto"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"google.golang.org/protobuf/types/known/structpb"
)

func OutcomeToResponse(outcome entity.Outcome) *dto.PaymentStatusResponse {
	resp := &dto.PaymentStatusResponse{
		PaymentID: outcome.PaymentID,
		State:     string(outcome.State),
		Terminal:  outcome.State.Terminal(),
		Reason:    outcome.Reason,
		Code:      outcome.Code,
		Kind:      string(outcome.Kind),
		Checks:    outcome.Checks,
	}
	if !outcome.UpdatedAt.IsZero() {
		resp.UpdatedAt = outcome.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if p := outcome.Payload; p != nil {
		resp.Details = &dto.PaymentDetailsResponse{
			Status:         p.Status,
			Message:        p.Message,
			SubscriptionID: p.SubscriptionID,
			PaymentID:      p.PaymentID,
			PaymentMethod:  p.PaymentMethod,
			CompletedAt:    p.CompletedAt,
		}
	}
	return resp
}

func OutcomeToStruct(outcome entity.Outcome) (*structpb.Struct, error) {
	resp := OutcomeToResponse(outcome)
	fields := map[string]interface{}{
		"payment_id": resp.PaymentID,
		"state":      resp.State,
		"terminal":   resp.Terminal,
		"checks":     resp.Checks,
	}
	if resp.Reason != "" {
		fields["reason"] = resp.Reason
	}
	if resp.Code != 0 {
		fields["code"] = resp.Code
	}
	if resp.Kind != "" {
		fields["kind"] = resp.Kind
	}
	if resp.UpdatedAt != "" {
		fields["updated_at"] = resp.UpdatedAt
	}
	if d := resp.Details; d != nil {
		fields["details"] = map[string]interface{}{
			"status":          d.Status,
			"message":         d.Message,
			"subscription_id": d.SubscriptionID,
			"payment_id":      d.PaymentID,
			"payment_method":  d.PaymentMethod,
			"completed_at":    d.CompletedAt,
		}
	}
	return structpb.NewStruct(fields)
}
