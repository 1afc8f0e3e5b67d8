package poller

import (
	"fmt"
	"net/http"

	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/gateway"
)

type Predicate func(resp *gateway.StatusResponse) bool

// Rules decide how a gateway response moves a session. Success is checked
// first, then failure, then pending; anything unmatched is a terminal failure.
type Rules struct {
	IsSuccess Predicate
	IsFailure Predicate
	IsPending Predicate
}

// DefaultRules: 200 confirmed, 400 declined or unknown id, 409 processed but
// not yet durably recorded.
func DefaultRules() Rules {
	return StatusCodeRules(http.StatusOK, http.StatusBadRequest, http.StatusConflict)
}

func StatusCodeRules(success, failure, pending int) Rules {
	return Rules{
		IsSuccess: statusCode(success),
		IsFailure: statusCode(failure),
		IsPending: statusCode(pending),
	}
}

func statusCode(code int) Predicate {
	return func(resp *gateway.StatusResponse) bool {
		return resp.StatusCode == code
	}
}

func never(*gateway.StatusResponse) bool { return false }

func (r Rules) normalized() Rules {
	if r.IsSuccess == nil && r.IsFailure == nil && r.IsPending == nil {
		return DefaultRules()
	}
	if r.IsSuccess == nil {
		r.IsSuccess = never
	}
	if r.IsFailure == nil {
		r.IsFailure = never
	}
	if r.IsPending == nil {
		r.IsPending = never
	}
	return r
}

// Interpret maps one check result to an outcome. A StatePolling outcome means
// the session keeps going.
func (r Rules) Interpret(paymentID string, resp *gateway.StatusResponse, err error) entity.Outcome {
	r = r.normalized()

	if err != nil {
		return entity.Failed(paymentID, entity.FailureUnreachable, 0, err.Error())
	}
	if resp == nil {
		return entity.Failed(paymentID, entity.FailureMalformedResponse, 0, "Empty response from payment gateway")
	}

	code := resp.StatusCode
	switch {
	case r.IsSuccess(resp):
		body, decodeErr := gateway.DecodeStatusBody(resp.Body)
		if decodeErr != nil {
			return entity.Failed(paymentID, entity.FailureMalformedResponse, code,
				fmt.Sprintf("Unexpected response from payment gateway (%d): %v", code, decodeErr))
		}
		if shapeErr := body.ConfirmsSuccess(); shapeErr != nil {
			return entity.Failed(paymentID, entity.FailureMalformedResponse, code,
				fmt.Sprintf("Unexpected response from payment gateway (%d): %v", code, shapeErr))
		}
		return entity.Succeeded(paymentID, code, payloadFromBody(body))
	case r.IsFailure(resp):
		reason := entity.MessageDeclined
		if body, decodeErr := gateway.DecodeStatusBody(resp.Body); decodeErr == nil {
			if msg := body.ServerMessage(); msg != "" {
				reason = msg
			}
		}
		return entity.Failed(paymentID, entity.FailureDeclined, code, reason)
	case r.IsPending(resp):
		pending := entity.Pending(paymentID)
		pending.Code = code
		return pending
	default:
		return entity.Failed(paymentID, entity.FailureUnexpectedStatus, code,
			fmt.Sprintf("Payment gateway returned unexpected status %d", code))
	}
}

func payloadFromBody(body *gateway.StatusBody) *entity.Payload {
	payload := &entity.Payload{
		Status:         body.Status.String(),
		Message:        body.ServerMessage(),
		SubscriptionID: body.SubscriptionID.String(),
	}
	if payload.Status == "" {
		payload.Status = body.DetailStatus()
	}
	if details := body.PaymentDetails; details != nil {
		payload.PaymentID = details.PaymentID.String()
		payload.PaymentMethod = details.PaymentMethod
		payload.CompletedAt = details.CompletedAt
		if payload.Status == "" {
			payload.Status = details.Status
		}
	}
	return payload
}
