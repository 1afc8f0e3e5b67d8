package entity

import "errors"

var (
	ErrMissingIdentifier = errors.New("payment identifier missing")
	ErrDeclined          = errors.New("payment declined or invalid")
	ErrUnreachable       = errors.New("payment gateway unreachable")
	ErrMalformedResponse = errors.New("malformed gateway response")
	ErrUnexpectedStatus  = errors.New("unexpected gateway status")
	ErrTimeout           = errors.New("payment verification timed out")
)

// Err returns the sentinel error matching the failure kind, or nil.
func (k FailureKind) Err() error {
	switch k {
	case FailureMissingIdentifier:
		return ErrMissingIdentifier
	case FailureDeclined:
		return ErrDeclined
	case FailureUnreachable:
		return ErrUnreachable
	case FailureMalformedResponse:
		return ErrMalformedResponse
	case FailureUnexpectedStatus:
		return ErrUnexpectedStatus
	case FailureTimeout:
		return ErrTimeout
	default:
		return nil
	}
}
