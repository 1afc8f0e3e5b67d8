package service

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSessionNotFound  = errors.New("payment status session not found")
	ErrSessionPending   = errors.New("payment status is still pending")
	ErrSessionCancelled = errors.New("payment status session cancelled")
)
