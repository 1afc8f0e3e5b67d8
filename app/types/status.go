package types

import (
	"errors"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

const maxPaymentIDLength = 256

type PaymentStatusRequest struct {
	PaymentId string
}

func (r *PaymentStatusRequest) GetPaymentId() string {
	if r == nil {
		return ""
	}
	return r.PaymentId
}

// NewPaymentStatusRequestFromContext takes the identifier from the :paymentId
// path segment, falling back to the payment_id or paymentId query parameter.
func NewPaymentStatusRequestFromContext(ctx echo.Context) (*PaymentStatusRequest, error) {
	id := strings.TrimSpace(ctx.Param("paymentId"))
	if id == "" {
		id = strings.TrimSpace(ctx.QueryParam("payment_id"))
	}
	if id == "" {
		id = strings.TrimSpace(ctx.QueryParam("paymentId"))
	}
	return &PaymentStatusRequest{PaymentId: id}, nil
}

func (r *PaymentStatusRequest) Validate() error {
	id := r.GetPaymentId()
	if id == "" {
		return errors.New("payment_id is required")
	}
	if len(id) > maxPaymentIDLength {
		return errors.New("payment_id is too long")
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return errors.New("payment_id contains invalid characters")
	}
	return nil
}
