//go:build e2e
// +build e2e

package e2e

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

const gatewayMockAddr = "127.0.0.1:38084"

// Identifiers understood by the gateway mock. The service under test must run
// with GATEWAY_BASE_URL=http://127.0.0.1:38084.
const (
	gatewayPaymentSucceeded = "e2e-succeeded"
	gatewayPaymentDeclined  = "e2e-declined"
	gatewayPaymentPending   = "e2e-pending-then-succeeded"
	gatewayPaymentStuck     = "e2e-stuck"
	gatewayPaymentBroken    = "e2e-broken"
)

type gatewayMock struct {
	mu    sync.Mutex
	calls map[string]int
}

func (g *gatewayMock) status(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))

	g.mu.Lock()
	g.calls[id]++
	calls := g.calls[id]
	g.mu.Unlock()

	switch {
	case id == gatewayPaymentSucceeded, id == gatewayPaymentPending && calls >= 3:
		return c.JSON(http.StatusOK, map[string]any{
			"status":          "success",
			"subscription_id": "sub-" + id,
			"payment_details": map[string]any{
				"status":         "completed",
				"payment_id":     id,
				"payment_method": "card",
				"completed_at":   "2026-10-18T10:00:00Z",
			},
		})
	case id == gatewayPaymentDeclined:
		return c.JSON(http.StatusBadRequest, map[string]any{
			"detail": map[string]any{"status": "failed", "message": "Card declined by issuer"},
		})
	case id == gatewayPaymentPending, id == gatewayPaymentStuck:
		return c.JSON(http.StatusConflict, map[string]any{
			"detail": map[string]any{"status": "pending", "message": "Payment is still processing"},
		})
	case id == gatewayPaymentBroken:
		return c.String(http.StatusOK, "not json")
	default:
		return c.JSON(http.StatusNotFound, map[string]any{"detail": "payment not found"})
	}
}

func startGatewayMock(addr string) (*echo.Echo, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mock := &gatewayMock{calls: make(map[string]int)}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Listener = listener
	e.GET("/paymentstatus/:id", mock.status)

	go func() {
		_ = e.Start("")
	}()
	return e, nil
}
