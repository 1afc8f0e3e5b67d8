//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	grpcserver "github.com/vibast-solutions/ms-go-payment-status/app/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	defaultHTTPBase = "http://localhost:38080"
	defaultGRPCAddr = "localhost:39090"
)

type statusPayload struct {
	PaymentID string `json:"payment_id"`
	State     string `json:"state"`
	Terminal  bool   `json:"terminal"`
	Reason    string `json:"reason"`
	Code      int    `json:"code"`
	Kind      string `json:"kind"`
	Details   *struct {
		SubscriptionID string `json:"subscription_id"`
		PaymentMethod  string `json:"payment_method"`
	} `json:"details"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *httpClient) do(t *testing.T, method, path string) (*http.Response, []byte) {
	return c.doWithAPIKey(t, method, path, statusCallerAPIKey())
}

func (c *httpClient) doWithAPIKey(t *testing.T, method, path, apiKey string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func (c *httpClient) awaitTerminal(t *testing.T, paymentID string, timeout time.Duration) statusPayload {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		resp, body := c.do(t, http.MethodGet, "/api/payments/"+paymentID+"/status")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload statusPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("json unmarshal failed: %v", err)
		}
		if payload.Terminal {
			return payload
		}
		if time.Now().After(deadline) {
			t.Fatalf("payment %s still %s after %s", paymentID, payload.State, timeout)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

func dialStatusGRPC(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc dial failed: %v", err)
	}
	return conn
}

func grpcContextWithAPIKey(parent context.Context, apiKey string) context.Context {
	if apiKey == "" {
		return parent
	}
	return metadata.AppendToOutgoingContext(parent, "x-api-key", apiKey)
}

func TestPaymentStatusE2E(t *testing.T) {
	httpBase := os.Getenv("PAYMENT_STATUS_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultHTTPBase
	}
	grpcAddr := os.Getenv("PAYMENT_STATUS_GRPC_ADDR")
	if grpcAddr == "" {
		grpcAddr = defaultGRPCAddr
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	conn := dialStatusGRPC(t, grpcAddr)
	defer conn.Close()
	grpcClient := grpcserver.NewPaymentStatusServiceClient(conn)

	t.Run("HTTPUnauthorizedMissingAPIKey", func(t *testing.T) {
		resp, _ := client.doWithAPIKey(t, http.MethodGet, "/api/payments/"+gatewayPaymentSucceeded+"/status", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPForbiddenInsufficientAccess", func(t *testing.T) {
		resp, _ := client.doWithAPIKey(t, http.MethodGet, "/api/payments/"+gatewayPaymentSucceeded+"/status", statusNoAccessAPIKey())
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("GRPCUnauthorizedMissingAPIKey", func(t *testing.T) {
		_, err := grpcClient.GetPaymentStatus(context.Background(), wrapperspb.String(gatewayPaymentSucceeded))
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("GRPCForbiddenInsufficientAccess", func(t *testing.T) {
		ctx := grpcContextWithAPIKey(context.Background(), statusNoAccessAPIKey())
		_, err := grpcClient.GetPaymentStatus(ctx, wrapperspb.String(gatewayPaymentSucceeded))
		if status.Code(err) != codes.PermissionDenied {
			t.Fatalf("expected PermissionDenied, got %v", err)
		}
	})

	t.Run("HTTPMissingIdentifierPage", func(t *testing.T) {
		resp, body := client.doWithAPIKey(t, http.MethodGet, "/", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if !strings.Contains(string(body), "Payment ID is missing") {
			t.Fatalf("expected missing id message, got %s", string(body))
		}
	})

	t.Run("HTTPSucceededWithDetails", func(t *testing.T) {
		resp, body := client.doWithAPIKey(t, http.MethodGet, "/"+gatewayPaymentSucceeded, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}

		payload := client.awaitTerminal(t, gatewayPaymentSucceeded, 15*time.Second)
		if payload.State != "succeeded" {
			t.Fatalf("expected succeeded, got %+v", payload)
		}
		if payload.Details == nil || payload.Details.SubscriptionID != "sub-"+gatewayPaymentSucceeded {
			t.Fatalf("expected subscription details, got %+v", payload.Details)
		}

		_, page := client.doWithAPIKey(t, http.MethodGet, "/?payment_id="+gatewayPaymentSucceeded, "")
		if !strings.Contains(string(page), "Payment Successful!") {
			t.Fatalf("expected success page, got %s", string(page))
		}
	})

	t.Run("HTTPContinueRedirectsToDashboard", func(t *testing.T) {
		resp, _ := client.doWithAPIKey(t, http.MethodGet, "/payments/continue?payment_id="+gatewayPaymentSucceeded, "")
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); !strings.Contains(loc, "/dashboard") {
			t.Fatalf("expected dashboard redirect, got %q", loc)
		}
	})

	t.Run("HTTPDeclinedShowsServerMessage", func(t *testing.T) {
		client.doWithAPIKey(t, http.MethodGet, "/"+gatewayPaymentDeclined, "")

		payload := client.awaitTerminal(t, gatewayPaymentDeclined, 15*time.Second)
		if payload.State != "failed" || payload.Kind != "declined" || payload.Code != http.StatusBadRequest {
			t.Fatalf("unexpected declined outcome: %+v", payload)
		}
		if payload.Reason != "Card declined by issuer" {
			t.Fatalf("expected server message, got %q", payload.Reason)
		}

		resp, _ := client.doWithAPIKey(t, http.MethodGet, "/payments/continue?payment_id="+gatewayPaymentDeclined, "")
		if loc := resp.Header.Get("Location"); !strings.Contains(loc, "/checkout") {
			t.Fatalf("expected checkout redirect, got %q", loc)
		}
	})

	t.Run("HTTPMalformedSuccessBody", func(t *testing.T) {
		client.do(t, http.MethodGet, "/api/payments/"+gatewayPaymentBroken+"/status")

		payload := client.awaitTerminal(t, gatewayPaymentBroken, 15*time.Second)
		if payload.State != "failed" || payload.Kind != "malformed_response" {
			t.Fatalf("unexpected outcome: %+v", payload)
		}
	})

	t.Run("GRPCWaitPendingThenSucceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(grpcContextWithAPIKey(context.Background(), statusCallerAPIKey()), 60*time.Second)
		defer cancel()

		resp, err := grpcClient.WaitPaymentStatus(ctx, wrapperspb.String(gatewayPaymentPending))
		if err != nil {
			t.Fatalf("grpc wait failed: %v", err)
		}
		if state := resp.GetFields()["state"].GetStringValue(); state != "succeeded" {
			t.Fatalf("expected succeeded, got %s", state)
		}
		if checks := resp.GetFields()["checks"].GetNumberValue(); checks != 3 {
			t.Fatalf("expected 3 checks, got %v", checks)
		}
	})

	t.Run("GRPCWaitDeadlineExceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(grpcContextWithAPIKey(context.Background(), statusCallerAPIKey()), time.Second)
		defer cancel()

		_, err := grpcClient.WaitPaymentStatus(ctx, wrapperspb.String(gatewayPaymentStuck))
		if code := status.Code(err); code != codes.DeadlineExceeded {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("GRPCCancelSession", func(t *testing.T) {
		ctx := grpcContextWithAPIKey(context.Background(), statusCallerAPIKey())

		if _, err := grpcClient.GetPaymentStatus(ctx, wrapperspb.String(gatewayPaymentStuck)); err != nil {
			t.Fatalf("grpc get failed: %v", err)
		}
		if _, err := grpcClient.CancelPaymentStatus(ctx, wrapperspb.String(gatewayPaymentStuck)); err != nil {
			t.Fatalf("grpc cancel failed: %v", err)
		}
		_, err := grpcClient.CancelPaymentStatus(ctx, wrapperspb.String(gatewayPaymentStuck))
		if status.Code(err) != codes.NotFound {
			t.Fatalf("expected NotFound on second cancel, got %v", err)
		}
	})

	t.Run("GRPCInvalidArgument", func(t *testing.T) {
		ctx := grpcContextWithAPIKey(context.Background(), statusCallerAPIKey())
		_, err := grpcClient.GetPaymentStatus(ctx, wrapperspb.String(""))
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})
}
