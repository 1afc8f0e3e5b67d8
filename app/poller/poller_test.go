package poller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/gateway"
)

type scriptedResult struct {
	code int
	body string
	err  error
}

// scriptedClient replays results in order and repeats the last one.
type scriptedClient struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
	block   bool
}

func (c *scriptedClient) CheckStatus(ctx context.Context, _ string) (*gateway.StatusResponse, error) {
	c.mu.Lock()
	c.calls++
	idx := c.calls - 1
	if idx >= len(c.results) {
		idx = len(c.results) - 1
	}
	res := c.results[idx]
	block := c.block
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}
	return &gateway.StatusResponse{StatusCode: res.code, Body: []byte(res.body)}, nil
}

func (c *scriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

const successBody = `{
	"status": "SUCCESS",
	"subscription_id": "sub_9",
	"payment_details": {
		"status": "captured",
		"message": "Payment completed",
		"payment_id": "pay_123",
		"payment_method": "card",
		"completed_at": "2026-10-18T10:00:00Z"
	}
}`

func newTestPoller(client gateway.StatusClient, interval, timeout time.Duration) *Poller {
	return New(Config{Client: client, Interval: interval, Timeout: timeout})
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish in time")
	}
}

func TestMissingIdentifierFailsWithoutCalls(t *testing.T) {
	for _, id := range []string{"", "   "} {
		client := &scriptedClient{results: []scriptedResult{{code: http.StatusOK, body: successBody}}}
		s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession(id)
		s.Start(context.Background())
		waitDone(t, s)

		out := s.Outcome()
		assert.Equal(t, entity.StateFailed, out.State)
		assert.Equal(t, entity.FailureMissingIdentifier, out.Kind)
		assert.Equal(t, entity.MessageMissingIdentifier, out.Reason)
		assert.Equal(t, 0, client.Calls())
	}
}

func TestPendingThenSuccess(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{
		{code: http.StatusConflict},
		{code: http.StatusConflict},
		{code: http.StatusOK, body: successBody},
	}}

	var mu sync.Mutex
	var states []entity.State
	var terminal []entity.Outcome
	p := New(Config{
		Client:   client,
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		OnCheck: func(_ int, o entity.Outcome) {
			mu.Lock()
			states = append(states, o.State)
			mu.Unlock()
		},
		OnTerminal: func(o entity.Outcome) {
			mu.Lock()
			terminal = append(terminal, o)
			mu.Unlock()
		},
	})

	s := p.NewSession("pay_123")
	s.Start(context.Background())
	waitDone(t, s)

	assert.Equal(t, 3, client.Calls())
	mu.Lock()
	assert.Equal(t, []entity.State{entity.StatePolling, entity.StatePolling, entity.StateSucceeded}, states)
	require.Len(t, terminal, 1)
	mu.Unlock()

	out := s.Outcome()
	assert.Equal(t, entity.StateSucceeded, out.State)
	assert.Equal(t, 3, out.Checks)
	require.NotNil(t, out.Payload)
	assert.Equal(t, "sub_9", out.Payload.SubscriptionID)
	assert.Equal(t, "pay_123", out.Payload.PaymentID)
	assert.Equal(t, "card", out.Payload.PaymentMethod)
	assert.Equal(t, "2026-10-18T10:00:00Z", out.Payload.CompletedAt)
	assert.Equal(t, "SUCCESS", out.Payload.Status)
}

func TestDeclinedUsesServerMessage(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{
		{code: http.StatusBadRequest, body: `{"detail":{"status":"ERROR","message":"Unknown payment"}}`},
	}}
	s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_x")
	s.Start(context.Background())
	waitDone(t, s)

	out := s.Outcome()
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, entity.StateFailed, out.State)
	assert.Equal(t, entity.FailureDeclined, out.Kind)
	assert.Equal(t, "Unknown payment", out.Reason)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestDeclinedWithoutMessageUsesGeneric(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusBadRequest}}}
	s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_x")
	s.Start(context.Background())
	waitDone(t, s)

	out := s.Outcome()
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, entity.MessageDeclined, out.Reason)
}

func TestUnexpectedStatusAndNetworkErrorAreTerminal(t *testing.T) {
	cases := []struct {
		name   string
		result scriptedResult
		kind   entity.FailureKind
		code   int
	}{
		{name: "server error", result: scriptedResult{code: http.StatusInternalServerError}, kind: entity.FailureUnexpectedStatus, code: 500},
		{name: "network", result: scriptedResult{err: errors.New("connection refused")}, kind: entity.FailureUnreachable},
		{name: "empty success body", result: scriptedResult{code: http.StatusOK}, kind: entity.FailureMalformedResponse, code: 200},
		{name: "html success body", result: scriptedResult{code: http.StatusOK, body: "<html></html>"}, kind: entity.FailureMalformedResponse, code: 200},
		{name: "empty object success body", result: scriptedResult{code: http.StatusOK, body: `{}`}, kind: entity.FailureMalformedResponse, code: 200},
		{name: "unknown fields success body", result: scriptedResult{code: http.StatusOK, body: `{"unexpected":true}`}, kind: entity.FailureMalformedResponse, code: 200},
		{name: "error detail success body", result: scriptedResult{code: http.StatusOK, body: `{"detail":{"status":"ERROR","message":"Payment not found"}}`}, kind: entity.FailureMalformedResponse, code: 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedClient{results: []scriptedResult{tc.result, {code: http.StatusOK, body: successBody}}}
			s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_x")
			s.Start(context.Background())
			waitDone(t, s)

			out := s.Outcome()
			assert.Equal(t, entity.StateFailed, out.State)
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.code, out.Code)
			assert.NotEmpty(t, out.Reason)

			time.Sleep(20 * time.Millisecond)
			assert.Equal(t, 1, client.Calls())
		})
	}
}

func TestSustainedPendingTimesOut(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusConflict}}}
	s := newTestPoller(client, 5*time.Millisecond, 60*time.Millisecond).NewSession("pay_slow")
	s.Start(context.Background())
	waitDone(t, s)

	out := s.Outcome()
	assert.Equal(t, entity.StateFailed, out.State)
	assert.Equal(t, entity.FailureTimeout, out.Kind)
	assert.Equal(t, entity.MessageTimeout, out.Reason)
	assert.Greater(t, client.Calls(), 1)

	calls := client.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, client.Calls())
}

func TestLateResultsDoNotOverwriteTerminal(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusOK, body: successBody}}}
	s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_123")
	s.Start(context.Background())
	waitDone(t, s)
	require.Equal(t, entity.StateSucceeded, s.Outcome().State)

	s.observe(&gateway.StatusResponse{StatusCode: http.StatusBadRequest}, nil)
	s.observe(&gateway.StatusResponse{StatusCode: http.StatusConflict}, nil)
	s.observe(nil, errors.New("late network error"))

	assert.Equal(t, entity.StateSucceeded, s.Outcome().State)
	assert.False(t, s.finish(entity.Failed("pay_123", entity.FailureTimeout, 0, entity.MessageTimeout)))
}

func TestCancelStopsPolling(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusConflict}}}
	terminalCalls := 0
	p := New(Config{
		Client:     client,
		Interval:   5 * time.Millisecond,
		Timeout:    time.Second,
		OnTerminal: func(entity.Outcome) { terminalCalls++ },
	})

	s := p.NewSession("pay_cancel")
	s.Start(context.Background())
	require.Eventually(t, func() bool { return client.Calls() >= 2 }, time.Second, time.Millisecond)

	s.Cancel()
	waitDone(t, s)

	calls := client.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, client.Calls())
	assert.True(t, s.Cancelled())
	assert.Equal(t, entity.StatePolling, s.Outcome().State)
	assert.Equal(t, 0, terminalCalls)

	s.observe(&gateway.StatusResponse{StatusCode: http.StatusOK, Body: []byte(successBody)}, nil)
	assert.Equal(t, entity.StatePolling, s.Outcome().State)
}

func TestCancelDiscardsInFlightCheck(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusOK, body: successBody}}, block: true}
	s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_inflight")
	s.Start(context.Background())
	require.Eventually(t, func() bool { return client.Calls() == 1 }, time.Second, time.Millisecond)

	s.Cancel()
	waitDone(t, s)

	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, entity.StatePolling, s.Outcome().State)
	assert.True(t, s.Cancelled())
}

func TestCancelBeforeStart(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusOK, body: successBody}}}
	s := newTestPoller(client, 5*time.Millisecond, time.Second).NewSession("pay_early")
	s.Cancel()
	s.Start(context.Background())
	waitDone(t, s)

	assert.Equal(t, 0, client.Calls())
	assert.Equal(t, entity.StateIdle, s.Outcome().State)
}

func TestRunBlocksUntilTerminal(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusConflict}, {code: http.StatusOK, body: successBody}}}
	out := newTestPoller(client, 5*time.Millisecond, time.Second).Run(context.Background(), "pay_run")

	assert.Equal(t, entity.StateSucceeded, out.State)
	assert.Equal(t, 2, out.Checks)
}

func TestRunReturnsPendingWhenContextEnds(t *testing.T) {
	client := &scriptedClient{results: []scriptedResult{{code: http.StatusConflict}}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	out := newTestPoller(client, 5*time.Millisecond, time.Second).Run(ctx, "pay_run")
	assert.Equal(t, entity.StatePolling, out.State)
	assert.Equal(t, http.StatusConflict, out.Code)
}

func TestNewAppliesDefaults(t *testing.T) {
	p := New(Config{})
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.Equal(t, DefaultTimeout, p.cfg.Timeout)
	assert.NotNil(t, p.cfg.Rules.IsSuccess)
}
