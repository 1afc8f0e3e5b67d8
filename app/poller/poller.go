package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/factory"
	"github.com/vibast-solutions/ms-go-payment-status/app/gateway"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

type Config struct {
	Client   gateway.StatusClient
	Interval time.Duration
	Timeout  time.Duration
	Rules    Rules

	// OnCheck runs after every outbound check with the interpreted outcome.
	OnCheck func(attempt int, outcome entity.Outcome)
	// OnTerminal runs once, after the session reaches succeeded or failed.
	OnTerminal func(outcome entity.Outcome)

	Logger logrus.FieldLogger
}

type Poller struct {
	cfg Config
}

func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.Rules = cfg.Rules.normalized()
	if cfg.Logger == nil {
		cfg.Logger = factory.NewModuleLogger("payment-status-poller")
	}
	return &Poller{cfg: cfg}
}

func (p *Poller) Interval() time.Duration {
	return p.cfg.Interval
}

func (p *Poller) NewSession(paymentID string) *Session {
	id := entity.NormalizePaymentID(paymentID)
	return &Session{
		paymentID: id,
		cfg:       p.cfg,
		logger:    factory.LoggerWithPayment(p.cfg.Logger, id),
		outcome:   entity.Outcome{PaymentID: id, State: entity.StateIdle},
		done:      make(chan struct{}),
	}
}

// Run starts a session and blocks until it is terminal or ctx is done.
func (p *Poller) Run(ctx context.Context, paymentID string) entity.Outcome {
	s := p.NewSession(paymentID)
	s.Start(ctx)
	select {
	case <-s.Done():
	case <-ctx.Done():
		s.Cancel()
		<-s.Done()
	}
	return s.Outcome()
}

// Session polls one payment identifier. Its outcome moves idle -> polling ->
// succeeded|failed and never changes after the first terminal transition.
type Session struct {
	paymentID string
	cfg       Config
	logger    logrus.FieldLogger

	mu        sync.Mutex
	outcome   entity.Outcome
	checks    int
	cancelled bool
	cancel    context.CancelFunc
	startOnce sync.Once
	done      chan struct{}
}

func (s *Session) PaymentID() string {
	return s.paymentID
}

// Start begins polling in the background. An empty identifier fails
// immediately without any network call.
func (s *Session) Start(parent context.Context) {
	s.startOnce.Do(func() {
		if s.paymentID == "" {
			s.finish(entity.Failed("", entity.FailureMissingIdentifier, 0, entity.MessageMissingIdentifier))
			close(s.done)
			return
		}

		ctx, cancel := context.WithCancel(parent)
		s.mu.Lock()
		if s.cancelled {
			s.mu.Unlock()
			cancel()
			close(s.done)
			return
		}
		s.cancel = cancel
		s.outcome = entity.Pending(s.paymentID)
		s.mu.Unlock()

		s.logger.WithField("interval", s.cfg.Interval.String()).
			WithField("timeout", s.cfg.Timeout.String()).
			Debug("payment_poll_started")
		go s.run(ctx)
	})
}

// Cancel stops a polling session without emitting a final state. Results of
// an in-flight check are discarded.
func (s *Session) Cancel() {
	s.mu.Lock()
	if !s.outcome.State.Terminal() {
		s.cancelled = true
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Outcome() entity.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outcome
	out.Checks = s.checks
	return out
}

func (s *Session) Checks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks
}

func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	budget, stop := context.WithTimeout(ctx, s.cfg.Timeout)
	defer stop()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if s.poll(budget) {
			return
		}

		select {
		case <-budget.Done():
			if ctx.Err() != nil {
				s.markCancelled()
				s.logger.Debug("payment_poll_cancelled")
				return
			}
			s.finish(entity.Failed(s.paymentID, entity.FailureTimeout, s.lastCode(), entity.MessageTimeout))
			return
		case <-ticker.C:
		}
	}
}

// poll performs one check and reports whether the session is now terminal.
func (s *Session) poll(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	s.mu.Lock()
	s.checks++
	attempt := s.checks
	s.mu.Unlock()

	resp, err := s.cfg.Client.CheckStatus(ctx, s.paymentID)
	if ctx.Err() != nil {
		// cancelled or out of budget while in flight; the run loop decides which
		return false
	}

	outcome := s.observe(resp, err)
	if s.cfg.OnCheck != nil {
		s.cfg.OnCheck(attempt, outcome)
	}
	return outcome.State.Terminal()
}

// observe applies one check result and returns the resulting snapshot. Results
// arriving after a terminal transition or after cancellation are ignored.
func (s *Session) observe(resp *gateway.StatusResponse, err error) entity.Outcome {
	next := s.cfg.Rules.Interpret(s.paymentID, resp, err)

	entry := s.logger.WithField("state", next.State)
	if resp != nil {
		entry = entry.WithField("status_code", resp.StatusCode)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("payment_status_checked")

	if next.State.Terminal() {
		s.finish(next)
		return s.Outcome()
	}

	s.mu.Lock()
	if !s.outcome.State.Terminal() && !s.cancelled {
		s.outcome = next
	}
	s.mu.Unlock()
	return s.Outcome()
}

func (s *Session) finish(outcome entity.Outcome) bool {
	s.mu.Lock()
	if s.outcome.State.Terminal() || s.cancelled {
		s.mu.Unlock()
		return false
	}
	outcome.Checks = s.checks
	s.outcome = outcome
	s.mu.Unlock()

	entry := s.logger.WithField("state", outcome.State).WithField("checks", outcome.Checks)
	if outcome.State == entity.StateFailed {
		entry.WithField("kind", outcome.Kind).WithField("code", outcome.Code).Info("payment_poll_failed")
	} else {
		entry.Info("payment_poll_succeeded")
	}

	if s.cfg.OnTerminal != nil {
		s.cfg.OnTerminal(outcome)
	}
	return true
}

func (s *Session) markCancelled() {
	s.mu.Lock()
	if !s.outcome.State.Terminal() {
		s.cancelled = true
	}
	s.mu.Unlock()
}

func (s *Session) lastCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome.Code
}
