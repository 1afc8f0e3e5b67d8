package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/factory"
	"github.com/vibast-solutions/ms-go-payment-status/app/poller"
	"github.com/vibast-solutions/ms-go-payment-status/config"
)

type outcomeStore interface {
	Get(ctx context.Context, paymentID string) (*entity.Outcome, error)
	Save(ctx context.Context, outcome entity.Outcome) error
}

type purger interface {
	Purge() int
}

type trackedSession struct {
	session    *poller.Session
	startedAt  time.Time
	lastViewed time.Time
	waiters    int
}

type SweepResult struct {
	Cancelled int
	Removed   int
	Purged    int
}

// PaymentStatusService keeps one poll session per payment identifier. A view
// mounting an identifier starts (or reuses) its session; unmounting or going
// idle cancels it.
type PaymentStatusService struct {
	poller   *poller.Poller
	outcomes outcomeStore
	cfg      config.SessionConfig
	logger   logrus.FieldLogger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*trackedSession
}

func NewPaymentStatusService(pollerCfg poller.Config, outcomes outcomeStore, cfg config.SessionConfig) *PaymentStatusService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PaymentStatusService{
		outcomes: outcomes,
		cfg:      cfg,
		logger:   factory.NewModuleLogger("payment-status-service"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*trackedSession),
	}

	onTerminal := pollerCfg.OnTerminal
	pollerCfg.OnTerminal = func(outcome entity.Outcome) {
		s.remember(outcome)
		if onTerminal != nil {
			onTerminal(outcome)
		}
	}
	s.poller = poller.New(pollerCfg)
	return s
}

func (s *PaymentStatusService) PollInterval() time.Duration {
	return s.poller.Interval()
}

// Watch mounts a view on paymentID and returns the current outcome.
func (s *PaymentStatusService) Watch(ctx context.Context, paymentID string) (entity.Outcome, error) {
	tracked, cached, err := s.mount(ctx, paymentID)
	if err != nil {
		return entity.Outcome{}, err
	}
	if cached != nil {
		return *cached, nil
	}
	return tracked.session.Outcome(), nil
}

// Status returns the current outcome without starting a session.
func (s *PaymentStatusService) Status(ctx context.Context, paymentID string) (entity.Outcome, error) {
	id := entity.NormalizePaymentID(paymentID)
	if id == "" {
		return entity.Outcome{}, fmt.Errorf("%w: %w", ErrInvalidRequest, entity.ErrMissingIdentifier)
	}

	s.mu.Lock()
	tracked, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return tracked.session.Outcome(), nil
	}

	cached, err := s.outcomes.Get(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", id).Warn("Outcome store lookup failed")
	}
	if cached != nil {
		return *cached, nil
	}
	return entity.Outcome{}, ErrSessionNotFound
}

// Await mounts paymentID and blocks until the outcome is terminal or ctx ends.
func (s *PaymentStatusService) Await(ctx context.Context, paymentID string) (entity.Outcome, error) {
	tracked, cached, err := s.mount(ctx, paymentID)
	if err != nil {
		return entity.Outcome{}, err
	}
	if cached != nil {
		return *cached, nil
	}

	s.mu.Lock()
	tracked.waiters++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		tracked.waiters--
		tracked.lastViewed = s.now()
		s.mu.Unlock()
	}()

	select {
	case <-tracked.session.Done():
	case <-ctx.Done():
		return tracked.session.Outcome(), ctx.Err()
	}

	outcome := tracked.session.Outcome()
	if !outcome.State.Terminal() {
		return outcome, ErrSessionCancelled
	}
	return outcome, nil
}

// Cancel unmounts the view for paymentID and stops its session.
func (s *PaymentStatusService) Cancel(paymentID string) error {
	id := entity.NormalizePaymentID(paymentID)
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, entity.ErrMissingIdentifier)
	}

	s.mu.Lock()
	tracked, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	tracked.session.Cancel()
	s.logger.WithField("payment_id", id).Info("Payment status session cancelled")
	return nil
}

// Sweep cancels polling sessions nobody viewed within the idle timeout and
// forgets terminal sessions older than the retention window.
func (s *PaymentStatusService) Sweep() SweepResult {
	now := s.now()
	var result SweepResult
	var toCancel []*poller.Session

	s.mu.Lock()
	for id, tracked := range s.sessions {
		outcome := tracked.session.Outcome()
		switch {
		case outcome.State.Terminal():
			if now.Sub(outcome.UpdatedAt) > s.cfg.Retention {
				delete(s.sessions, id)
				result.Removed++
			}
		case tracked.session.Cancelled():
			delete(s.sessions, id)
			result.Removed++
		case tracked.waiters == 0 && s.cfg.IdleTimeout > 0 && now.Sub(tracked.lastViewed) > s.cfg.IdleTimeout:
			delete(s.sessions, id)
			toCancel = append(toCancel, tracked.session)
			result.Cancelled++
		}
	}
	s.mu.Unlock()

	for _, session := range toCancel {
		session.Cancel()
	}
	if p, ok := s.outcomes.(purger); ok {
		result.Purged = p.Purge()
	}
	return result
}

// Shutdown cancels every session.
func (s *PaymentStatusService) Shutdown() {
	s.cancel()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*trackedSession)
	s.mu.Unlock()

	for _, tracked := range sessions {
		tracked.session.Cancel()
	}
}

func (s *PaymentStatusService) mount(ctx context.Context, paymentID string) (*trackedSession, *entity.Outcome, error) {
	id := entity.NormalizePaymentID(paymentID)
	if id == "" {
		session := s.poller.NewSession(id)
		session.Start(s.ctx)
		return &trackedSession{session: session}, nil, nil
	}

	if tracked := s.touch(id); tracked != nil {
		return tracked, nil, nil
	}

	cached, err := s.outcomes.Get(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", id).Warn("Outcome store lookup failed")
	}
	if cached != nil {
		return nil, cached, nil
	}

	s.mu.Lock()
	if tracked, ok := s.sessions[id]; ok && !tracked.session.Cancelled() {
		tracked.lastViewed = s.now()
		s.mu.Unlock()
		return tracked, nil, nil
	}
	now := s.now()
	tracked := &trackedSession{
		session:    s.poller.NewSession(id),
		startedAt:  now,
		lastViewed: now,
	}
	s.sessions[id] = tracked
	s.mu.Unlock()

	tracked.session.Start(s.ctx)
	s.logger.WithField("payment_id", id).Info("Payment status session started")
	return tracked, nil, nil
}

func (s *PaymentStatusService) touch(id string) *trackedSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracked, ok := s.sessions[id]
	if !ok || tracked.session.Cancelled() {
		return nil
	}
	tracked.lastViewed = s.now()
	return tracked
}

func (s *PaymentStatusService) remember(outcome entity.Outcome) {
	if outcome.PaymentID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.outcomes.Save(ctx, outcome); err != nil {
		s.logger.WithError(err).WithField("payment_id", outcome.PaymentID).Warn("Failed to store payment outcome")
	}
}
