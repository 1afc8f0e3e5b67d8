package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
)

const outcomeKeyPrefix = "payment-status:outcome:"

type cachedPayload struct {
	Status         string `json:"status,omitempty"`
	Message        string `json:"message,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	CompletedAt    string `json:"completed_at,omitempty"`
}

type cachedOutcome struct {
	PaymentID string         `json:"payment_id"`
	State     string         `json:"state"`
	Payload   *cachedPayload `json:"payload,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Code      int            `json:"code,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Checks    int            `json:"checks"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RedisStore shares terminal outcomes between replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get returns nil on a cache miss.
func (s *RedisStore) Get(ctx context.Context, paymentID string) (*entity.Outcome, error) {
	data, err := s.client.Get(ctx, outcomeKey(paymentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeOutcome(data)
}

func (s *RedisStore) Save(ctx context.Context, outcome entity.Outcome) error {
	if !outcome.State.Terminal() || outcome.PaymentID == "" {
		return nil
	}
	data, err := encodeOutcome(outcome)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, outcomeKey(outcome.PaymentID), data, s.ttl).Err()
}

func outcomeKey(paymentID string) string {
	return outcomeKeyPrefix + paymentID
}

func encodeOutcome(outcome entity.Outcome) ([]byte, error) {
	cached := cachedOutcome{
		PaymentID: outcome.PaymentID,
		State:     string(outcome.State),
		Reason:    outcome.Reason,
		Code:      outcome.Code,
		Kind:      string(outcome.Kind),
		Checks:    outcome.Checks,
		UpdatedAt: outcome.UpdatedAt,
	}
	if p := outcome.Payload; p != nil {
		cached.Payload = &cachedPayload{
			Status:         p.Status,
			Message:        p.Message,
			SubscriptionID: p.SubscriptionID,
			PaymentID:      p.PaymentID,
			PaymentMethod:  p.PaymentMethod,
			CompletedAt:    p.CompletedAt,
		}
	}
	return json.Marshal(cached)
}

func decodeOutcome(data []byte) (*entity.Outcome, error) {
	var cached cachedOutcome
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	outcome := &entity.Outcome{
		PaymentID: cached.PaymentID,
		State:     entity.State(cached.State),
		Reason:    cached.Reason,
		Code:      cached.Code,
		Kind:      entity.FailureKind(cached.Kind),
		Checks:    cached.Checks,
		UpdatedAt: cached.UpdatedAt,
	}
	if p := cached.Payload; p != nil {
		outcome.Payload = &entity.Payload{
			Status:         p.Status,
			Message:        p.Message,
			SubscriptionID: p.SubscriptionID,
			PaymentID:      p.PaymentID,
			PaymentMethod:  p.PaymentMethod,
			CompletedAt:    p.CompletedAt,
		}
	}
	if !outcome.State.Terminal() {
		return nil, errors.New("cached outcome is not terminal")
	}
	return outcome, nil
}
