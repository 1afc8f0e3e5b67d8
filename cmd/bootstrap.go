package cmd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/gateway"
	"github.com/vibast-solutions/ms-go-payment-status/app/poller"
	"github.com/vibast-solutions/ms-go-payment-status/app/service"
	"github.com/vibast-solutions/ms-go-payment-status/app/store"
	"github.com/vibast-solutions/ms-go-payment-status/config"
)

const gatewayAPIKeyHeader = "X-API-Key"

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func newStatusClient(cfg *config.Config) *gateway.HTTPStatusClient {
	headers := map[string]string{}
	if cfg.Gateway.APIKey != "" {
		headers[gatewayAPIKeyHeader] = cfg.Gateway.APIKey
	}
	return gateway.NewHTTPStatusClient(&gateway.HTTPStatusClientConfig{
		BaseURL:    cfg.Gateway.BaseURL,
		StatusPath: cfg.Gateway.StatusPath,
		Method:     cfg.Gateway.Method,
		Headers:    headers,
		Timeout:    cfg.Gateway.RequestTimeout,
	})
}

func newPollerConfig(cfg *config.Config, client gateway.StatusClient) poller.Config {
	return poller.Config{
		Client:   client,
		Interval: cfg.Polling.Interval,
		Timeout:  cfg.Polling.Timeout,
		Rules:    poller.DefaultRules(),
		OnTerminal: func(outcome entity.Outcome) {
			logrus.WithFields(logrus.Fields{
				"payment_id": outcome.PaymentID,
				"state":      outcome.State,
				"kind":       outcome.Kind,
				"checks":     outcome.Checks,
			}).Info("payment_status_resolved")
		},
	}
}

// mustCreateStatusService wires the gateway client, the outcome store and the
// session registry. Outcomes go to Redis when REDIS_ADDR is set and stay in
// memory otherwise.
func mustCreateStatusService(cfg *config.Config) (*service.PaymentStatusService, func()) {
	var outcomes store.OutcomeStore
	cleanup := func() {}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			logrus.WithError(err).Fatal("Failed to ping redis")
		}
		outcomes = store.NewRedisStore(client, cfg.Sessions.Retention)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis client")
			}
		}
	} else {
		outcomes = store.NewMemoryStore(cfg.Sessions.Retention)
	}

	svc := service.NewPaymentStatusService(newPollerConfig(cfg, newStatusClient(cfg)), outcomes, cfg.Sessions)
	return svc, func() {
		svc.Shutdown()
		cleanup()
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}

// runSweeper sweeps idle and expired sessions until ctx ends.
func runSweeper(ctx context.Context, interval time.Duration, svc *service.PaymentStatusService) {
	if interval <= 0 {
		logrus.WithField("job", "sweep_sessions").Fatal("invalid sweep interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runJob("sweep_sessions", func() error {
				result := svc.Sweep()
				if result.Cancelled+result.Removed+result.Purged > 0 {
					logrus.WithFields(logrus.Fields{
						"cancelled": result.Cancelled,
						"removed":   result.Removed,
						"purged":    result.Purged,
					}).Debug("Sessions swept")
				}
				return nil
			})
		}
	}
}
