package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
	"github.com/vibast-solutions/ms-go-payment-status/app/mapper"
	"github.com/vibast-solutions/ms-go-payment-status/app/poller"
)

var checkCmd = &cobra.Command{
	Use:   "check <payment-id>",
	Short: "Poll the gateway for one payment until it resolves",
	Long:  "Run a single poll session against the payment gateway and print the outcome as JSON. Exits with status 1 when the payment failed.",
	Args:  cobra.ExactArgs(1),
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := poller.New(newPollerConfig(cfg, newStatusClient(cfg)))

	var outcome entity.Outcome
	runJob("check_payment_status", func() error {
		outcome = p.Run(ctx, args[0])
		if outcome.State == entity.StateFailed {
			return fmt.Errorf("payment %q: %w", outcome.PaymentID, outcome.Kind.Err())
		}
		return nil
	})

	encoded, err := json.MarshalIndent(mapper.OutcomeToResponse(outcome), "", "  ")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to encode outcome")
	}
	fmt.Println(string(encoded))

	if outcome.State != entity.StateSucceeded {
		stop()
		os.Exit(1)
	}
}
