package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "payment-status-service",
	Short: "Payment status verification service",
	Long:  "Polls the payment gateway for the verification status of a payment and serves the result over HTTP and gRPC.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
