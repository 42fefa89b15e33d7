package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pricer",
		Short: "Black-Scholes-Merton option pricer",
		Long: `Prices European call and put options on a non-dividend paying underlying
under the Black-Scholes-Merton model, from the command line or over HTTP.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", ".", "Directory containing config.yaml and an optional .env file.")
	rootCmd.AddCommand(newPriceCmd(), newServeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
