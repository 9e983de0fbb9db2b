package commands

import (
	"fmt"
	"strings"

	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/spf13/cobra"
)

var pricesTicker string

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Load the S&P 500 constituents",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		records, err := env.syncService().SyncConstituents(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), service.ConstituentsMessage(records))
		return err
	},
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Load missing daily prices",
	Long: `Load missing daily prices for every constituent and the benchmark.

Examples:
  # Sync the whole universe
  spxctl prices

  # Sync one ticker
  spxctl prices --ticker BRK.B`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		svc := env.syncService()
		out := cmd.OutOrStdout()

		if pricesTicker != "" {
			ticker := strings.ToUpper(pricesTicker)
			r := svc.SyncTicker(cmd.Context(), ticker)
			fmt.Fprintf(out, "%-8s %-8s %6d %s\n", r.Ticker, r.Status, r.Points, r.Reason)
			return nil
		}

		result := svc.SyncUniverse(cmd.Context())
		for _, r := range result.Results {
			if r.Status == service.SyncStatusFailed {
				fmt.Fprintf(out, "%-8s %-8s %s\n", r.Ticker, r.Status, r.Reason)
			}
		}
		fmt.Fprintln(out, result.Message())
		return nil
	},
}

func init() {
	pricesCmd.Flags().StringVar(&pricesTicker, "ticker", "", "Sync only this ticker")
	rootCmd.AddCommand(metaCmd, pricesCmd)
}
