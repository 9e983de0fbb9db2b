package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guregu/null/v6"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/spf13/cobra"
)

var analyticsLast int

var analyticsCmd = &cobra.Command{
	Use:   "analytics TICKER",
	Short: "Print moving averages and Mansfield relative strength",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		svc := service.NewAnalyticsService(env.db, env.cfg.BenchmarkSymbol, nil)
		analytics, err := svc.GetAnalytics(cmd.Context(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}

		points := analytics.Points
		if analyticsLast > 0 && len(points) > analyticsLast {
			points = points[len(points)-analyticsLast:]
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "date\tadj_close\tsma_10w\tsma_30w\tindex\trsm\t")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", p.Datetime.Format(time.DateOnly),
				format(p.AdjClose), format(p.Sma10w), format(p.Sma30w), format(p.AdjCloseIndex), format(p.RSM))
		}
		return w.Flush()
	},
}

func format(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func init() {
	analyticsCmd.Flags().IntVar(&analyticsLast, "last", 20, "Number of trailing rows to print, 0 for all")
	rootCmd.AddCommand(analyticsCmd)
}
