package commands

import (
	"fmt"
	"strings"

	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/spf13/cobra"
)

var exportAll bool

var exportCmd = &cobra.Command{
	Use:   "export [TICKER]",
	Short: "Write stored prices to CSV files under the data root",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !exportAll && len(args) == 0 {
			return fmt.Errorf("either TICKER or --all must be specified")
		}
		env, err := setup()
		if err != nil {
			return err
		}
		svc := service.NewExportService(env.db, env.cfg.DataRoot)

		if exportAll {
			n, err := svc.ExportAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tickers to %s\n", n, env.cfg.DataRoot)
			return nil
		}

		path, err := svc.ExportTicker(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete TICKER",
	Short: "Delete an asset together with its prices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		n, err := service.NewAssetService(env.db).DeleteAsset(strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d assets\n", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every stored asset")
	rootCmd.AddCommand(exportCmd, deleteCmd)
}
