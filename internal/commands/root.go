// Package commands contains the spxctl command line
package commands

import (
	"fmt"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/fetcher"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spxctl",
	Short: "S&P 500 data sync and analytics",
	Long: `Loads S&P 500 constituents and daily prices into the store and computes
moving averages and Mansfield relative strength from the stored history.

Configuration is read from SPX_API_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zaplogger.SetLogLevel("debug")
		} else {
			zaplogger.SetLogLevel("warn")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// env holds what a command needs from the configuration and the store
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func setup() (*env, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := repository.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) syncService() *service.SyncService {
	return service.NewSyncService(e.db,
		fetcher.NewConstituentScraper(e.cfg.ConstituentsURL, e.cfg.FetchTimeout),
		fetcher.NewYahooFetcher(e.cfg.PriceProviderURL, e.cfg.FetchTimeout),
		service.SyncOptionsFromConfig(e.cfg),
	)
}
