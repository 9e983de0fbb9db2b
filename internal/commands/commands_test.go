package commands

import (
	"bytes"
	"testing"

	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/stretchr/testify/assert"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SPX_API_DB_DRIVER", "sqlite")
	t.Setenv("SPX_API_DB_DSN", "file::memory:")
	t.Setenv("SPX_API_DB_LOG_LEVEL", "silent")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExportNeedsTickerOrAll(t *testing.T) {
	_, err := run(t, "export")
	assert.ErrorContains(t, err, "--all")
}

func TestAnalyticsUnknownTicker(t *testing.T) {
	_, err := run(t, "analytics", "nope")
	assert.ErrorIs(t, err, repository.ErrAssetNotFound)
}

func TestDeleteUnknownTicker(t *testing.T) {
	_, err := run(t, "delete", "NOPE")
	assert.ErrorIs(t, err, repository.ErrAssetNotFound)
}

func TestAnalyticsNeedsOneArgument(t *testing.T) {
	_, err := run(t, "analytics")
	assert.Error(t, err)
}
