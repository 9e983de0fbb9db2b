// Package fetcher retrieves constituent metadata and daily price bars from public sources
package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUnexpectedStatus is returned with an empty result for non-2xx responses
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrTableNotFound is returned when the constituent table is missing from the page
	ErrTableNotFound = errors.New("constituent table not found")
	// ErrUnknownColumn is returned when a provider frame has a column outside ProviderColumns
	ErrUnknownColumn = errors.New("unknown provider column")
	// ErrMissingColumn is returned when a provider frame lacks a canonical column
	ErrMissingColumn = errors.New("missing provider column")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ConstituentSource provides the current index constituent table
type ConstituentSource interface {
	FetchConstituents(ctx context.Context) (*Table, error)
}

// PriceFetcher provides daily bars for a symbol over [start, end)
type PriceFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (*Frame, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// truncateDay returns midnight UTC of t's calendar day in t's location
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
