package fetcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnMapping maps one provider column to its canonical name
type ColumnMapping struct {
	Provider  string
	Canonical string
}

// ProviderColumns is the declared mapping from price provider columns to the stored schema.
// The order is the column order of a provider Frame.
var ProviderColumns = []ColumnMapping{
	{Provider: "High", Canonical: "high"},
	{Provider: "Low", Canonical: "low"},
	{Provider: "Open", Canonical: "open"},
	{Provider: "Close", Canonical: "close"},
	{Provider: "Volume", Canonical: "volume"},
	{Provider: "Adj Close", Canonical: "adj_close"},
}

// ProviderColumnNames returns the provider side of ProviderColumns
func ProviderColumnNames() []string {
	names := make([]string, len(ProviderColumns))
	for i, m := range ProviderColumns {
		names[i] = m.Provider
	}
	return names
}

// Bar is one daily price observation in canonical form
type Bar struct {
	Datetime time.Time
	High     decimal.Decimal
	Low      decimal.Decimal
	Open     decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
	AdjClose decimal.Decimal
}

// Normalize checks the frame columns against ProviderColumns and returns its rows as bars
// keyed by UTC midnight, ascending and unique per day.
func Normalize(frame *Frame) ([]Bar, error) {
	if frame == nil {
		return nil, nil
	}

	canonical := make(map[string]string, len(ProviderColumns))
	for _, m := range ProviderColumns {
		canonical[m.Provider] = m.Canonical
	}

	index := make(map[string]int, len(frame.Columns))
	for i, col := range frame.Columns {
		name, ok := canonical[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		index[name] = i
	}
	for _, m := range ProviderColumns {
		if _, ok := index[m.Canonical]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, m.Provider)
		}
	}

	bars := make([]Bar, 0, len(frame.Rows))
	seen := make(map[time.Time]bool, len(frame.Rows))
	for _, row := range frame.Rows {
		if len(row.Values) != len(frame.Columns) {
			return nil, fmt.Errorf("row %s has %d values for %d columns",
				row.Date.Format(time.DateOnly), len(row.Values), len(frame.Columns))
		}
		day := truncateDay(row.Date)
		if seen[day] {
			continue
		}
		seen[day] = true
		bars = append(bars, Bar{
			Datetime: day,
			High:     row.Values[index["high"]],
			Low:      row.Values[index["low"]],
			Open:     row.Values[index["open"]],
			Close:    row.Values[index["close"]],
			Volume:   row.Values[index["volume"]],
			AdjClose: row.Values[index["adj_close"]],
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Datetime.Before(bars[j].Datetime) })
	return bars, nil
}
