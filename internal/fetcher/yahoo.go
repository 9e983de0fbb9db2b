package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frame is a provider result: rows keyed by trading date with provider column names
type Frame struct {
	Symbol  string
	Columns []string
	Rows    []FrameRow
}

// FrameRow holds one trading date and its values, aligned with Frame.Columns
type FrameRow struct {
	Date   time.Time
	Values []decimal.Decimal
}

// Len returns the number of rows in the frame
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// YahooFetcher implements PriceFetcher on the Yahoo Finance chart API
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps index symbols to Yahoo tickers
}

// NewYahooFetcher creates a new Yahoo Finance fetcher
func NewYahooFetcher(baseURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(timeout),
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
		},
	}
}

// yahooSymbol maps share classes like BRK.B to Yahoo's BRK-B
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(symbol, ".", "-")
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GmtOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyBars returns daily bars for symbol with trading dates in [start, end)
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (*Frame, error) {
	frame := &Frame{Symbol: symbol, Columns: ProviderColumnNames()}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	u := strings.TrimSuffix(f.BaseURL, "/") + "/" + url.PathEscape(f.yahooSymbol(symbol)) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return frame, fmt.Errorf("yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return frame, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return frame, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return frame, fmt.Errorf("%w: yahoo %d for %s", ErrUnexpectedStatus, resp.StatusCode, symbol)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return frame, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return frame, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return frame, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return frame, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	loc := time.FixedZone("exchange", int(result.Meta.GmtOffset))
	seen := make(map[time.Time]bool, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		date := truncateDay(time.Unix(ts, 0).In(loc))
		if date.Before(start) || !date.Before(end) || seen[date] {
			continue
		}
		high, low, open, cls := at(quote.High, i), at(quote.Low, i), at(quote.Open, i), at(quote.Close, i)
		if high == nil || low == nil || open == nil || cls == nil {
			continue // holidays and halted sessions come back as null bars
		}
		adjClose := at(adj, i)
		if adjClose == nil {
			adjClose = cls
		}
		volume := 0.0
		if v := at(quote.Volume, i); v != nil {
			volume = *v
		}

		seen[date] = true
		frame.Rows = append(frame.Rows, FrameRow{
			Date: date,
			Values: []decimal.Decimal{
				decimal.NewFromFloat(*high),
				decimal.NewFromFloat(*low),
				decimal.NewFromFloat(*open),
				decimal.NewFromFloat(*cls),
				decimal.NewFromFloat(volume),
				decimal.NewFromFloat(*adjClose),
			},
		})
	}

	sort.Slice(frame.Rows, func(i, j int) bool { return frame.Rows[i].Date.Before(frame.Rows[j].Date) })
	return frame, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
