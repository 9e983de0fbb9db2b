package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ConstituentTableID is the id of the constituent table on the S&P 500 wiki page
const ConstituentTableID = "constituents"

// Table is a scraped HTML table: header names plus the text of each data row
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table holds no data rows
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnIndex returns the position of a header, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell of row under the named header, "" when absent
func (t *Table) Value(row []string, name string) string {
	i := t.ColumnIndex(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Column returns every value under the named header
func (t *Table) Column(name string) ([]string, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not in table", name)
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if i < len(row) {
			values = append(values, row[i])
		}
	}
	return values, nil
}

// ConstituentScraper reads the constituent table from a web page
type ConstituentScraper struct {
	URL     string
	TableID string
	Client  *http.Client
}

// NewConstituentScraper creates a scraper for the table with ConstituentTableID at url
func NewConstituentScraper(url string, timeout time.Duration) *ConstituentScraper {
	return &ConstituentScraper{
		URL:     url,
		TableID: ConstituentTableID,
		Client:  newHTTPClient(timeout),
	}
}

// FetchConstituents downloads and parses the constituent table.
// A non-2xx response yields an empty table together with ErrUnexpectedStatus.
func (s *ConstituentScraper) FetchConstituents(ctx context.Context) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return &Table{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.Client.Do(req)
	if err != nil {
		return &Table{}, fmt.Errorf("failed to download constituents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Table{}, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, s.URL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return &Table{}, fmt.Errorf("failed to parse constituents page: %w", err)
	}
	return ParseTable(doc, s.TableID)
}

// ParseTable extracts the table with the given id. Header names come from every th
// cell, data rows from every tr with at least one td.
func ParseTable(doc *goquery.Document, id string) (*Table, error) {
	sel := doc.Find("table#" + id).First()
	if sel.Length() == 0 {
		return &Table{}, fmt.Errorf("%w: #%s", ErrTableNotFound, id)
	}

	table := &Table{}
	sel.Find("th").Each(func(_ int, th *goquery.Selection) {
		table.Columns = append(table.Columns, strings.TrimSpace(th.Text()))
	})
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		table.Rows = append(table.Rows, row)
	})
	return table, nil
}
