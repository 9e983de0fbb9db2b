package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"gorm.io/gorm"
)

// ExportHeader is the header row of an exported price file
var ExportHeader = []string{"Date", "High", "Low", "Open", "Close", "Volume", "Adj Close"}

// ExportService writes stored prices to per ticker CSV files
type ExportService struct {
	dataRoot  string
	assetRepo *repository.AssetRepository
	priceRepo *repository.PriceRepository
}

// NewExportService creates a new ExportService writing below dataRoot
func NewExportService(db *gorm.DB, dataRoot string) *ExportService {
	return &ExportService{
		dataRoot:  dataRoot,
		assetRepo: repository.NewAssetRepository(db),
		priceRepo: repository.NewPriceRepository(db),
	}
}

// ExportFileName returns the file name of a ticker, BRK.B becomes BRK_B.csv
func ExportFileName(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "_") + ".csv"
}

// ExportTicker writes the stored prices of ticker and returns the file path
func (s *ExportService) ExportTicker(ticker string) (string, error) {
	asset, err := s.assetRepo.GetAsset(ticker)
	if err != nil {
		return "", err
	}
	prices, err := s.priceRepo.GetPrices(asset.ID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dataRoot, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", s.dataRoot, err)
	}
	path := filepath.Join(s.dataRoot, ExportFileName(ticker))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ExportHeader); err != nil {
		return "", err
	}
	for _, p := range prices {
		record := []string{
			p.Datetime.UTC().Format(time.DateOnly),
			p.High.String(),
			p.Low.String(),
			p.Open.String(),
			p.Close.String(),
			p.Volume.String(),
			p.AdjClose.String(),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ExportAll exports every stored asset and returns the number of files written.
// A failing ticker is logged and skipped.
func (s *ExportService) ExportAll() (int, error) {
	assets, err := s.assetRepo.GetAssets()
	if err != nil {
		return 0, err
	}
	written := 0
	for _, asset := range assets {
		if _, err := s.ExportTicker(asset.Symbol); err != nil {
			zaplogger.Error("Export failed", zaplogger.Fields{
				"ticker":    asset.Symbol,
				"operation": "export",
				"error":     err.Error(),
			})
			continue
		}
		written++
	}
	return written, nil
}
