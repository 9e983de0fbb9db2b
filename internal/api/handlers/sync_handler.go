// Package handlers contains the handlers for the API
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/response"
)

// SyncConstituentsResponseData is the response data for the SyncConstituents endpoint
type SyncConstituentsResponseData struct {
	Timestamp string `json:"timestamp"`
	Records   int64  `json:"records"`
	Error     string `json:"error,omitempty"`
}

// SyncHandler is the handler for the sync endpoints
type SyncHandler struct {
	service *service.SyncService
}

// NewSyncHandler creates a new handler for the sync endpoints
func NewSyncHandler(service *service.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// SyncConstituents loads the S&P 500 constituents. A failed sync is reported as zero records.
func (h *SyncHandler) SyncConstituents(c echo.Context) error {
	records, err := h.service.SyncConstituents(detached(c))
	data := SyncConstituentsResponseData{
		Timestamp: time.Now().Format(time.RFC3339),
		Records:   records,
	}
	if err != nil {
		data.Error = err.Error()
	}
	return response.StatusResponse(c, service.ConstituentsMessage(records), data)
}

// SyncPrices loads the missing prices of every ticker in the universe
func (h *SyncHandler) SyncPrices(c echo.Context) error {
	result := h.service.SyncUniverse(detached(c))
	return response.StatusResponse(c, result.Message(), result)
}

// SyncTickerPrices loads the missing prices of one ticker
func (h *SyncHandler) SyncTickerPrices(c echo.Context) error {
	ticker, err := tickerParam(c)
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, response.ErrorTypeInput, err.Error())
	}
	result := h.service.SyncTicker(detached(c), ticker)
	message := fmt.Sprintf("Successfully loaded %d price points for %s", result.Points, ticker)
	return response.StatusResponse(c, message, result)
}

// GetLatestRuns returns the latest recorded run of each kind
func (h *SyncHandler) GetLatestRuns(c echo.Context) error {
	runs := map[string]*models.SyncRunModel{}
	for _, kind := range []string{models.SyncKindConstituents, models.SyncKindPrices} {
		run, err := h.service.LatestRun(kind)
		if err != nil {
			return response.ErrorResponse(c, http.StatusInternalServerError, response.ErrorTypeDatabase, err.Error())
		}
		runs[kind] = run
	}
	return response.SuccessResponse(c, runs)
}

// detached returns the request context without its cancellation
func detached(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}
