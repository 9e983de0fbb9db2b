package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/response"
)

// AnalyticsHandler is the handler for the indicator series
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler creates a new handler for analytics
func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetAnalytics returns moving averages and Mansfield relative strength of a ticker
func (h *AnalyticsHandler) GetAnalytics(c echo.Context) error {
	ticker, err := tickerParam(c)
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, response.ErrorTypeInput, err.Error())
	}
	analytics, err := h.service.GetAnalytics(c.Request().Context(), ticker)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return response.ErrorResponse(c, http.StatusNotFound, response.ErrorTypeNotFound, err.Error())
		}
		return response.ErrorResponse(c, http.StatusInternalServerError, response.ErrorTypeServer, err.Error())
	}
	return response.SuccessResponse(c, analytics)
}
