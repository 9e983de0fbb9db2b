package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/response"
)

// AssetHandler is the handler for stored assets and prices
type AssetHandler struct {
	service *service.AssetService
}

// NewAssetHandler creates a new handler for assets
func NewAssetHandler(service *service.AssetService) *AssetHandler {
	return &AssetHandler{service: service}
}

// GetAssets returns the stored assets, filtered by the optional `market` query value
func (h *AssetHandler) GetAssets(c echo.Context) error {
	assets, err := h.service.GetAssets(c.QueryParam("market"))
	if err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, response.ErrorTypeDatabase, err.Error())
	}
	return response.SuccessResponse(c, assets)
}

// GetPrices returns the stored prices of a ticker
func (h *AssetHandler) GetPrices(c echo.Context) error {
	ticker, err := tickerParam(c)
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, response.ErrorTypeInput, err.Error())
	}
	prices, err := h.service.GetPrices(ticker)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return response.ErrorResponse(c, http.StatusNotFound, response.ErrorTypeNotFound, err.Error())
		}
		return response.ErrorResponse(c, http.StatusInternalServerError, response.ErrorTypeDatabase, err.Error())
	}
	return response.SuccessResponse(c, prices)
}
