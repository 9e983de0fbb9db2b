package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// tickerParam returns the upper cased :ticker path parameter
func tickerParam(c echo.Context) (string, error) {
	raw, err := url.PathUnescape(c.Param("ticker"))
	if err != nil {
		return "", err
	}
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", errors.New("no `ticker` provided")
	}
	return ticker, nil
}
