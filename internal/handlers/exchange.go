package handlers

import (
	"errors"

	"kobo/internal/services/exchange"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ExchangeHandler struct {
	exchangeService exchange.Service
}

func NewExchangeHandler(exchangeService exchange.Service) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeService: exchangeService,
	}
}

func (h *ExchangeHandler) GetRates(c *fiber.Ctx) error {
	snapshot, err := h.exchangeService.GetRates(c.Context())
	if err != nil {
		if errors.Is(err, exchange.ErrRatesUnavailable) {
			return response.ServiceUnavailable(c, err.Error())
		}
		return response.ServerError(c, "Failed to get exchange rates")
	}

	return response.Success(c, "Exchange rates retrieved", fiber.Map{
		"rates":        snapshot.Rates,
		"last_updated": snapshot.LastUpdated,
		"next_update":  snapshot.NextUpdate,
	})
}

func (h *ExchangeHandler) Convert(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input exchange.ConvertRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	txn, err := h.exchangeService.Convert(c.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrSameCurrency),
			errors.Is(err, exchange.ErrBaseCurrencyRoute),
			errors.Is(err, exchange.ErrInvalidAmount),
			errors.Is(err, exchange.ErrUnsupportedCurrency),
			errors.Is(err, exchange.ErrInsufficientBalance):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, exchange.ErrWalletNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, exchange.ErrRatesUnavailable):
			return response.ServiceUnavailable(c, err.Error())
		}
		return response.ServerError(c, "Currency conversion failed")
	}

	return response.Created(c, "Conversion completed", fiber.Map{
		"transaction": txn,
	})
}
