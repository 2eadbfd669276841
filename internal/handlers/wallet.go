package handlers

import (
	"errors"

	"kobo/internal/services/wallet"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

func (h *WalletHandler) GetWallets(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	wallets, err := h.walletService.GetWallets(c.Context(), claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to get wallets")
	}

	return response.Success(c, "Wallets retrieved", fiber.Map{
		"wallets": wallets,
	})
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	currency := c.Params("currency")
	balance, err := h.walletService.GetBalance(c.Context(), claims.UserID, currency)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrUnsupportedCurrency):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, wallet.ErrWalletNotFound):
			return response.NotFound(c, err.Error())
		}
		return response.ServerError(c, "Failed to get balance")
	}

	return response.Success(c, "Balance retrieved", fiber.Map{
		"wallet": balance,
	})
}

func (h *WalletHandler) Fund(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var input wallet.FundRequest
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	txn, err := h.walletService.Fund(c.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrBaseCurrencyOnly), errors.Is(err, wallet.ErrInvalidAmount):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, wallet.ErrDuplicateReference):
			return response.Conflict(c, err.Error())
		case errors.Is(err, wallet.ErrWalletNotFound):
			return response.NotFound(c, err.Error())
		}
		return response.ServerError(c, "Failed to fund wallet")
	}

	return response.Created(c, "Wallet funded", fiber.Map{
		"transaction": txn,
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	transactions, err := h.walletService.GetTransactionHistory(c.Context(), claims.UserID)
	if err != nil {
		return response.ServerError(c, "Failed to get transactions")
	}

	return response.Success(c, "Transactions retrieved", fiber.Map{
		"transactions": transactions,
	})
}
