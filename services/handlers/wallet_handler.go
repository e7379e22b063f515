package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/the-manager-app/manager_api/shared"
)

type WalletHandler struct {
	walletSvc WalletServiceInterface
}

func NewWalletHandler(walletSvc WalletServiceInterface) *WalletHandler {
	return &WalletHandler{
		walletSvc: walletSvc,
	}
}

// @Summary Get Wallet
// @Description Get the caller's coin balance
// @Tags wallet
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=dto.WalletResponse}
// @Router /api/v1/wallet [get]
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	wallet, err := h.walletSvc.GetWallet(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", wallet)
}

// @Summary List Wallet Transactions
// @Description Get the caller's wallet transaction history, newest first
// @Tags wallet
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} shared.Response{data=dto.WalletTransactionListResponse}
// @Router /api/v1/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	transactions, err := h.walletSvc.GetTransactions(userID, page, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", transactions)
}
