package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/banking_ledger/internal/banking"
)

// RegisterBankingRoutes wires client, account and money-movement endpoints.
func RegisterBankingRoutes(r fiber.Router, h *banking.Handler, withdrawLimit fiber.Handler) {
	r.Post("/clients", h.CreateClient)
	r.Post("/accounts", h.CreateAccount)

	account := r.Group("/accounts/:accountNumber")
	account.Get("/balance", h.Balance)
	account.Get("/transactions", h.Transactions)
	account.Post("/deposit", h.Deposit)
	if withdrawLimit != nil {
		account.Post("/withdraw", withdrawLimit, h.Withdraw)
	} else {
		account.Post("/withdraw", h.Withdraw)
	}
}
