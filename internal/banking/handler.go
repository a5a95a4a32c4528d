package banking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/banking_ledger/internal/accounts"
	"github.com/congo-pay/banking_ledger/internal/clients"
	"github.com/congo-pay/banking_ledger/internal/ledger"
)

const dateLayout = "2006-01-02"

// Handler exposes the banking operations over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a banking HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createClientRequest struct {
	Name        string          `json:"name"`
	DateOfBirth string          `json:"date_of_birth"`
	Gender      string          `json:"gender"`
	Income      decimal.Decimal `json:"income"`
}

type clientResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DateOfBirth string          `json:"date_of_birth"`
	Gender      string          `json:"gender"`
	Income      decimal.Decimal `json:"income"`
	CreatedAt   time.Time       `json:"created_at"`
}

type createAccountRequest struct {
	ClientID       string          `json:"client_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type accountResponse struct {
	ID        string          `json:"id"`
	Number    string          `json:"account_number"`
	Balance   decimal.Decimal `json:"balance"`
	ClientID  string          `json:"client_id"`
	CreatedAt time.Time       `json:"created_at"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transactionResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Timestamp    time.Time       `json:"timestamp"`
}

// CreateClient registers a client.
func (h *Handler) CreateClient(c *fiber.Ctx) error {
	var req createClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var birth time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
		}
		birth = parsed
	}
	client, err := h.service.CreateClient(c.UserContext(), clients.Client{
		Name:        req.Name,
		DateOfBirth: birth,
		Gender:      req.Gender,
		Income:      req.Income,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(clientResponse{
		ID:          client.ID,
		Name:        client.Name,
		DateOfBirth: client.DateOfBirth.Format(dateLayout),
		Gender:      client.Gender,
		Income:      client.Income,
		CreatedAt:   client.CreatedAt,
	})
}

// CreateAccount opens an account for a client.
func (h *Handler) CreateAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.CreateAccount(c.UserContext(), req.ClientID, req.InitialBalance)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(newAccountResponse(account))
}

// Balance returns the account balance or 404.
func (h *Handler) Balance(c *fiber.Ctx) error {
	number := c.Params("accountNumber")
	balance, found, err := h.service.GetAccountBalance(c.UserContext(), number)
	if err != nil {
		return toHTTPError(err)
	}
	if !found {
		return fiber.NewError(http.StatusNotFound, "account not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_number": number,
		"balance":        balance,
	})
}

// Deposit credits the account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.service.Deposit(c.UserContext(), c.Params("accountNumber"), req.Amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(newTransactionResponse(tx))
}

// Withdraw debits the account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.service.Withdraw(c.UserContext(), c.Params("accountNumber"), req.Amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(newTransactionResponse(tx))
}

// Transactions lists the account history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	history, err := h.service.GetAccountTransactions(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return toHTTPError(err)
	}
	out := make([]transactionResponse, 0, len(history))
	for _, tx := range history {
		out = append(out, newTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidArgument):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func newAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Number:    a.Number,
		Balance:   a.Balance,
		ClientID:  a.ClientID,
		CreatedAt: a.CreatedAt,
	}
}

func newTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		AccountID:    tx.AccountID,
		Type:         string(tx.Kind),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Timestamp:    tx.CreatedAt,
	}
}
