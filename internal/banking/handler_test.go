package banking

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupHandlerApp(t *testing.T) *fiber.App {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc)

	app := fiber.New()
	app.Post("/clients", h.CreateClient)
	app.Post("/accounts", h.CreateAccount)
	app.Get("/accounts/:accountNumber/balance", h.Balance)
	app.Post("/accounts/:accountNumber/deposit", h.Deposit)
	app.Post("/accounts/:accountNumber/withdraw", h.Withdraw)
	app.Get("/accounts/:accountNumber/transactions", h.Transactions)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHandlerAccountLifecycle(t *testing.T) {
	app := setupHandlerApp(t)

	var client clientResponse
	status := doJSON(t, app, fiber.MethodPost, "/clients",
		`{"name":"Grace Okemba","date_of_birth":"1988-07-21","gender":"F","income":"3200.00"}`, &client)
	if status != fiber.StatusCreated {
		t.Fatalf("create client: expected 201, got %d", status)
	}
	if client.ID == "" || client.DateOfBirth != "1988-07-21" {
		t.Fatalf("unexpected client: %+v", client)
	}

	var account accountResponse
	status = doJSON(t, app, fiber.MethodPost, "/accounts",
		`{"client_id":"`+client.ID+`","initial_balance":100}`, &account)
	if status != fiber.StatusCreated {
		t.Fatalf("create account: expected 201, got %d", status)
	}
	if len(account.Number) != AccountNumberLength {
		t.Fatalf("unexpected account number %q", account.Number)
	}
	base := "/accounts/" + account.Number

	var tx transactionResponse
	status = doJSON(t, app, fiber.MethodPost, base+"/deposit", `{"amount":"50"}`, &tx)
	if status != fiber.StatusCreated {
		t.Fatalf("deposit: expected 201, got %d", status)
	}
	if tx.Type != "Deposit" || !tx.BalanceAfter.Equal(dec("150")) {
		t.Fatalf("unexpected deposit: %+v", tx)
	}

	if status := doJSON(t, app, fiber.MethodPost, base+"/withdraw", `{"amount":"200"}`, nil); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("overdraw: expected 422, got %d", status)
	}
	if status := doJSON(t, app, fiber.MethodPost, base+"/withdraw", `{"amount":"0"}`, nil); status != fiber.StatusBadRequest {
		t.Fatalf("zero withdraw: expected 400, got %d", status)
	}

	var balance struct {
		AccountNumber string `json:"account_number"`
		Balance       string `json:"balance"`
	}
	if status := doJSON(t, app, fiber.MethodGet, base+"/balance", "", &balance); status != fiber.StatusOK {
		t.Fatalf("balance: expected 200, got %d", status)
	}
	if !dec(balance.Balance).Equal(dec("150")) {
		t.Fatalf("expected balance 150, got %s", balance.Balance)
	}

	var history []transactionResponse
	if status := doJSON(t, app, fiber.MethodGet, base+"/transactions", "", &history); status != fiber.StatusOK {
		t.Fatalf("transactions: expected 200, got %d", status)
	}
	if len(history) != 1 || history[0].ID != tx.ID {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestHandlerNotFoundResponses(t *testing.T) {
	app := setupHandlerApp(t)

	cases := []struct {
		method, path, body string
	}{
		{fiber.MethodGet, "/accounts/0000000000/balance", ""},
		{fiber.MethodGet, "/accounts/0000000000/transactions", ""},
		{fiber.MethodPost, "/accounts/0000000000/deposit", `{"amount":"1"}`},
		{fiber.MethodPost, "/accounts", `{"client_id":"nobody","initial_balance":"1"}`},
	}
	for _, tc := range cases {
		if status := doJSON(t, app, tc.method, tc.path, tc.body, nil); status != fiber.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, status)
		}
	}
}

func TestHandlerEmptyHistoryIsOK(t *testing.T) {
	app := setupHandlerApp(t)

	var client clientResponse
	doJSON(t, app, fiber.MethodPost, "/clients", `{"name":"Paul"}`, &client)
	var account accountResponse
	doJSON(t, app, fiber.MethodPost, "/accounts", `{"client_id":"`+client.ID+`","initial_balance":"0"}`, &account)

	var history []transactionResponse
	if status := doJSON(t, app, fiber.MethodGet, "/accounts/"+account.Number+"/transactions", "", &history); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d", len(history))
	}
}

func TestHandlerRejectsBadBirthDate(t *testing.T) {
	app := setupHandlerApp(t)
	if status := doJSON(t, app, fiber.MethodPost, "/clients", `{"name":"X","date_of_birth":"21/07/1988"}`, nil); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
