package routes

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/banking_ledger/internal/config"
	"github.com/congo-pay/banking_ledger/internal/logging"
)

func devConfig() config.Config {
	return config.Config{AppEnv: "development", IdempotencyTTL: time.Minute, WithdrawalsPerMinute: 1}
}

func TestSetupRequiresBackingServicesOutsideDev(t *testing.T) {
	cfg := devConfig()
	cfg.AppEnv = "production"
	if err := Setup(fiber.New(), Deps{Cfg: cfg, Logger: logging.Discard()}); err == nil {
		t.Fatalf("expected error without database in production")
	}
}

func TestSetupServesBankingRoutesInMemory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: devConfig(), Cache: cache, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	call := func(method, path, key, body string) (int, map[string]any) {
		t.Helper()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		out := map[string]any{}
		if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			_ = json.NewDecoder(resp.Body).Decode(&out)
		}
		return resp.StatusCode, out
	}

	status, client := call(fiber.MethodPost, "/api/v1/clients", "c-1", `{"name":"Ruth"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create client: %d", status)
	}
	status, account := call(fiber.MethodPost, "/api/v1/accounts", "a-1", `{"client_id":"`+client["id"].(string)+`","initial_balance":"100"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create account: %d", status)
	}
	base := "/api/v1/accounts/" + account["account_number"].(string)

	// A retried deposit with the same key is applied once.
	for i := 0; i < 2; i++ {
		if status, _ := call(fiber.MethodPost, base+"/deposit", "d-1", `{"amount":"25"}`); status != fiber.StatusCreated {
			t.Fatalf("deposit attempt %d: %d", i, status)
		}
	}
	status, balance := call(fiber.MethodGet, base+"/balance", "", "")
	if status != fiber.StatusOK || balance["balance"] != "125" {
		t.Fatalf("expected balance 125, got %d %v", status, balance)
	}

	if status, _ := call(fiber.MethodPost, base+"/withdraw", "w-1", `{"amount":"5"}`); status != fiber.StatusCreated {
		t.Fatalf("withdraw: %d", status)
	}
	if status, _ := call(fiber.MethodPost, base+"/withdraw", "w-2", `{"amount":"5"}`); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected withdrawal rate limit, got %d", status)
	}

	if status, _ := call(fiber.MethodGet, "/healthz", "", ""); status != fiber.StatusOK {
		t.Fatalf("healthz: %d", status)
	}
}
