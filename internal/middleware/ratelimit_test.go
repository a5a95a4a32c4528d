package middleware

import (
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/banking_ledger/internal/logging"
)

func TestAccountRateLimitPerAccount(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/accounts/:accountNumber/withdraw", AccountRateLimit(cache, "withdraw", 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	post := func(number string) int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/accounts/"+number+"/withdraw", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if status := post("1111111111"); status != fiber.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, status)
		}
	}
	if status := post("1111111111"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if status := post("2222222222"); status != fiber.StatusCreated {
		t.Fatalf("other account should not be limited, got %d", status)
	}
}

func TestAccountRateLimitWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/accounts/:accountNumber/withdraw", AccountRateLimit(nil, "withdraw", 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/accounts/1/withdraw", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
	}
}
