package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/banking_ledger/internal/logging"
)

type testApp struct {
	app     *fiber.App
	calls   atomic.Int32
	cleanup func()
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ta := &testApp{app: fiber.New()}
	ta.app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	ta.app.Post("/accounts/:accountNumber/deposit", func(c *fiber.Ctx) error {
		n := ta.calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"account": c.Params("accountNumber"), "call": n})
	})
	ta.app.Post("/broken", func(c *fiber.Ctx) error {
		ta.calls.Add(1)
		return c.SendStatus(fiber.StatusServiceUnavailable)
	})
	ta.cleanup = func() {
		cache.Close()
		mr.Close()
	}
	return ta
}

func (ta *testApp) post(t *testing.T, path, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(`{"amount":"10"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header.Get("Idempotent-Replayed")
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	ta := setupTestApp(t)
	defer ta.cleanup()

	if status, _, _ := ta.post(t, "/accounts/0123456789/deposit", ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	ta := setupTestApp(t)
	defer ta.cleanup()

	status, first, _ := ta.post(t, "/accounts/0123456789/deposit", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	status, second, replayed := ta.post(t, "/accounts/0123456789/deposit", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status)
	}
	if second != first {
		t.Fatalf("expected cached payload %s got %s", first, second)
	}
	if replayed != "true" {
		t.Fatalf("expected replay marker header")
	}
	if ta.calls.Load() != 1 {
		t.Fatalf("handler should run once, ran %d times", ta.calls.Load())
	}
}

func TestIdempotencyKeyIsScopedToPath(t *testing.T) {
	ta := setupTestApp(t)
	defer ta.cleanup()

	ta.post(t, "/accounts/0123456789/deposit", "shared")
	status, body, replayed := ta.post(t, "/accounts/9876543210/deposit", "shared")
	if status != fiber.StatusCreated || replayed != "" {
		t.Fatalf("expected a fresh response for another account, got %d replayed=%q", status, replayed)
	}
	if !strings.Contains(body, "9876543210") {
		t.Fatalf("unexpected body %s", body)
	}
	if ta.calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", ta.calls.Load())
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	ta := setupTestApp(t)
	defer ta.cleanup()

	for i := 0; i < 2; i++ {
		if status, _, _ := ta.post(t, "/broken", "retry-me"); status != fiber.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", status)
		}
	}
	if ta.calls.Load() != 2 {
		t.Fatalf("server errors must be retried, handler ran %d times", ta.calls.Load())
	}
}
