package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"retail-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRouteAndStatus(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperror.HTTPStatus(apperror.KindOf(err))).SendString(err.Error())
		},
	})
	app.Use(Middleware())
	app.Post("/things/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return apperror.New(apperror.NotFound, "thing not found")
		}
		return c.SendString("ok")
	})

	okBefore := testutil.ToFloat64(RequestCounter.WithLabelValues("POST", "/things/:id", "200"))
	nfBefore := testutil.ToFloat64(RequestCounter.WithLabelValues("POST", "/things/:id", "404"))

	for _, id := range []string{"1", "2", "missing"} {
		if _, err := app.Test(httptest.NewRequest("POST", "/things/"+id, nil)); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}

	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("POST", "/things/:id", "200")) - okBefore; got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("POST", "/things/:id", "404")) - nfBefore; got != 1 {
		t.Errorf("expected 1 not found request, got %v", got)
	}
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	OrdersPlaced.Inc()

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "orders_placed_total") {
		t.Error("expected orders_placed_total in exposition")
	}
}
