package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"retail-backend/internal/auth"
	"retail-backend/internal/branch"
	"retail-backend/internal/cache"
	"retail-backend/internal/database"
	"retail-backend/internal/inventory"
	"retail-backend/internal/models"
	"retail-backend/internal/notify"
	"retail-backend/internal/order"
	"retail-backend/internal/server"
	"retail-backend/internal/testfixture"
	"retail-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type recorder struct{ msgs []notify.Message }

func (r *recorder) Enqueue(msgs ...notify.Message) { r.msgs = append(r.msgs, msgs...) }

func newApp(t *testing.T, f *testfixture.Fixture) *fiber.App {
	t.Helper()
	log := zap.NewNop()
	rdb, err := database.SQLX(f.DB)
	if err != nil {
		t.Fatalf("sqlx: %v", err)
	}
	return server.New(server.Deps{
		DB:          f.DB,
		Log:         log,
		CORSOrigins: "http://localhost:5173",
		Resolver:    f.Resolver,
		Auth:        auth.NewService(f.DB, testfixture.Secret, 24*time.Hour, auth.Bootstrap{}, log),
		Branches:    branch.NewService(f.DB, f.Resolver),
		Inventory:   inventory.NewService(f.DB, f.Resolver),
		Users:       user.NewService(f.DB, user.NewCustomerRepository(rdb), f.Resolver, notify.NewLogSender(log), log),
		Orders:      order.NewService(f.DB, f.Resolver, &recorder{}, cache.NoopGuard{}, order.Options{CompanyName: "Shop"}, log),
	})
}

func post(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newApp(t, testfixture.New(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected healthy root, got %v %v", resp, err)
	}

	status, body := post(t, app, "/nope", map[string]any{})
	if status != fiber.StatusNotFound || body["error"] != true {
		t.Errorf("expected 404 envelope, got %d %v", status, body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	f := testfixture.New(t)
	app := newApp(t, f)

	status, body := post(t, app, "/branch/all", map[string]any{"token": "not-a-token"})
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	if body["error"] != true || body["message"] != "invalid or expired token" {
		t.Errorf("unexpected envelope %v", body)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/branch/all", bytes.NewReader([]byte("{bad"))))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
}

func TestSaleFlow(t *testing.T) {
	f := testfixture.New(t)
	app := newApp(t, f)
	admin, _ := f.User(t, models.RoleSupervisor, nil)

	status, body := post(t, app, "/login", auth.LoginRequest{ID: admin.Email, Password: testfixture.Password})
	if status != fiber.StatusOK {
		t.Fatalf("login failed: %d %v", status, body)
	}
	adminToken := body["token"].(string)

	status, body = post(t, app, "/branch/new", branch.CreateBranchRequest{Token: adminToken, Name: "Accra", Address: "Osu"})
	if status != fiber.StatusCreated {
		t.Fatalf("create branch failed: %d %v", status, body)
	}
	branchID := uint(body["branches"].([]any)[0].(map[string]any)["id"].(float64))

	status, body = post(t, app, "/inventory/new", inventory.CreateInventoryRequest{
		Token: adminToken, Name: "Rice", Quantity: "100", CostPrice: "8", SellingPrice: "10", ExpirationAlert: "5",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create inventory failed: %d %v", status, body)
	}
	invID := uint(body["inventories"].([]any)[0].(map[string]any)["id"].(float64))

	status, body = post(t, app, "/inventory/export", inventory.ExportRequest{
		Token: adminToken, ID: invID, BranchID: branchID, Quantity: 20, Password: testfixture.Password,
	})
	if status != fiber.StatusOK {
		t.Fatalf("export failed: %d %v", status, body)
	}

	_, clerkToken := f.User(t, models.RoleSalesperson, &branchID)
	status, body = post(t, app, "/inventory/stock", inventory.TokenRequest{Token: clerkToken})
	if status != fiber.StatusOK {
		t.Fatalf("stock failed: %d %v", status, body)
	}
	stock := body["stocks"].([]any)[0].(map[string]any)
	stockID := uint(stock["id"].(float64))

	status, body = post(t, app, "/shop/order", map[string]any{
		"token":    clerkToken,
		"password": testfixture.Password,
		"payment":  "CASH",
		"items":    []map[string]any{{"id": stockID, "name": "Rice", "quantity": 3, "total": 30}},
		"customer": map[string]any{"name": "Ama", "email": "", "phone": "0241234567", "location": "Osu"},
	})
	if status != fiber.StatusCreated {
		t.Fatalf("order failed: %d %v", status, body)
	}
	if len(body["orders"].([]any)) != 1 {
		t.Errorf("expected one order in response, got %v", body["orders"])
	}
	if fmt.Sprint(body["sales"]) != "30" {
		t.Errorf("expected sales 30, got %v", body["sales"])
	}

	status, body = post(t, app, "/user/customers", user.TokenRequest{Token: adminToken})
	if status != fiber.StatusOK || len(body["customers"].([]any)) != 1 {
		t.Errorf("unexpected customers response %d %v", status, body)
	}
}
