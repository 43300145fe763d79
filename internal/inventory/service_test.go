package inventory_test

import (
	"bytes"
	"context"
	"testing"

	"retail-backend/internal/apperror"
	"retail-backend/internal/inventory"
	"retail-backend/internal/models"
	"retail-backend/internal/testfixture"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func setup(t *testing.T) (*testfixture.Fixture, *inventory.Service, models.Branch, string) {
	t.Helper()
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSupervisor, nil)
	return f, inventory.NewService(f.DB, f.Resolver), b, token
}

func TestCreate_WritesOpeningTopup(t *testing.T) {
	f, svc, _, token := setup(t)

	items, err := svc.Create(context.Background(), token, inventory.CreateInput{
		Name:            "Rice 5kg",
		Quantity:        40,
		CostPrice:       decimal.RequireFromString("50"),
		SellingPrice:    decimal.RequireFromString("65.50"),
		ExpirationAlert: 5,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 40 {
		t.Fatalf("unexpected inventories %+v", items)
	}
	if len(items[0].Topups) != 1 || items[0].Topups[0].Quantity != 40 {
		t.Errorf("expected one opening top-up of 40, got %+v", items[0].Topups)
	}

	_, err = svc.Create(context.Background(), token, inventory.CreateInput{Name: "  "})
	if apperror.KindOf(err) != apperror.ValidationError {
		t.Errorf("expected ValidationError for empty name, got %v", err)
	}
	if n := f.Count(t, &models.Inventory{}); n != 1 {
		t.Errorf("expected 1 inventory row, got %d", n)
	}
}

func TestExport_Conservation(t *testing.T) {
	f, svc, b, token := setup(t)
	inv := f.Inventory(t, "Sugar", 100, "10", 5)
	ctx := context.Background()

	if _, err := svc.Export(ctx, token, testfixture.Password, inv.ID, b.ID, 20); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if _, err := svc.Export(ctx, token, testfixture.Password, inv.ID, b.ID, 15); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	var got models.Inventory
	f.Reload(t, &got, inv.ID)
	var stock models.Stock
	if err := f.DB.Where("branch_id = ? AND inventory_id = ?", b.ID, inv.ID).First(&stock).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}

	if got.Quantity != 65 || stock.Remaining != 35 {
		t.Errorf("expected warehouse 65 and branch 35, got %d and %d", got.Quantity, stock.Remaining)
	}
	if got.Quantity+stock.Remaining != 100 {
		t.Errorf("conservation broken: %d + %d", got.Quantity, stock.Remaining)
	}
	if n := f.Count(t, &models.Stock{}); n != 1 {
		t.Errorf("expected stock upsert to keep one row, got %d", n)
	}
	if n := f.Count(t, &models.InventoryExport{}); n != 2 {
		t.Errorf("expected 2 export records, got %d", n)
	}
	if n := f.Count(t, &models.StocksTopUp{}); n != 2 {
		t.Errorf("expected 2 stock top-up records, got %d", n)
	}
}

func TestExport_InsufficientLeavesNoTrace(t *testing.T) {
	f, svc, b, token := setup(t)
	inv := f.Inventory(t, "Oil", 10, "30", 2)
	f.Stock(t, b.ID, inv.ID, 3)

	_, err := svc.Export(context.Background(), token, testfixture.Password, inv.ID, b.ID, 11)
	if apperror.KindOf(err) != apperror.InsufficientInventory {
		t.Fatalf("expected InsufficientInventory, got %v", err)
	}

	var got models.Inventory
	f.Reload(t, &got, inv.ID)
	var stock models.Stock
	f.DB.Where("branch_id = ? AND inventory_id = ?", b.ID, inv.ID).First(&stock)
	if got.Quantity != 10 || stock.Remaining != 3 {
		t.Errorf("expected counters unchanged, got warehouse %d branch %d", got.Quantity, stock.Remaining)
	}
	if f.Count(t, &models.InventoryExport{}) != 0 || f.Count(t, &models.StocksTopUp{}) != 0 {
		t.Error("expected no ledger rows after failed export")
	}
}

func TestExport_Guards(t *testing.T) {
	f, svc, b, token := setup(t)
	inv := f.Inventory(t, "Oil", 10, "30", 2)
	ctx := context.Background()

	cases := []struct {
		name     string
		password string
		invID    uint
		branchID uint
		qty      int
		want     apperror.Kind
	}{
		{"wrong password", "nope", inv.ID, b.ID, 1, apperror.AuthInvalid},
		{"zero quantity", testfixture.Password, inv.ID, b.ID, 0, apperror.ValidationError},
		{"unknown item", testfixture.Password, 999, b.ID, 1, apperror.NotFound},
		{"unknown branch", testfixture.Password, inv.ID, 999, 1, apperror.NotFound},
	}
	for _, tc := range cases {
		_, err := svc.Export(ctx, token, tc.password, tc.invID, tc.branchID, tc.qty)
		if apperror.KindOf(err) != tc.want {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}

	var got models.Inventory
	f.Reload(t, &got, inv.ID)
	if got.Quantity != 10 {
		t.Errorf("expected quantity unchanged, got %d", got.Quantity)
	}
}

func TestTopUp(t *testing.T) {
	f, svc, _, token := setup(t)
	inv := f.Inventory(t, "Salt", 4, "2", 1)
	ctx := context.Background()

	if _, err := svc.TopUp(ctx, token, inv.ID, 6); err != nil {
		t.Fatalf("TopUp failed: %v", err)
	}
	_, err := svc.TopUp(ctx, token, inv.ID, -2)
	if apperror.KindOf(err) != apperror.ValidationError {
		t.Errorf("expected ValidationError for negative quantity, got %v", err)
	}

	var got models.Inventory
	f.Reload(t, &got, inv.ID)
	if got.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", got.Quantity)
	}
	if n := f.Count(t, &models.InventoryTopup{}); n != 1 {
		t.Errorf("expected 1 top-up record, got %d", n)
	}
}

func TestEdit_KeepsQuantity(t *testing.T) {
	f, svc, _, token := setup(t)
	inv := f.Inventory(t, "Milk", 12, "8", 2)
	ctx := context.Background()

	in := inventory.EditInput{
		Name:         "Milk 1L",
		CostPrice:    decimal.RequireFromString("5"),
		SellingPrice: decimal.RequireFromString("9.25"),
		Colour:       "white",
	}
	if _, err := svc.Edit(ctx, token, "wrong", inv.ID, in); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Fatalf("expected AuthInvalid, got %v", err)
	}

	got, err := svc.Edit(ctx, token, testfixture.Password, inv.ID, in)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got.Name != "Milk 1L" || !got.SellingPrice.Equal(decimal.RequireFromString("9.25")) {
		t.Errorf("unexpected edited item %+v", got)
	}
	if got.Quantity != 12 {
		t.Errorf("expected quantity untouched, got %d", got.Quantity)
	}
}

func TestGet_LoadsLedger(t *testing.T) {
	f, svc, b, token := setup(t)
	inv := f.Inventory(t, "Soap", 50, "3", 2)
	ctx := context.Background()
	if _, err := svc.Export(ctx, token, testfixture.Password, inv.ID, b.ID, 5); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	got, err := svc.Get(ctx, token, inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Exports) != 1 || got.Exports[0].Branch == nil || got.Exports[0].User == nil {
		t.Fatalf("expected export with branch and user, got %+v", got.Exports)
	}
	if len(got.Stocks) != 1 || len(got.Stocks[0].StockTopUps) != 1 {
		t.Errorf("expected one stock with one top-up, got %+v", got.Stocks)
	}

	if _, err := svc.Get(ctx, token, 999); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestBranchStock(t *testing.T) {
	f, svc, b, _ := setup(t)
	other := f.Branch(t, "Tema")
	inv := f.Inventory(t, "Soap", 50, "3", 2)
	f.Stock(t, b.ID, inv.ID, 7)
	f.Stock(t, other.ID, inv.ID, 9)
	_, token := f.User(t, models.RoleSalesperson, &b.ID)

	res, err := svc.BranchStock(context.Background(), token)
	if err != nil {
		t.Fatalf("BranchStock failed: %v", err)
	}
	if len(res.Stocks) != 1 || res.Stocks[0].Remaining != 7 || res.Stocks[0].Inventory == nil {
		t.Errorf("expected own branch stock only, got %+v", res.Stocks)
	}

	_, noBranch := f.User(t, models.RoleSupervisor, nil)
	if _, err := svc.BranchStock(context.Background(), noBranch); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound for user without branch, got %v", err)
	}
}

func TestReport_Sheets(t *testing.T) {
	f, svc, b, token := setup(t)
	inv := f.Inventory(t, "Soap", 50, "3", 2)
	f.Stock(t, b.ID, inv.ID, 7)

	data, err := svc.Report(context.Background(), token)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Inventory")
	if err != nil || len(rows) != 2 || rows[1][1] != "Soap" {
		t.Errorf("unexpected Inventory sheet %v (%v)", rows, err)
	}
	rows, err = book.GetRows("Stocks")
	if err != nil || len(rows) != 2 || rows[1][0] != "Accra" || rows[1][2] != "7" {
		t.Errorf("unexpected Stocks sheet %v (%v)", rows, err)
	}
}
