package branch_test

import (
	"context"
	"testing"

	"retail-backend/internal/apperror"
	"retail-backend/internal/branch"
	"retail-backend/internal/models"
	"retail-backend/internal/testfixture"
)

func TestCreate_ReturnsAllBranches(t *testing.T) {
	f := testfixture.New(t)
	f.Branch(t, "Kumasi")
	_, token := f.User(t, models.RoleSupervisor, nil)
	svc := branch.NewService(f.DB, f.Resolver)

	branches, err := svc.Create(context.Background(), token, branch.CreateInput{
		Name:    " Accra ",
		Address: "Ring Road",
		Email:   "Accra@Shop.com",
		Phone:   "0301234567",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if branches[0].Name != "Accra" || branches[0].Email != "accra@shop.com" {
		t.Errorf("unexpected normalized branch %+v", branches[0])
	}
}

func TestCreate_Duplicate(t *testing.T) {
	f := testfixture.New(t)
	f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSupervisor, nil)
	svc := branch.NewService(f.DB, f.Resolver)

	_, err := svc.Create(context.Background(), token, branch.CreateInput{Name: "Accra"})
	if apperror.KindOf(err) != apperror.DuplicateResource {
		t.Fatalf("expected DuplicateResource, got %v", err)
	}
	if apperror.Message(err) != "store with same information exists" {
		t.Errorf("unexpected message %q", apperror.Message(err))
	}
}

func TestCreate_RequiresSupervisor(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSalesperson, &b.ID)
	svc := branch.NewService(f.DB, f.Resolver)

	_, err := svc.Create(context.Background(), token, branch.CreateInput{Name: "Tema"})
	if apperror.KindOf(err) != apperror.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if n := f.Count(t, &models.Branch{}); n != 1 {
		t.Errorf("expected no new branch, got %d rows", n)
	}
}

func TestUpdate_WritesNote(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSupervisor, nil)
	svc := branch.NewService(f.DB, f.Resolver)

	phone := "0559999999"
	if _, err := svc.Update(context.Background(), token, b.ID, branch.UpdateInput{Phone: &phone}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var got models.Branch
	f.Reload(t, &got, b.ID)
	if got.Phone != phone || got.Name != "Accra" {
		t.Errorf("unexpected branch after update %+v", got)
	}
	if n := f.Count(t, &models.AdminNote{}); n != 1 {
		t.Errorf("expected 1 admin note, got %d", n)
	}

	_, err := svc.Update(context.Background(), token, 999, branch.UpdateInput{Phone: &phone})
	if apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestOverview_IncludesStocksAndCustomers(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	inv := f.Inventory(t, "Rice", 10, "12.50", 3)
	f.Stock(t, b.ID, inv.ID, 4)
	_, token := f.User(t, models.RoleSupervisor, nil)
	if err := f.DB.Create(&models.Customer{BranchID: b.ID, Name: "Ama", PhoneNumber: "0241111111"}).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	svc := branch.NewService(f.DB, f.Resolver)

	branches, err := svc.Overview(context.Background(), token)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if len(branches) != 1 || len(branches[0].Stocks) != 1 || len(branches[0].Customers) != 1 {
		t.Fatalf("unexpected overview %+v", branches)
	}
}
