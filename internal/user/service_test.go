package user_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"retail-backend/internal/apperror"
	"retail-backend/internal/auth"
	"retail-backend/internal/database"
	"retail-backend/internal/models"
	"retail-backend/internal/testfixture"
	"retail-backend/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent map[string]string
	fail bool
}

func (f *fakeSender) Send(_ context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("gateway down")
	}
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[phone] = message
	return nil
}

func newService(t *testing.T, f *testfixture.Fixture, sender *fakeSender) *user.Service {
	t.Helper()
	rdb, err := database.SQLX(f.DB)
	if err != nil {
		t.Fatalf("sqlx: %v", err)
	}
	return user.NewService(f.DB, user.NewCustomerRepository(rdb), f.Resolver, sender, zap.NewNop())
}

var codePattern = regexp.MustCompile(`code is (\d{6})\.`)

func TestCreate_SendsCodeThatLogsIn(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSupervisor, nil)
	sender := &fakeSender{}
	svc := newService(t, f, sender)

	users, err := svc.Create(context.Background(), token, user.CreateInput{
		FirstName:   "Kofi",
		LastName:    "Mensah",
		PhoneNumber: "0541112222",
		Email:       "Kofi@Shop.com",
		BranchID:    &b.ID,
		Role:        models.RoleSalesperson,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	m := codePattern.FindStringSubmatch(sender.sent["0541112222"])
	if m == nil {
		t.Fatalf("expected a six digit code in the SMS, got %q", sender.sent["0541112222"])
	}

	var created models.User
	if err := f.DB.Where("email = ?", "kofi@shop.com").First(&created).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if created.FirstName != "kofi" || !created.Active {
		t.Errorf("unexpected stored user %+v", created)
	}
	if !auth.VerifyPassword(created.PasswordHash, m[1]) {
		t.Error("expected SMS code to match stored hash")
	}
}

func TestCreate_SMSFailureRollsBack(t *testing.T) {
	f := testfixture.New(t)
	_, token := f.User(t, models.RoleSupervisor, nil)
	svc := newService(t, f, &fakeSender{fail: true})
	before := f.Count(t, &models.User{})

	_, err := svc.Create(context.Background(), token, user.CreateInput{
		FirstName: "Ama", LastName: "Owusu", PhoneNumber: "0201234000",
		Email: "ama@shop.com", Role: models.RoleSupervisor,
	})
	if apperror.KindOf(err) != apperror.DependencyFailure {
		t.Fatalf("expected DependencyFailure, got %v", err)
	}
	if got := f.Count(t, &models.User{}); got != before {
		t.Errorf("expected user count %d, got %d", before, got)
	}
	if n := f.Count(t, &models.AdminNote{}); n != 0 {
		t.Errorf("expected note rolled back, got %d", n)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := testfixture.New(t)
	existing, token := f.User(t, models.RoleSupervisor, nil)
	svc := newService(t, f, &fakeSender{})
	ctx := context.Background()

	_, err := svc.Create(ctx, token, user.CreateInput{
		FirstName: "Yaw", LastName: "Boateng", PhoneNumber: "0207770000",
		Email: "yaw@shop.com", Role: models.RoleSalesperson,
	})
	if apperror.KindOf(err) != apperror.ValidationError {
		t.Errorf("expected ValidationError for salesperson without branch, got %v", err)
	}

	_, err = svc.Create(ctx, token, user.CreateInput{
		FirstName: "Yaw", LastName: "Boateng", PhoneNumber: existing.PhoneNumber,
		Email: "yaw@shop.com", Role: models.RoleSupervisor,
	})
	if apperror.KindOf(err) != apperror.DuplicateResource {
		t.Fatalf("expected DuplicateResource, got %v", err)
	}
	if apperror.Message(err) != "email or phone is already in use" {
		t.Errorf("unexpected message %q", apperror.Message(err))
	}
}

func TestToggleBlock(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	admin, token := f.User(t, models.RoleSupervisor, nil)
	clerk, clerkToken := f.User(t, models.RoleSalesperson, &b.ID)
	svc := newService(t, f, &fakeSender{})
	ctx := context.Background()

	if _, err := svc.ToggleBlock(ctx, token, "wrong", clerk.ID); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Fatalf("expected AuthInvalid, got %v", err)
	}
	if _, err := svc.ToggleBlock(ctx, token, testfixture.Password, admin.ID); apperror.KindOf(err) != apperror.ValidationError {
		t.Fatalf("expected ValidationError for self block, got %v", err)
	}

	if _, err := svc.ToggleBlock(ctx, token, testfixture.Password, clerk.ID); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, err := f.Resolver.Authorize(ctx, clerkToken, auth.AnyActive); apperror.KindOf(err) != apperror.AccountSuspended {
		t.Errorf("expected blocked user to be suspended, got %v", err)
	}

	if _, err := svc.ToggleBlock(ctx, token, testfixture.Password, clerk.ID); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if _, err := f.Resolver.Authorize(ctx, clerkToken, auth.AnyActive); err != nil {
		t.Errorf("expected unblocked user to pass, got %v", err)
	}
	if n := f.Count(t, &models.AdminNote{}); n != 2 {
		t.Errorf("expected 2 notes, got %d", n)
	}
}

func TestList_OnlyPendingDeposits(t *testing.T) {
	f := testfixture.New(t)
	b := f.Branch(t, "Accra")
	_, token := f.User(t, models.RoleSupervisor, nil)
	clerk, _ := f.User(t, models.RoleSalesperson, &b.ID)
	svc := newService(t, f, &fakeSender{})

	for _, st := range []models.TransactionStatus{models.TransactionPending, models.TransactionApproved} {
		tr := models.Transaction{
			PaymentID: 1, UserID: clerk.ID, BranchID: b.ID, CustomerID: 1,
			Amount: decimal.NewFromInt(10), Type: "PAYMENT", Status: st,
		}
		if err := f.DB.Create(&tr).Error; err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	users, err := svc.List(context.Background(), token)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, u := range users {
		if u.ID == clerk.ID {
			if len(u.Deposits) != 1 || u.Deposits[0].Status != models.TransactionPending {
				t.Errorf("expected one pending deposit, got %+v", u.Deposits)
			}
			if u.Branch == nil || u.Branch.Name != "Accra" {
				t.Errorf("expected branch preloaded, got %+v", u.Branch)
			}
		}
	}
}

func TestCustomers_GroupedByBranch(t *testing.T) {
	f := testfixture.New(t)
	accra := f.Branch(t, "Accra")
	f.Branch(t, "Tema")
	_, token := f.User(t, models.RoleSupervisor, nil)
	svc := newService(t, f, &fakeSender{})

	cust := models.Customer{BranchID: accra.ID, Name: "Ama", PhoneNumber: "0240000001"}
	if err := f.DB.Create(&cust).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	for i, amount := range []string{"12.50", "7.50"} {
		p := models.Payment{
			OrderID: uint(i + 1), CustomerID: cust.ID,
			Amount: decimal.RequireFromString(amount), TotalAmount: decimal.RequireFromString(amount),
			AmountPayed: decimal.RequireFromString(amount), PaymentMethod: models.PaymentCash, PaymentStatus: "COMPLETED",
		}
		if err := f.DB.Create(&p).Error; err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	groups, err := svc.Customers(context.Background(), token)
	if err != nil {
		t.Fatalf("Customers failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 branch groups, got %d", len(groups))
	}
	if groups[0].BranchName != "Accra" || len(groups[0].Customers) != 1 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if !groups[0].Customers[0].TotalPayments.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected total 20, got %s", groups[0].Customers[0].TotalPayments)
	}
	if len(groups[1].Customers) != 0 {
		t.Errorf("expected empty Tema group, got %+v", groups[1].Customers)
	}
}
