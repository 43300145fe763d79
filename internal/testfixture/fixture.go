// Package testfixture seeds branches, users, inventory and stock rows on a
// test database and issues tokens for the seeded users.
package testfixture

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"retail-backend/internal/auth"
	"retail-backend/internal/models"
	"retail-backend/internal/testdb"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	Secret   = "test-secret-0123456789abcdef0123456789"
	Password = "s3cret-pass"
)

var seq atomic.Int64

type Fixture struct {
	DB       *gorm.DB
	Resolver *auth.Resolver
}

func New(t *testing.T) *Fixture {
	t.Helper()
	db := testdb.Open(t)
	return &Fixture{DB: db, Resolver: auth.NewResolver(db, Secret)}
}

func (f *Fixture) Branch(t *testing.T, name string) models.Branch {
	t.Helper()
	b := models.Branch{Name: name, Location: name + " street", Phone: "0200000000"}
	if err := f.DB.Create(&b).Error; err != nil {
		t.Fatalf("create branch: %v", err)
	}
	return b
}

// User creates an active user with Password and returns it with a valid token.
func (f *Fixture) User(t *testing.T, role models.UserRole, branchID *uint) (models.User, string) {
	t.Helper()
	n := seq.Add(1)
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{
		FirstName:    "user",
		LastName:     fmt.Sprintf("n%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PhoneNumber:  fmt.Sprintf("024%07d", n),
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		BranchID:     branchID,
	}
	if err := f.DB.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u, f.Token(t, &u)
}

func (f *Fixture) Token(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(Secret, 24*time.Hour, u)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (f *Fixture) Deactivate(t *testing.T, u *models.User) {
	t.Helper()
	if err := f.DB.Model(u).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}
}

func (f *Fixture) Inventory(t *testing.T, name string, quantity int, price string, alert int) models.Inventory {
	t.Helper()
	inv := models.Inventory{
		Name:            name,
		Quantity:        quantity,
		Unit:            "pcs",
		CostPrice:       decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		SellingPrice:    decimal.RequireFromString(price),
		ExpirationAlert: alert,
	}
	if err := f.DB.Create(&inv).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return inv
}

func (f *Fixture) Stock(t *testing.T, branchID, inventoryID uint, remaining int) models.Stock {
	t.Helper()
	s := models.Stock{BranchID: branchID, InventoryID: inventoryID, Remaining: remaining}
	if err := f.DB.Create(&s).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	return s
}

func (f *Fixture) Reload(t *testing.T, dest any, id uint) {
	t.Helper()
	if err := f.DB.First(dest, id).Error; err != nil {
		t.Fatalf("reload %T(%d): %v", dest, id, err)
	}
}

func (f *Fixture) Count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.DB.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
