package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is a catalog item held at the central warehouse.
type Inventory struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:150;not null" json:"name"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	Unit            string          `gorm:"size:30" json:"unit"`
	Dimension       string          `gorm:"size:60" json:"dimension"`
	Weight          string          `gorm:"size:60" json:"weight"`
	CostPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"costPrice"`
	SellingPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"sellingPrice"`
	Brand           string          `gorm:"size:100" json:"brand"`
	Colour          string          `gorm:"size:100" json:"colour"`
	Manufacturer    string          `gorm:"size:100" json:"manufacturer"`
	ExpirationAlert int             `gorm:"not null;default:0" json:"expirationAlert"`
	ExpireDate      *time.Time      `json:"expireDate"`
	Image           []byte          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Exports []InventoryExport `json:"exports,omitempty"`
	Topups  []InventoryTopup  `json:"topups,omitempty"`
	Stocks  []Stock           `json:"stocks,omitempty"`
}

// Stock is the quantity of one inventory item allocated to one branch.
type Stock struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BranchID    uint       `gorm:"not null;uniqueIndex:idx_stock_branch_inventory" json:"branchId"`
	Branch      *Branch    `json:"branch,omitempty"`
	InventoryID uint       `gorm:"not null;uniqueIndex:idx_stock_branch_inventory" json:"inventoryId"`
	Inventory   *Inventory `json:"inventory,omitempty"`
	Remaining   int        `gorm:"not null;default:0" json:"remaining"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	StockTopUps []StocksTopUp `gorm:"foreignKey:StockID" json:"stockTopUp,omitempty"`
}

// InventoryTopup records warehouse quantity added. Append only.
type InventoryTopup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	InventoryID uint      `gorm:"index;not null" json:"inventoryId"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// InventoryExport records a warehouse to branch transfer. Append only.
type InventoryExport struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	InventoryID uint      `gorm:"index;not null" json:"inventoryId"`
	BranchID    uint      `gorm:"index;not null" json:"branchId"`
	Branch      *Branch   `json:"branch,omitempty"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StocksTopUp records quantity added to a branch stock row. Append only.
type StocksTopUp struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StockID     uint      `gorm:"index;not null" json:"stockId"`
	BranchID    uint      `gorm:"index;not null" json:"branchId"`
	InventoryID uint      `gorm:"index;not null" json:"inventoryId"`
	Total       int       `gorm:"not null" json:"total"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
