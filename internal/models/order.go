package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated       OrderStatus = "CREATED"
	OrderStatusItemsReserved OrderStatus = "ITEMS_RESERVED"
	OrderStatusPaid          OrderStatus = "PAID"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentMomo   PaymentMethod = "MOMO"
	PaymentBank   PaymentMethod = "BANK"
	PaymentCredit PaymentMethod = "CREDIT"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMomo, PaymentBank, PaymentCredit:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionApproved TransactionStatus = "APPROVED"
)

type Customer struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BranchID    uint            `gorm:"index;not null" json:"branchId"`
	Name        string          `gorm:"size:150" json:"name"`
	Email       string          `gorm:"size:100" json:"email"`
	PhoneNumber string          `gorm:"size:30;uniqueIndex;not null" json:"phoneNumber"`
	Location    string          `gorm:"size:255" json:"location"`
	Balance     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Status     OrderStatus `gorm:"size:20;not null" json:"status"`
	HandlerID  uint        `gorm:"index;not null" json:"handlerId"`
	Handler    *User       `json:"handler,omitempty"`
	BranchID   uint        `gorm:"index;not null" json:"branchId"`
	CustomerID uint        `gorm:"index;not null" json:"customerId"`
	Customer   *Customer   `json:"customer,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	Items   []OrderItem `json:"items"`
	Payment *Payment    `json:"payment,omitempty"`
}

// OrderItem freezes the selling price at sale time.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"orderId"`
	InventoryID uint            `gorm:"index;not null" json:"inventoryId"`
	Inventory   *Inventory      `json:"inventory,omitempty"`
	StockID     uint            `gorm:"index;not null" json:"stockId"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"uniqueIndex;not null" json:"orderId"`
	CustomerID    uint            `gorm:"index;not null" json:"customerId"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	AmountPayed   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amountPayed"`
	PaymentMethod PaymentMethod   `gorm:"size:10;not null" json:"paymentMethod"`
	PaymentStatus string          `gorm:"size:20;not null" json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Transaction is the cash custody record of a payment, held by UserID until
// a supervisor retrieves the sale.
type Transaction struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	PaymentID  uint              `gorm:"index;not null" json:"paymentId"`
	UserID     uint              `gorm:"index;not null" json:"userId"`
	BranchID   uint              `gorm:"index;not null" json:"branchId"`
	CustomerID uint              `gorm:"index;not null" json:"customerId"`
	Amount     decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type       string            `gorm:"size:20;not null" json:"type"`
	Status     TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
