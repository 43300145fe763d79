package models

import "time"

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// AdminNote is an append-only audit/alert entry shown to supervisors.
type AdminNote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	Severity   Severity  `gorm:"size:10;not null" json:"severity"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	ActorID    *uint     `json:"actorId"`
	EntityType string    `gorm:"size:50;index" json:"entityType"`
	EntityID   uint      `gorm:"index" json:"entityId"`
}

// All lists every model for migrations.
func All() []any {
	return []any{
		&Branch{},
		&User{},
		&Inventory{},
		&Stock{},
		&InventoryTopup{},
		&InventoryExport{},
		&StocksTopUp{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Transaction{},
		&AdminNote{},
	}
}
