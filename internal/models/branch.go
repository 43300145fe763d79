package models

import "time"

type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Stocks    []Stock    `json:"stocks,omitempty"`
	Customers []Customer `json:"customers,omitempty"`
}
