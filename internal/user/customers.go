package user

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CustomerTotal struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	Location      string          `json:"location"`
	TotalPayments decimal.Decimal `json:"totalPayments"`
}

type BranchCustomers struct {
	BranchName string          `json:"branchName"`
	Location   string          `json:"location"`
	Customers  []CustomerTotal `json:"customers"`
}

type customerRow struct {
	BranchID         uint            `db:"branch_id"`
	BranchName       string          `db:"branch_name"`
	BranchLocation   string          `db:"branch_location"`
	CustomerID       sql.NullInt64   `db:"customer_id"`
	CustomerName     sql.NullString  `db:"customer_name"`
	CustomerPhone    sql.NullString  `db:"customer_phone"`
	CustomerEmail    sql.NullString  `db:"customer_email"`
	CustomerLocation sql.NullString  `db:"customer_location"`
	TotalPayments    decimal.Decimal `db:"total_payments"`
}

// CustomerRepository runs the customer reporting queries.
type CustomerRepository struct {
	DB *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

// ByBranch lists every branch, including those without customers.
func (r *CustomerRepository) ByBranch(ctx context.Context) ([]BranchCustomers, error) {
	query := `
        SELECT b.id AS branch_id, b.name AS branch_name, b.location AS branch_location,
               c.id AS customer_id, c.name AS customer_name, c.phone_number AS customer_phone,
               c.email AS customer_email, c.location AS customer_location,
               COALESCE(SUM(p.amount), 0) AS total_payments
        FROM branches b
        LEFT JOIN customers c ON c.branch_id = b.id
        LEFT JOIN payments p ON p.customer_id = c.id
        GROUP BY b.id, b.name, b.location, c.id, c.name, c.phone_number, c.email, c.location
        ORDER BY b.name, b.id, c.name, c.id
    `
	var rows []customerRow
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	groups := []BranchCustomers{}
	var current uint
	for _, row := range rows {
		if len(groups) == 0 || row.BranchID != current {
			groups = append(groups, BranchCustomers{
				BranchName: row.BranchName,
				Location:   row.BranchLocation,
				Customers:  []CustomerTotal{},
			})
			current = row.BranchID
		}
		if !row.CustomerID.Valid {
			continue
		}
		g := &groups[len(groups)-1]
		g.Customers = append(g.Customers, CustomerTotal{
			ID:            uint(row.CustomerID.Int64),
			Name:          row.CustomerName.String,
			Phone:         row.CustomerPhone.String,
			Email:         row.CustomerEmail.String,
			Location:      row.CustomerLocation.String,
			TotalPayments: row.TotalPayments,
		})
	}
	return groups, nil
}
