package inventory

import (
	"context"

	"retail-backend/internal/apperror"
	"retail-backend/internal/auth"
	"retail-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	reportInventorySheet = "Inventory"
	reportStocksSheet    = "Stocks"
)

// Report builds an XLSX workbook with the warehouse items and every branch allocation.
func (s *Service) Report(ctx context.Context, token string) ([]byte, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}

	var items []models.Inventory
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperror.FromStore(err, "inventories")
	}
	var stocks []models.Stock
	err := s.db.WithContext(ctx).
		Preload("Branch").
		Preload("Inventory").
		Order("branch_id ASC, inventory_id ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, apperror.FromStore(err, "stocks")
	}

	data, err := buildReport(items, stocks)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "report could not be generated", err)
	}
	return data, nil
}

func buildReport(items []models.Inventory, stocks []models.Stock) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportInventorySheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportInventorySheet, "A1", &[]any{
		"ID", "Name", "Quantity", "Unit", "Cost Price", "Selling Price", "Brand", "Expiration Alert", "Expire Date",
	}); err != nil {
		return nil, err
	}
	for i, inv := range items {
		expire := ""
		if inv.ExpireDate != nil {
			expire = inv.ExpireDate.Format("2006-01-02")
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			inv.ID, inv.Name, inv.Quantity, inv.Unit,
			inv.CostPrice.InexactFloat64(), inv.SellingPrice.InexactFloat64(),
			inv.Brand, inv.ExpirationAlert, expire,
		}
		if err := f.SetSheetRow(reportInventorySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(reportStocksSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportStocksSheet, "A1", &[]any{"Branch", "Inventory", "Remaining"}); err != nil {
		return nil, err
	}
	for i, st := range stocks {
		var branchName, itemName string
		if st.Branch != nil {
			branchName = st.Branch.Name
		}
		if st.Inventory != nil {
			itemName = st.Inventory.Name
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(reportStocksSheet, cell, &[]any{branchName, itemName, st.Remaining}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
