package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-backend/internal/apperror"
	"retail-backend/internal/audit"
	"retail-backend/internal/auth"
	"retail-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateInput struct {
	Name            string
	Quantity        int
	Unit            string
	Dimension       string
	Weight          string
	CostPrice       decimal.Decimal
	SellingPrice    decimal.Decimal
	Brand           string
	Colour          string
	Manufacturer    string
	ExpirationAlert int
	ExpireDate      *time.Time
	Image           []byte
}

// EditInput is the editable subset. Quantity only moves through TopUp and Export.
type EditInput struct {
	Name         string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Colour       string
	ExpireDate   *time.Time
}

// BranchStock is what a salesperson sees: the stock of their branch and
// their own running sales.
type BranchStock struct {
	Stocks []models.Stock  `json:"stocks"`
	Sales  decimal.Decimal `json:"sales"`
}

type Service struct {
	db       *gorm.DB
	resolver *auth.Resolver
}

func NewService(db *gorm.DB, resolver *auth.Resolver) *Service {
	return &Service{db: db, resolver: resolver}
}

// Create inserts the item and its opening top-up together.
func (s *Service) Create(ctx context.Context, token string, in CreateInput) ([]models.Inventory, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, apperror.New(apperror.ValidationError, "inventory name is required")
	case in.Quantity < 0:
		return nil, apperror.New(apperror.ValidationError, "quantity cannot be negative")
	case in.CostPrice.IsNegative() || in.SellingPrice.IsNegative():
		return nil, apperror.New(apperror.ValidationError, "prices cannot be negative")
	case in.ExpirationAlert < 0:
		return nil, apperror.New(apperror.ValidationError, "expiration alert cannot be negative")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv := models.Inventory{
			Name:            in.Name,
			Quantity:        in.Quantity,
			Unit:            strings.TrimSpace(in.Unit),
			Dimension:       strings.TrimSpace(in.Dimension),
			Weight:          strings.TrimSpace(in.Weight),
			CostPrice:       in.CostPrice,
			SellingPrice:    in.SellingPrice,
			Brand:           strings.TrimSpace(in.Brand),
			Colour:          strings.TrimSpace(in.Colour),
			Manufacturer:    strings.TrimSpace(in.Manufacturer),
			ExpirationAlert: in.ExpirationAlert,
			ExpireDate:      in.ExpireDate,
			Image:           in.Image,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return apperror.FromStore(err, "inventory")
		}

		topup := models.InventoryTopup{InventoryID: inv.ID, Quantity: in.Quantity, UserID: actor.UserID()}
		if err := tx.Create(&topup).Error; err != nil {
			return apperror.FromStore(err, "inventory top-up")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

func (s *Service) List(ctx context.Context, token string) ([]models.Inventory, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// Get returns one item with its full ledger history.
func (s *Service) Get(ctx context.Context, token string, id uint) (*models.Inventory, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *Service) Edit(ctx context.Context, token, password string, id uint, in EditInput) (*models.Inventory, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Reauthenticate(actor, password); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.New(apperror.ValidationError, "inventory name is required")
	}
	if in.CostPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return nil, apperror.New(apperror.ValidationError, "prices cannot be negative")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		if err := tx.First(&inv, id).Error; err != nil {
			return apperror.FromStore(err, "inventory")
		}

		err := tx.Model(&inv).Updates(map[string]any{
			"name":          in.Name,
			"cost_price":    in.CostPrice,
			"selling_price": in.SellingPrice,
			"colour":        strings.TrimSpace(in.Colour),
			"expire_date":   in.ExpireDate,
		}).Error
		if err != nil {
			return apperror.FromStore(err, "inventory")
		}

		actorID := actor.UserID()
		return audit.WriteNote(tx, audit.NoteOptions{
			Severity:   models.SeverityLow,
			Message:    fmt.Sprintf("%s was edited by %s [%s]", in.Name, actor.User.FullName(), actor.User.PhoneNumber),
			ActorID:    &actorID,
			EntityType: "inventory",
			EntityID:   inv.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

// TopUp adds warehouse quantity and appends a top-up record.
func (s *Service) TopUp(ctx context.Context, token string, id uint, qty int) ([]models.Inventory, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, apperror.New(apperror.ValidationError, "quantity must be a positive number")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return apperror.FromStore(err, "inventory")
		}

		err := tx.Model(&models.Inventory{}).
			Where("id = ?", inv.ID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
		if err != nil {
			return apperror.FromStore(err, "inventory")
		}

		topup := models.InventoryTopup{InventoryID: inv.ID, Quantity: qty, UserID: actor.UserID()}
		if err := tx.Create(&topup).Error; err != nil {
			return apperror.FromStore(err, "inventory top-up")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// Export moves qty units from the warehouse to a branch. Either every
// counter and ledger row changes or none does.
func (s *Service) Export(ctx context.Context, token, password string, id, branchID uint, qty int) ([]models.Inventory, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Reauthenticate(actor, password); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, apperror.New(apperror.ValidationError, "quantity must be a positive number")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return apperror.FromStore(err, "inventory")
		}
		var branch models.Branch
		if err := tx.First(&branch, branchID).Error; err != nil {
			return apperror.FromStore(err, "branch")
		}

		res := tx.Model(&models.Inventory{}).
			Where("id = ? AND quantity >= ?", inv.ID, qty).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return apperror.FromStore(res.Error, "inventory")
		}
		if res.RowsAffected == 0 {
			return apperror.Newf(apperror.InsufficientInventory,
				"inventory quantity not enough, %d available", inv.Quantity)
		}

		stock := models.Stock{BranchID: branch.ID, InventoryID: inv.ID, Remaining: qty}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "branch_id"}, {Name: "inventory_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"remaining":  gorm.Expr("stocks.remaining + ?", qty),
				"updated_at": time.Now().UTC(),
			}),
		}).Create(&stock).Error
		if err != nil {
			return apperror.FromStore(err, "stock")
		}
		if err := tx.Where("branch_id = ? AND inventory_id = ?", branch.ID, inv.ID).First(&stock).Error; err != nil {
			return apperror.FromStore(err, "stock")
		}

		userID := actor.UserID()
		if err := tx.Create(&models.StocksTopUp{
			StockID:     stock.ID,
			BranchID:    branch.ID,
			InventoryID: inv.ID,
			Total:       qty,
			UserID:      userID,
		}).Error; err != nil {
			return apperror.FromStore(err, "stock top-up")
		}
		if err := tx.Create(&models.InventoryExport{
			InventoryID: inv.ID,
			BranchID:    branch.ID,
			Quantity:    qty,
			UserID:      userID,
		}).Error; err != nil {
			return apperror.FromStore(err, "inventory export")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// BranchStock lists the caller's branch stock.
func (s *Service) BranchStock(ctx context.Context, token string) (*BranchStock, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.AnyActive)
	if err != nil {
		return nil, err
	}
	if actor.User.BranchID == nil {
		return nil, apperror.New(apperror.NotFound, "branch not found")
	}

	var stocks []models.Stock
	err = s.db.WithContext(ctx).
		Where("branch_id = ?", *actor.User.BranchID).
		Preload("Inventory").
		Order("id ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, apperror.FromStore(err, "stocks")
	}
	return &BranchStock{Stocks: stocks, Sales: actor.User.Sales}, nil
}

func (s *Service) all(ctx context.Context) ([]models.Inventory, error) {
	var items []models.Inventory
	err := s.db.WithContext(ctx).
		Preload("Exports").
		Preload("Topups").
		Order("created_at DESC, quantity ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperror.FromStore(err, "inventories")
	}
	return items, nil
}

func (s *Service) detail(ctx context.Context, id uint) (*models.Inventory, error) {
	newestFirst := func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC, quantity ASC")
	}

	var inv models.Inventory
	err := s.db.WithContext(ctx).
		Preload("Exports", newestFirst).
		Preload("Exports.Branch").
		Preload("Exports.User").
		Preload("Topups", newestFirst).
		Preload("Topups.User").
		Preload("Stocks.Branch").
		Preload("Stocks.StockTopUps.User").
		First(&inv, id).Error
	if err != nil {
		return nil, apperror.FromStore(err, "inventory")
	}
	return &inv, nil
}
