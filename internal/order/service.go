package order

import (
	"context"
	"fmt"
	"strings"

	"retail-backend/internal/apperror"
	"retail-backend/internal/audit"
	"retail-backend/internal/auth"
	"retail-backend/internal/cache"
	"retail-backend/internal/metrics"
	"retail-backend/internal/models"
	"retail-backend/internal/notify"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier queues outbound messages. Delivery failures never reach the caller.
type Notifier interface {
	Enqueue(msgs ...notify.Message)
}

type LineItem struct {
	StockID  uint
	Name     string
	Quantity int
	Total    decimal.Decimal
}

type CustomerInput struct {
	Name     string
	Email    string
	Phone    string
	Location string
}

type PlaceInput struct {
	Items     []LineItem
	Customer  CustomerInput
	Payment   models.PaymentMethod
	Password  string
	RequestID string
}

// Result is the caller's view after an order operation.
type Result struct {
	Stocks []models.Stock  `json:"stocks,omitempty"`
	Orders []models.Order  `json:"orders"`
	Sales  decimal.Decimal `json:"sales"`
}

type Options struct {
	AlertPhone  string
	CompanyName string
}

type Service struct {
	db       *gorm.DB
	resolver *auth.Resolver
	notifier Notifier
	guard    cache.Guard
	opts     Options
	log      *zap.Logger
}

func NewService(db *gorm.DB, resolver *auth.Resolver, notifier Notifier, guard cache.Guard, opts Options, log *zap.Logger) *Service {
	if guard == nil {
		guard = cache.NoopGuard{}
	}
	return &Service{db: db, resolver: resolver, notifier: notifier, guard: guard, opts: opts, log: log}
}

type stockAlert struct {
	kind string
	text string
}

// Place sells a cart from the caller's branch. Every write happens in one
// transaction; messages are queued only after it commits.
func (s *Service) Place(ctx context.Context, token string, in PlaceInput) (*Result, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.AnyActive)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Reauthenticate(actor, in.Password); err != nil {
		return nil, err
	}
	if in.Payment == models.PaymentCredit {
		return nil, apperror.New(apperror.ValidationError, "credit payment not supported yet")
	}
	if !in.Payment.Valid() {
		return nil, apperror.New(apperror.ValidationError, "unknown payment method")
	}
	if actor.User.BranchID == nil {
		return nil, apperror.New(apperror.NotFound, "branch not found")
	}
	if err := validateCart(in); err != nil {
		return nil, err
	}
	branchID := *actor.User.BranchID

	if in.RequestID != "" {
		ok, err := s.guard.Acquire(ctx, in.RequestID)
		if err != nil {
			return nil, apperror.Wrap(apperror.DependencyFailure, "could not verify order request", err)
		}
		if !ok {
			return nil, apperror.New(apperror.DuplicateResource, "order already submitted")
		}
	}

	var (
		alerts []stockAlert
		total  decimal.Decimal
		placed models.Order
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alerts = alerts[:0]
		total = decimal.Zero

		customer, err := upsertCustomer(tx, in.Customer, branchID)
		if err != nil {
			return err
		}

		placed = models.Order{
			Status:     models.OrderStatusCreated,
			HandlerID:  actor.UserID(),
			BranchID:   branchID,
			CustomerID: customer.ID,
		}
		if err := tx.Create(&placed).Error; err != nil {
			return apperror.FromStore(err, "order")
		}

		for _, item := range in.Items {
			line, alert, err := s.reserve(tx, placed.ID, branchID, item)
			if err != nil {
				return err
			}
			total = total.Add(line)
			alerts = append(alerts, alert...)
		}
		if err := setStatus(tx, placed.ID, models.OrderStatusItemsReserved); err != nil {
			return err
		}

		payment := models.Payment{
			OrderID:       placed.ID,
			CustomerID:    customer.ID,
			Amount:        total,
			TotalAmount:   total,
			AmountPayed:   total,
			PaymentMethod: in.Payment,
			PaymentStatus: "COMPLETED",
		}
		if err := tx.Create(&payment).Error; err != nil {
			return apperror.FromStore(err, "payment")
		}
		if err := tx.Create(&models.Transaction{
			PaymentID:  payment.ID,
			UserID:     actor.UserID(),
			BranchID:   branchID,
			CustomerID: customer.ID,
			Amount:     total,
			Type:       "PAYMENT",
			Status:     models.TransactionPending,
		}).Error; err != nil {
			return apperror.FromStore(err, "transaction")
		}

		err = tx.Model(&models.User{}).
			Where("id = ?", actor.UserID()).
			UpdateColumn("sales", gorm.Expr("sales + ?", total)).Error
		if err != nil {
			return apperror.FromStore(err, "user")
		}
		return setStatus(tx, placed.ID, models.OrderStatusPaid)
	})
	if err != nil {
		if in.RequestID != "" {
			if rerr := s.guard.Release(context.WithoutCancel(ctx), in.RequestID); rerr != nil {
				s.log.Warn("Order request key not released", zap.String("request_id", in.RequestID), zap.Error(rerr))
			}
		}
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	msgs := make([]notify.Message, 0, len(alerts)+1)
	for _, a := range alerts {
		metrics.StockAlerts.WithLabelValues(a.kind).Inc()
		msgs = append(msgs, notify.Message{Phone: s.opts.AlertPhone, Text: a.text})
	}
	msgs = append(msgs, notify.Message{Phone: strings.TrimSpace(in.Customer.Phone), Text: s.thankYou(total)})
	s.notifier.Enqueue(msgs...)

	s.log.Info("Order placed",
		zap.Uint("order_id", placed.ID),
		zap.Uint("handler_id", actor.UserID()),
		zap.String("total", total.StringFixed(2)),
		zap.Int("alerts", len(alerts)),
	)

	res, err := s.view(ctx, actor.UserID(), false)
	if err != nil {
		return nil, err
	}
	stocks, err := branchStocks(s.db.WithContext(ctx), branchID)
	if err != nil {
		return nil, err
	}
	res.Stocks = stocks
	return res, nil
}

// reserve takes item.Quantity off the stock row, appends the order item at
// the current selling price and returns the line total with any threshold alerts.
func (s *Service) reserve(tx *gorm.DB, orderID, branchID uint, item LineItem) (decimal.Decimal, []stockAlert, error) {
	var stock models.Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Inventory").
		Preload("Branch").
		First(&stock, item.StockID).Error
	if err != nil {
		return decimal.Zero, nil, apperror.FromStore(err, "stock")
	}
	if stock.BranchID != branchID {
		return decimal.Zero, nil, apperror.Newf(apperror.ValidationError, "%s is not stocked at your branch", stock.Inventory.Name)
	}

	price := stock.Inventory.SellingPrice
	line := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if !item.Total.Equal(line) {
		return decimal.Zero, nil, apperror.Newf(apperror.ValidationError,
			"total for %s should be %s", stock.Inventory.Name, line.StringFixed(2))
	}

	res := tx.Model(&models.Stock{}).
		Where("id = ? AND remaining >= ?", stock.ID, item.Quantity).
		UpdateColumn("remaining", gorm.Expr("remaining - ?", item.Quantity))
	if res.Error != nil {
		return decimal.Zero, nil, apperror.FromStore(res.Error, "stock")
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, nil, apperror.Newf(apperror.InsufficientStock, "not enough stock for %s", stock.Inventory.Name)
	}
	if err := tx.Model(&models.Stock{}).Select("remaining").Where("id = ?", stock.ID).Scan(&stock.Remaining).Error; err != nil {
		return decimal.Zero, nil, apperror.FromStore(err, "stock")
	}

	alerts, err := thresholdAlerts(tx, &stock)
	if err != nil {
		return decimal.Zero, nil, err
	}

	if err := tx.Create(&models.OrderItem{
		OrderID:     orderID,
		InventoryID: stock.InventoryID,
		StockID:     stock.ID,
		Quantity:    item.Quantity,
		Price:       price,
	}).Error; err != nil {
		return decimal.Zero, nil, apperror.FromStore(err, "order item")
	}
	return line, alerts, nil
}

// thresholdAlerts runs after every decrement. The low and out checks are
// independent so one item can raise at most one of them per line.
func thresholdAlerts(tx *gorm.DB, stock *models.Stock) ([]stockAlert, error) {
	inv := stock.Inventory
	verb := "is"
	if inv.Quantity > 1 {
		verb = "are"
	}

	var alerts []stockAlert
	if stock.Remaining > 0 && stock.Remaining < inv.ExpirationAlert {
		alerts = append(alerts, stockAlert{kind: "low", text: fmt.Sprintf(
			"%s is running low in %s, with only %d left on-site, and there %s %d available in the warehouse.",
			inv.Name, stock.Branch.Name, stock.Remaining, verb, inv.Quantity)})
	}
	if stock.Remaining == 0 {
		alerts = append(alerts, stockAlert{kind: "out", text: fmt.Sprintf(
			"%s is out of stock in %s, and there %s %d available in the warehouse.",
			inv.Name, stock.Branch.Name, verb, inv.Quantity)})
	}

	for _, a := range alerts {
		if err := audit.WriteNote(tx, audit.NoteOptions{
			Severity:   models.SeverityHigh,
			Message:    a.text,
			EntityType: "stock",
			EntityID:   stock.ID,
		}); err != nil {
			return nil, err
		}
	}
	return alerts, nil
}

// List returns every order for supervisors and the caller's own orders otherwise.
func (s *Service) List(ctx context.Context, token string) (*Result, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.AnyActive)
	if err != nil {
		return nil, err
	}
	if actor.User.BranchID == nil && !actor.IsAdmin {
		return nil, apperror.New(apperror.NotFound, "branch not found")
	}
	return s.view(ctx, actor.UserID(), actor.IsAdmin)
}

// Cancel reverses an order: the handler's sales, each stock row it drew
// from, and every row the order created.
func (s *Service) Cancel(ctx context.Context, token, password string, orderID uint, reason string) (*Result, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.AnyActive)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Reauthenticate(actor, password); err != nil {
		return nil, err
	}
	if actor.User.BranchID == nil && !actor.IsAdmin {
		return nil, apperror.New(apperror.NotFound, "branch not found")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.ValidationError, "a reason is required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, orderID).Error; err != nil {
			return apperror.FromStore(err, "order")
		}
		if !actor.IsAdmin && o.HandlerID != actor.UserID() {
			return apperror.New(apperror.PermissionDenied, "you can only cancel orders you handled")
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
			return apperror.FromStore(err, "order items")
		}
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Total())
		}

		// The total comes off the handler's current sales even when the
		// order's cash was already retrieved.
		err := tx.Model(&models.User{}).
			Where("id = ?", o.HandlerID).
			UpdateColumn("sales", gorm.Expr("CASE WHEN sales > ? THEN sales - ? ELSE 0 END", total, total)).Error
		if err != nil {
			return apperror.FromStore(err, "user")
		}

		for _, it := range items {
			res := tx.Model(&models.Stock{}).
				Where("id = ?", it.StockID).
				UpdateColumn("remaining", gorm.Expr("remaining + ?", it.Quantity))
			if res.Error != nil {
				return apperror.FromStore(res.Error, "stock")
			}
			if res.RowsAffected == 0 {
				return apperror.New(apperror.NotFound, "stock not found")
			}
		}

		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return apperror.FromStore(err, "order items")
		}
		var payments []models.Payment
		if err := tx.Where("order_id = ?", o.ID).Find(&payments).Error; err != nil {
			return apperror.FromStore(err, "payment")
		}
		for _, p := range payments {
			if err := tx.Where("payment_id = ?", p.ID).Delete(&models.Transaction{}).Error; err != nil {
				return apperror.FromStore(err, "transaction")
			}
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.Payment{}).Error; err != nil {
			return apperror.FromStore(err, "payment")
		}
		if err := tx.Delete(&o).Error; err != nil {
			return apperror.FromStore(err, "order")
		}

		actorID := actor.UserID()
		return audit.WriteNote(tx, audit.NoteOptions{
			Severity: models.SeverityMedium,
			Message: fmt.Sprintf("Order #%d (%s) canceled by %s [%s] with reason %s",
				o.ID, total.StringFixed(2), actor.User.FullName(), actor.User.PhoneNumber, reason),
			ActorID:    &actorID,
			EntityType: "order",
			EntityID:   o.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelled.Inc()
	s.log.Info("Order cancelled", zap.Uint("order_id", orderID), zap.Uint("actor_id", actor.UserID()))
	return s.view(ctx, actor.UserID(), actor.IsAdmin)
}

// RetrieveSale collects a user's cash: pending transactions become approved
// and the sales counter goes back to zero. It returns the amount collected.
func (s *Service) RetrieveSale(ctx context.Context, token, password string, userID uint) (decimal.Decimal, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.resolver.Reauthenticate(actor, password); err != nil {
		return decimal.Zero, err
	}

	var amount decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var emp models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Branch").
			First(&emp, userID).Error
		if err != nil {
			return apperror.FromStore(err, "user")
		}
		amount = emp.Sales

		err = tx.Model(&models.Transaction{}).
			Where("user_id = ? AND status = ?", emp.ID, models.TransactionPending).
			Update("status", models.TransactionApproved).Error
		if err != nil {
			return apperror.FromStore(err, "transactions")
		}
		if err := tx.Model(&emp).UpdateColumn("sales", decimal.Zero).Error; err != nil {
			return apperror.FromStore(err, "user")
		}

		branchName := "no branch"
		if emp.Branch != nil {
			branchName = emp.Branch.Name
		}
		actorID := actor.UserID()
		return audit.WriteNote(tx, audit.NoteOptions{
			Severity: models.SeverityHigh,
			Message: fmt.Sprintf("%s [%s] has retrieved sales of %s from %s in %s",
				actor.User.FullName(), actor.User.PhoneNumber, amount.StringFixed(2), emp.FullName(), branchName),
			ActorID:    &actorID,
			EntityType: "user",
			EntityID:   emp.ID,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	metrics.SalesRetrieved.Inc()
	s.log.Info("Sales retrieved",
		zap.Uint("user_id", userID),
		zap.Uint("actor_id", actor.UserID()),
		zap.String("amount", amount.StringFixed(2)),
	)
	return amount, nil
}

func (s *Service) thankYou(total decimal.Decimal) string {
	return fmt.Sprintf("Thank you for choosing %s! We're thrilled to have had the opportunity to serve you, "+
		"and we hope you're delighted with your recent purchase. Your total for this transaction is ₵%s. "+
		"Collect receipt before you leave", s.opts.CompanyName, total.StringFixed(2))
}

// view loads the orders visible to userID and that user's current sales.
func (s *Service) view(ctx context.Context, userID uint, all bool) (*Result, error) {
	db := s.db.WithContext(ctx)

	q := db.Preload("Items.Inventory").
		Preload("Customer").
		Preload("Handler.Branch").
		Preload("Payment").
		Order("created_at DESC, id DESC")
	if !all {
		q = q.Where("handler_id = ?", userID)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, apperror.FromStore(err, "orders")
	}

	var u models.User
	if err := db.Select("id", "sales").First(&u, userID).Error; err != nil {
		return nil, apperror.FromStore(err, "user")
	}
	return &Result{Orders: orders, Sales: u.Sales}, nil
}

func upsertCustomer(tx *gorm.DB, in CustomerInput, branchID uint) (*models.Customer, error) {
	c := models.Customer{
		BranchID:    branchID,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber: strings.TrimSpace(in.Phone),
		Location:    strings.TrimSpace(in.Location),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "location", "updated_at"}),
	}).Create(&c).Error
	if err != nil {
		return nil, apperror.FromStore(err, "customer")
	}
	if err := tx.Where("phone_number = ?", c.PhoneNumber).First(&c).Error; err != nil {
		return nil, apperror.FromStore(err, "customer")
	}
	return &c, nil
}

func setStatus(tx *gorm.DB, orderID uint, status models.OrderStatus) error {
	err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
	if err != nil {
		return apperror.FromStore(err, "order")
	}
	return nil
}

func branchStocks(db *gorm.DB, branchID uint) ([]models.Stock, error) {
	var stocks []models.Stock
	err := db.Where("branch_id = ?", branchID).Preload("Inventory").Order("id ASC").Find(&stocks).Error
	if err != nil {
		return nil, apperror.FromStore(err, "stocks")
	}
	return stocks, nil
}

func validateCart(in PlaceInput) error {
	if len(in.Items) == 0 {
		return apperror.New(apperror.ValidationError, "cart is empty")
	}
	if strings.TrimSpace(in.Customer.Phone) == "" {
		return apperror.New(apperror.ValidationError, "customer phone number is required")
	}
	for _, it := range in.Items {
		if it.StockID == 0 {
			return apperror.New(apperror.ValidationError, "cart item has no stock id")
		}
		if it.Quantity <= 0 {
			return apperror.Newf(apperror.ValidationError, "quantity for %s must be positive", it.Name)
		}
		if it.Total.IsNegative() {
			return apperror.Newf(apperror.ValidationError, "total for %s cannot be negative", it.Name)
		}
	}
	return nil
}
