package order

import (
	"retail-backend/internal/apperror"
	"retail-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TokenRequest struct {
	Token string `json:"token"`
}

type CartItem struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type CartCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type PlaceOrderRequest struct {
	Token     string               `json:"token"`
	Items     []CartItem           `json:"items"`
	Customer  CartCustomer         `json:"customer"`
	Payment   models.PaymentMethod `json:"payment"`
	Password  string               `json:"password"`
	RequestID string               `json:"requestId"`
}

type CancelOrderRequest struct {
	Token    string `json:"token"`
	ID       uint   `json:"id"`
	Password string `json:"password"`
	Reason   string `json:"reason"`
}

type RetrieveSaleRequest struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Password string `json:"password"`
}

func badRequest() error {
	return apperror.New(apperror.ValidationError, "client request error")
}

// POST /shop/order
func PlaceOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PlaceOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		items := make([]LineItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, LineItem{StockID: it.ID, Name: it.Name, Quantity: it.Quantity, Total: it.Total})
		}

		res, err := svc.Place(c.UserContext(), body.Token, PlaceInput{
			Items: items,
			Customer: CustomerInput{
				Name:     body.Customer.Name,
				Email:    body.Customer.Email,
				Phone:    body.Customer.Phone,
				Location: body.Customer.Location,
			},
			Payment:   body.Payment,
			Password:  body.Password,
			RequestID: body.RequestID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"error":   false,
			"message": "",
			"stocks":  res.Stocks,
			"orders":  res.Orders,
			"sales":   res.Sales,
		})
	}
}

// POST /shop/orders
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		res, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "orders": res.Orders, "sales": res.Sales})
	}
}

// POST /shop/order/delete
func CancelOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CancelOrderRequest
		if err := c.BodyParser(&body); err != nil || body.ID == 0 {
			return badRequest()
		}

		res, err := svc.Cancel(c.UserContext(), body.Token, body.Password, body.ID, body.Reason)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "orders": res.Orders, "sales": res.Sales})
	}
}

// POST /shop/order/retrieveSale
func RetrieveSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RetrieveSaleRequest
		if err := c.BodyParser(&body); err != nil || body.UserID == 0 {
			return badRequest()
		}

		amount, err := svc.RetrieveSale(c.UserContext(), body.Token, body.Password, body.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "amount": amount})
	}
}
