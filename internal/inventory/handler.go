package inventory

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"retail-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxImageSize = 5 << 20

type TokenRequest struct {
	Token string `json:"token" form:"token"`
}

// CreateInventoryRequest arrives as JSON or as a multipart form with an
// optional image file, so every field is a string.
type CreateInventoryRequest struct {
	Token           string `json:"token" form:"token"`
	Name            string `json:"name" form:"name"`
	Quantity        string `json:"quantity" form:"quantity"`
	Unit            string `json:"unit" form:"unit"`
	Dimension       string `json:"dimension" form:"dimension"`
	Weight          string `json:"weight" form:"weight"`
	CostPrice       string `json:"cost_price" form:"cost_price"`
	SellingPrice    string `json:"selling_price" form:"selling_price"`
	Brand           string `json:"brand" form:"brand"`
	Colors          string `json:"colors" form:"colors"`
	Manufacturer    string `json:"manufacturer" form:"manufacturer"`
	ExpirationAlert string `json:"expiration_alert" form:"expiration_alert"`
	ExpireDate      string `json:"expire_date" form:"expire_date"`
}

type OneInventoryRequest struct {
	Token       string `json:"token"`
	InventoryID uint   `json:"inventoryId"`
}

type EditInventoryRequest struct {
	Token        string `json:"token"`
	InventoryID  uint   `json:"inventoryId"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	CostPrice    string `json:"cost_price"`
	SellingPrice string `json:"selling_price"`
	Colors       string `json:"colors"`
	ExpireDate   string `json:"expire_date"`
}

type AddQuantityRequest struct {
	Token    string `json:"token"`
	ID       uint   `json:"id"`
	Quantity int    `json:"quantity"`
}

type ExportRequest struct {
	Token    string `json:"token"`
	ID       uint   `json:"id"`
	BranchID uint   `json:"branchId"`
	Quantity int    `json:"quantity"`
	Password string `json:"password"`
}

func badRequest() error {
	return apperror.New(apperror.ValidationError, "client request error")
}

// POST /inventory/new
func CreateInventoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		in, err := body.toInput()
		if err != nil {
			return err
		}
		if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
			if in.Image, err = readImage(c); err != nil {
				return err
			}
		}

		items, err := svc.Create(c.UserContext(), body.Token, in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"error": false, "message": "", "inventories": items})
	}
}

// POST /inventory/all
func ListInventoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		items, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "inventories": items})
	}
}

// POST /inventory/one
func GetInventoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OneInventoryRequest
		if err := c.BodyParser(&body); err != nil || body.InventoryID == 0 {
			return badRequest()
		}

		inv, err := svc.Get(c.UserContext(), body.Token, body.InventoryID)
		if err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "inventory": inv, "inventories": items})
	}
}

// POST /inventory/edit
func EditInventoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body EditInventoryRequest
		if err := c.BodyParser(&body); err != nil || body.InventoryID == 0 {
			return badRequest()
		}
		// Edit replaces every editable column, so nothing may be left out.
		if blank(body.Name, body.CostPrice, body.SellingPrice, body.ExpireDate) {
			return badRequest()
		}

		cost, err := parsePrice("cost price", body.CostPrice)
		if err != nil {
			return err
		}
		selling, err := parsePrice("selling price", body.SellingPrice)
		if err != nil {
			return err
		}
		expire, err := parseDate(body.ExpireDate)
		if err != nil {
			return err
		}

		inv, err := svc.Edit(c.UserContext(), body.Token, body.Password, body.InventoryID, EditInput{
			Name:         body.Name,
			CostPrice:    cost,
			SellingPrice: selling,
			Colour:       body.Colors,
			ExpireDate:   expire,
		})
		if err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "inventory": inv, "inventories": items})
	}
}

// POST /inventory/addQuantity
func AddQuantityHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddQuantityRequest
		if err := c.BodyParser(&body); err != nil || body.ID == 0 {
			return badRequest()
		}

		items, err := svc.TopUp(c.UserContext(), body.Token, body.ID, body.Quantity)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "inventories": items})
	}
}

// POST /inventory/export
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExportRequest
		if err := c.BodyParser(&body); err != nil || body.ID == 0 || body.BranchID == 0 {
			return badRequest()
		}

		items, err := svc.Export(c.UserContext(), body.Token, body.Password, body.ID, body.BranchID, body.Quantity)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "inventories": items})
	}
}

// POST /inventory/stock
func BranchStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		res, err := svc.BranchStock(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "stocks": res.Stocks, "sales": res.Sales})
	}
}

// POST /inventory/report
func ReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		data, err := svc.Report(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="inventory-%s.xlsx"`, time.Now().Format("2006-01-02")))
		return c.Send(data)
	}
}

func (r CreateInventoryRequest) toInput() (CreateInput, error) {
	qty, err := parseInt("quantity", r.Quantity)
	if err != nil {
		return CreateInput{}, err
	}
	alert, err := parseInt("expiration alert", r.ExpirationAlert)
	if err != nil {
		return CreateInput{}, err
	}
	cost, err := parsePrice("cost price", r.CostPrice)
	if err != nil {
		return CreateInput{}, err
	}
	selling, err := parsePrice("selling price", r.SellingPrice)
	if err != nil {
		return CreateInput{}, err
	}
	expire, err := parseDate(r.ExpireDate)
	if err != nil {
		return CreateInput{}, err
	}

	return CreateInput{
		Name:            r.Name,
		Quantity:        qty,
		Unit:            r.Unit,
		Dimension:       r.Dimension,
		Weight:          r.Weight,
		CostPrice:       cost,
		SellingPrice:    selling,
		Brand:           r.Brand,
		Colour:          r.Colors,
		Manufacturer:    r.Manufacturer,
		ExpirationAlert: alert,
		ExpireDate:      expire,
	}, nil
}

// readImage returns nil when the form has no image field.
func readImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	if !strings.HasPrefix(fh.Header.Get(fiber.HeaderContentType), "image/") {
		return nil, apperror.New(apperror.ValidationError, "invalid image file")
	}
	if fh.Size > maxImageSize {
		return nil, apperror.New(apperror.ValidationError, "image is larger than 5MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Wrap(apperror.ValidationError, "image could not be read", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperror.Wrap(apperror.ValidationError, "image could not be read", err)
	}
	return data, nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func parseInt(field, v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperror.Newf(apperror.ValidationError, "%s must be a whole number", field)
	}
	return n, nil
}

func parsePrice(field, v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, apperror.Newf(apperror.ValidationError, "%s must be a number", field)
	}
	return d.Round(2), nil
}

// parseDate accepts RFC 3339 timestamps and plain dates. Empty means no date.
func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.New(apperror.ValidationError, "expire date must be YYYY-MM-DD")
}
