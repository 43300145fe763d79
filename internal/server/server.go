package server

import (
	"strings"

	"retail-backend/internal/apperror"
	"retail-backend/internal/audit"
	"retail-backend/internal/auth"
	"retail-backend/internal/branch"
	"retail-backend/internal/inventory"
	"retail-backend/internal/logger"
	"retail-backend/internal/metrics"
	"retail-backend/internal/order"
	"retail-backend/internal/user"
	"retail-backend/internal/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Services are built by the caller.
type Deps struct {
	DB          *gorm.DB
	Log         *zap.Logger
	CORSOrigins string

	Resolver  *auth.Resolver
	Auth      *auth.Service
	Branches  *branch.Service
	Inventory *inventory.Service
	Users     *user.Service
	Orders    *order.Service
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "retail-backend",
		BodyLimit:    8 << 20,
		ErrorHandler: errorHandler(d.Log),
	})

	origins := strings.Split(d.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,OPTIONS",
	}))
	app.Use(logger.Middleware(d.Log))
	app.Use(metrics.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"error": false, "message": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	app.Post("/login", auth.LoginHandler(d.Auth))
	app.Post("/notes", audit.ListNotesHandler(d.DB, d.Resolver))

	br := app.Group("/branch")
	br.Post("/new", branch.CreateBranchHandler(d.Branches))
	br.Post("/all", branch.ListBranchesHandler(d.Branches))
	br.Post("/edit", branch.UpdateBranchHandler(d.Branches))

	inv := app.Group("/inventory")
	inv.Post("/new", inventory.CreateInventoryHandler(d.Inventory))
	inv.Post("/all", inventory.ListInventoryHandler(d.Inventory))
	inv.Post("/one", inventory.GetInventoryHandler(d.Inventory))
	inv.Post("/edit", inventory.EditInventoryHandler(d.Inventory))
	inv.Post("/addQuantity", inventory.AddQuantityHandler(d.Inventory))
	inv.Post("/export", inventory.ExportHandler(d.Inventory))
	inv.Post("/stock", inventory.BranchStockHandler(d.Inventory))
	inv.Post("/report", inventory.ReportHandler(d.Inventory))

	usr := app.Group("/user")
	usr.Post("/new", user.CreateUserHandler(d.Users))
	usr.Post("/all", user.ListUsersHandler(d.Users))
	usr.Post("/blockedOrUnblocked", user.ToggleBlockHandler(d.Users))
	usr.Post("/customers", user.CustomersHandler(d.Users))

	shop := app.Group("/shop")
	shop.Post("/order", order.PlaceOrderHandler(d.Orders))
	shop.Post("/orders", order.ListOrdersHandler(d.Orders))
	shop.Post("/order/delete", order.CancelOrderHandler(d.Orders))
	shop.Post("/order/retrieveSale", order.RetrieveSaleHandler(d.Orders))

	dispatcher := ws.NewDispatcher(d.Branches, d.Users, d.Log)
	app.Get("/ws", ws.Upgrade(), ws.Handler(dispatcher, d.Log))

	return app
}

// errorHandler writes every failure as {error:true, message} with a status
// derived from the error kind.
func errorHandler(base *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"error": true, "message": e.Message})
		}

		kind := apperror.KindOf(err)
		if kind == apperror.Internal || kind == apperror.DependencyFailure {
			logger.FromCtx(c, base).Error("Request failed",
				zap.String("path", c.Path()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
		return c.Status(apperror.HTTPStatus(kind)).JSON(fiber.Map{
			"error":   true,
			"message": apperror.Message(err),
		})
	}
}
