package user

import (
	"retail-backend/internal/apperror"
	"retail-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TokenRequest struct {
	Token string `json:"token"`
}

type CreateUserRequest struct {
	Token       string          `json:"token"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber string          `json:"phoneNumber"`
	Email       string          `json:"email"`
	BranchID    *uint           `json:"branchId"`
	Role        models.UserRole `json:"role"`
}

type ToggleBlockRequest struct {
	Token    string `json:"token"`
	ID       uint   `json:"id"`
	Password string `json:"password"`
}

func badRequest() error {
	return apperror.New(apperror.ValidationError, "client request error")
}

// POST /user/new
func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		users, err := svc.Create(c.UserContext(), body.Token, CreateInput{
			FirstName:   body.FirstName,
			LastName:    body.LastName,
			PhoneNumber: body.PhoneNumber,
			Email:       body.Email,
			BranchID:    body.BranchID,
			Role:        body.Role,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"error": false, "message": "", "users": users})
	}
}

// POST /user/all
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		users, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "users": users})
	}
}

// POST /user/blockedOrUnblocked
func ToggleBlockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ToggleBlockRequest
		if err := c.BodyParser(&body); err != nil || body.ID == 0 {
			return badRequest()
		}

		users, err := svc.ToggleBlock(c.UserContext(), body.Token, body.Password, body.ID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "users": users})
	}
}

// POST /user/customers
func CustomersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return badRequest()
		}

		groups, err := svc.Customers(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "customers": groups})
	}
}
