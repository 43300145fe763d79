package branch

import (
	"retail-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

type TokenRequest struct {
	Token string `json:"token"`
}

type CreateBranchRequest struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Number  string `json:"number"`
}

type UpdateBranchRequest struct {
	Token   string  `json:"token"`
	ID      uint    `json:"id"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
	Number  *string `json:"number"`
}

// POST /branch/new
func CreateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.New(apperror.ValidationError, "client request error")
		}

		branches, err := svc.Create(c.UserContext(), body.Token, CreateInput{
			Name:    body.Name,
			Address: body.Address,
			Email:   body.Email,
			Phone:   body.Number,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"error": false, "message": "", "branches": branches})
	}
}

// POST /branch/all
func ListBranchesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.New(apperror.ValidationError, "client request error")
		}

		branches, err := svc.List(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "branches": branches})
	}
}

// POST /branch/edit
func UpdateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil || body.ID == 0 {
			return apperror.New(apperror.ValidationError, "client request error")
		}

		branches, err := svc.Update(c.UserContext(), body.Token, body.ID, UpdateInput{
			Name:    body.Name,
			Address: body.Address,
			Email:   body.Email,
			Phone:   body.Number,
		})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "branches": branches})
	}
}
