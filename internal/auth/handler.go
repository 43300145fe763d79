package auth

import (
	"retail-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// POST /login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.New(apperror.ValidationError, "client request error")
		}

		token, err := svc.Login(c.UserContext(), body.ID, body.Password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"error":   false,
			"message": "",
			"token":   token,
		})
	}
}
