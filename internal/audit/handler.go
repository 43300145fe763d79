package audit

import (
	"strings"

	"retail-backend/internal/apperror"
	"retail-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxNotes = 500

type ListNotesRequest struct {
	Token      string `json:"token"`
	EntityType string `json:"entityType"`
	Limit      int    `json:"limit"`
}

// POST /notes
func ListNotesHandler(db *gorm.DB, resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ListNotesRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.New(apperror.ValidationError, "client request error")
		}

		ctx := c.UserContext()
		if _, err := resolver.Authorize(ctx, body.Token, auth.SupervisorOnly); err != nil {
			return err
		}

		limit := body.Limit
		if limit <= 0 || limit > maxNotes {
			limit = maxNotes
		}

		q := db.WithContext(ctx)
		if et := strings.TrimSpace(body.EntityType); et != "" {
			q = q.Where("entity_type = ?", et)
		}
		notes, err := ListNotes(q, limit)
		if err != nil {
			return apperror.Wrap(apperror.Internal, "could not access admin notes", err)
		}
		return c.JSON(fiber.Map{"error": false, "message": "", "messages": notes})
	}
}
