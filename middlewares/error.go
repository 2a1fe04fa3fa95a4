package middlewares

import (
	"errors"
	"log"

	"loanrisk-backend/auth"
	"loanrisk-backend/database"
	"loanrisk-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Authentication failures (401)
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": authErr.Reason})
	}

	// 3) Request shape errors (400, listing every missing field)
	var valErr *utils.ValidationError
	if errors.As(err, &valErr) {
		body := fiber.Map{"error": valErr.Message}
		if len(valErr.Fields) > 0 {
			body["required"] = valErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	// 4) Struct validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 5) Ownership-scoped lookups miss as 404, never 403.
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	}

	// 6) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
