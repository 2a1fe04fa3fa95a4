package middlewares

import (
	"strings"

	"loanrisk-backend/auth"
	"loanrisk-backend/database"
	"loanrisk-backend/models"

	"github.com/gofiber/fiber/v2"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "

	userLocal  = "user"
	tokenLocal = "token"
)

var verifier auth.TokenVerifier

// UseVerifier installs the token verification strategy. Called once at startup.
func UseVerifier(v auth.TokenVerifier) {
	verifier = v
}

// Authenticate validates the Bearer token and resolves the local user record,
// creating it the first time a provider subject is seen. The user and the raw
// token are stashed in c.Locals for the handlers.
func Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "server auth not configured",
			})
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			// No credential; every routed endpoint requires one.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid bearer token"})
		}

		claims, err := verifier.Verify(c.UserContext(), raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		user, err := database.Users.GetOrCreate(claims.Subject, claims.Email)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not resolve user"})
		}

		c.Locals(userLocal, user)
		c.Locals(tokenLocal, raw)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user stashed by Authenticate, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}
