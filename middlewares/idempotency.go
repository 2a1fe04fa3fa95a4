package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"loanrisk-backend/database"
	"loanrisk-backend/models"

	"github.com/gofiber/fiber/v2"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. The record
// writes happen outside any handler state, so a stored response survives a
// later handler failure and replays on retry.
func Idempotency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		path := c.OriginalURL() // includes query string
		body := c.Body()

		// Deterministic request hash: method|path|body|user
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(body)
		h.Write([]byte{'\n'})
		h.Write([]byte(user.Id))
		reqHash := hex.EncodeToString(h.Sum(nil))

		existing, err := database.Idempotency.Lookup(key)
		if errors.Is(err, database.ErrNotFound) {
			rec := &models.IdempotencyKey{
				Key:            key,
				RequestHash:    reqHash,
				Method:         method,
				Path:           path,
				UserID:         user.Id,
				ResponseStatus: 0,
			}
			if createErr := database.Idempotency.Create(rec); createErr != nil {
				// Could be a unique race: read again.
				if existing, err = database.Idempotency.Lookup(key); err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
				}
			} else {
				existing = rec
			}
		} else if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
		}

		if existing.RequestHash != reqHash {
			return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
		}
		if existing.ResponseStatus != 0 && existing.ResponseBody != nil {
			// Completed response stored; short-circuit, no handler run.
			c.Status(existing.ResponseStatus)
			return c.Send(existing.ResponseBody)
		}

		// Pending/in-progress: run the handler once.
		if err := c.Next(); err != nil {
			return err
		}

		// Store the response best-effort; a failed write never breaks the
		// already-successful response.
		status := c.Response().StatusCode()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		_ = database.Idempotency.Complete(key, status, blob)

		return nil
	}
}
