package server

import (
	"errors"

	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parseLimit extracts the limit query parameter with the given default.
func parseLimit(c *fiber.Ctx, defaultLimit int) int {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit
}

// parseObjectID extracts a route parameter as an ObjectID. On failure it
// writes a 400 JSON response and returns errResponseWritten; callers should
// check: if err != nil { return nil }
func parseObjectID(c *fiber.Ctx, param, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return primitive.NilObjectID, errResponseWritten
	}
	return id, nil
}

// authUserID resolves the authenticated user id placed in locals by
// AuthRequired. A missing or malformed value means the middleware did not
// run; the request is rejected.
func (s *Server) authUserID(c *fiber.Ctx) (primitive.ObjectID, error) {
	hex, _ := c.Locals("userID").(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return primitive.NilObjectID, errResponseWritten
	}
	return id, nil
}
