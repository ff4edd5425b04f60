package server

import (
	"circle/internal/models"
	"circle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/profile/:query where query is
// either a user id or a username.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	query := c.Params("query")

	user, err := s.userService.GetProfile(c.Context(), query)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}

// FollowUnfollow handles POST /api/users/follow/:id with toggle semantics.
func (s *Server) FollowUnfollow(c *fiber.Ctx) error {
	actorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}
	targetID, err := parseObjectID(c, "id", "user ID")
	if err != nil {
		return nil
	}

	followed, err := s.userService.FollowToggle(c.Context(), actorID, targetID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if followed {
		return c.JSON(fiber.Map{"message": "User followed successfully"})
	}
	return c.JSON(fiber.Map{"message": "User unfollowed successfully"})
}

// UpdateProfile handles PATCH /api/users/update/:id. The path id must match
// the authenticated user.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	actorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Username   string `json:"username"`
		Password   string `json:"password"`
		Bio        string `json:"bio"`
		ProfilePic string `json:"profilePic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:     actorID,
		PathID:     c.Params("id"),
		Name:       req.Name,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}
