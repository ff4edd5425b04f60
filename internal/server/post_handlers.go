package server

import (
	"circle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	authorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
		Img  string `json:"img"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.Context(), authorID, req.Text, req.Img)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseObjectID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(post)
}

// GetUserPosts handles GET /api/posts/user/:username
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	limit := parseLimit(c, defaultPageLimit)

	posts, err := s.postService.GetUserPosts(c.Context(), username, limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(posts)
}

// GetFeed handles GET /api/posts/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	viewerID, err := s.authUserID(c)
	if err != nil {
		return nil
	}
	limit := parseLimit(c, defaultPageLimit)

	posts, err := s.postService.GetFeed(c.Context(), viewerID, limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(posts)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	actorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.Context(), actorID, postID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikeUnlikePost handles PUT /api/posts/:id/like with toggle semantics.
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	actorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	liked, err := s.postService.LikeToggle(c.Context(), actorID, postID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if liked {
		return c.JSON(fiber.Map{"message": "Post liked successfully"})
	}
	return c.JSON(fiber.Map{"message": "Post unliked successfully"})
}

// ReplyToPost handles PUT /api/posts/:id/reply
func (s *Server) ReplyToPost(c *fiber.Ctx) error {
	actorID, err := s.authUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseObjectID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.postService.Reply(c.Context(), actorID, postID, req.Text)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}
