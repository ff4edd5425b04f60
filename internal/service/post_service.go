package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"circle/internal/media"
	"circle/internal/models"
	"circle/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxPostTextLen = 500

// PostService provides post, reply, like, and feed logic.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	media    media.Store
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, mediaStore media.Store) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		media:    mediaStore,
	}
}

// Create stores a new post for the author, uploading an inline image first
// when one is supplied.
func (s *PostService) Create(ctx context.Context, authorID primitive.ObjectID, text, img string) (*models.Post, error) {
	if text == "" {
		return nil, models.NewValidationError("Text field is required")
	}
	if len(text) > maxPostTextLen {
		return nil, models.NewValidationError("Text must be less than 500 characters")
	}

	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewValidationError("User not found")
	}

	if img != "" && media.IsDataURI(img) {
		decoded, err := media.DecodeDataURI(img)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		key := "posts/" + uuid.NewString() + media.ExtensionFor(decoded.ContentType)
		url, err := s.media.Upload(ctx, key, decoded.ContentType, bytes.NewReader(decoded.Data))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		img = url
	}

	post := &models.Post{
		PostedBy:  authorID,
		Text:      text,
		Img:       img,
		Likes:     []primitive.ObjectID{},
		Replies:   []models.Reply{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost fetches a post by id.
func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetUserPosts returns a user's posts, newest first.
func (s *PostService) GetUserPosts(ctx context.Context, username string, limit int) ([]models.Post, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User")
	}
	return s.postRepo.GetByUser(ctx, user.ID, limit)
}

// GetFeed returns posts authored by the users the viewer follows.
func (s *PostService) GetFeed(ctx context.Context, viewerID primitive.ObjectID, limit int) ([]models.Post, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, models.NewNotFoundError("User")
	}
	return s.postRepo.GetFeed(ctx, viewerID, viewer.Following, limit)
}

// Delete removes the actor's own post and its stored image.
func (s *PostService) Delete(ctx context.Context, actorID, postID primitive.ObjectID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.PostedBy != actorID {
		return models.NewUnauthorizedError("You cannot delete other user's post")
	}

	if post.Img != "" {
		if err := s.media.Delete(ctx, post.Img); err != nil && !errors.Is(err, media.ErrNotManaged) {
			return models.NewInternalError(err)
		}
	}

	return s.postRepo.Delete(ctx, postID)
}

// LikeToggle likes the post if the actor has not liked it yet, and unlikes
// otherwise. Returns true when the result is a like.
func (s *PostService) LikeToggle(ctx context.Context, actorID, postID primitive.ObjectID) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}

	if post.IsLikedBy(actorID) {
		if err := s.postRepo.Unlike(ctx, postID, actorID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.postRepo.Like(ctx, postID, actorID); err != nil {
		return false, err
	}
	return true, nil
}

// Reply appends a reply with the replier's display fields denormalized at
// reply time.
func (s *PostService) Reply(ctx context.Context, actorID, postID primitive.ObjectID, text string) (*models.Reply, error) {
	if text == "" {
		return nil, models.NewValidationError("Text field is required")
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, models.NewValidationError("User not found")
	}

	reply := models.Reply{
		UserID:         actorID,
		Username:       actor.Username,
		UserProfilePic: actor.ProfilePic,
		Text:           text,
	}
	if err := s.postRepo.AddReply(ctx, postID, reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
