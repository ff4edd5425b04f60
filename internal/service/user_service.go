// Package service implements the business rules on top of the repositories.
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
	"golang.org/x/crypto/bcrypt"
)

// UserService provides account, session, follow-graph, and profile logic.
type UserService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	media    media.Store
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository, mediaStore media.Store) *UserService {
	return &UserService{
		userRepo: userRepo,
		postRepo: postRepo,
		media:    mediaStore,
	}
}

// SignupInput carries the signup request fields.
type SignupInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// UpdateProfileInput carries the profile update request fields. Empty
// fields keep their current value; an empty string never clears a field.
type UpdateProfileInput struct {
	UserID     primitive.ObjectID
	PathID     string
	Name       string
	Email      string
	Username   string
	Password   string
	Bio        string
	ProfilePic string
}

// GetProfile resolves an id hex string or username to a sanitized profile.
func (s *UserService) GetProfile(ctx context.Context, query string) (*models.User, error) {
	return s.userRepo.GetProfile(ctx, query)
}

// Signup registers a new account. Either an existing email or an existing
// username rejects the request as a conflict.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if in.Name == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, models.NewValidationError("Name, email, username, and password are required")
	}

	existing, err := s.userRepo.GetByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("User already exsits")
	}

	// bcrypt embeds a fresh random salt per call.
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Username:  in.Username,
		Password:  string(hashed),
		Followers: []primitive.ObjectID{},
		Following: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials. Unknown username and wrong password produce
// the same error so account existence does not leak.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	stored := ""
	if user != nil {
		stored = user.Password
	}
	// Always run the comparison so the unknown-user path costs the same.
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); cmpErr != nil || user == nil {
		return nil, models.NewValidationError("Invalid username or password")
	}

	return user, nil
}

// FollowToggle follows the target if the actor does not already follow it,
// and unfollows otherwise. Returns true when the result is a follow.
func (s *UserService) FollowToggle(ctx context.Context, actorID, targetID primitive.ObjectID) (bool, error) {
	if actorID == targetID {
		return false, models.NewValidationError("You cannot follow/unfollow yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	if target == nil || actor == nil {
		return false, models.NewValidationError("User not found")
	}

	if actor.IsFollowing(targetID) {
		if err := s.userRepo.Unfollow(ctx, actor, target); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.userRepo.Follow(ctx, actor, target); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile applies a partial update to the actor's own record. After a
// successful save, denormalized reply copies of the user's username and
// avatar are rewritten across all posts.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.PathID != in.UserID.Hex() {
		return nil, models.NewValidationError("You cannot update other user's profile")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewValidationError("User not found")
	}

	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	profilePic := in.ProfilePic
	if profilePic != "" && media.IsDataURI(profilePic) {
		// Replace the avatar: drop the previous object first. A failed
		// delete aborts the whole update, but an externally hosted avatar
		// has nothing to clean up.
		if user.ProfilePic != "" {
			if err := s.media.Delete(ctx, user.ProfilePic); err != nil && !errors.Is(err, media.ErrNotManaged) {
				return nil, models.NewInternalError(err)
			}
		}
		img, err := media.DecodeDataURI(profilePic)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		key := "avatars/" + uuid.NewString() + media.ExtensionFor(img.ContentType)
		url, err := s.media.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		profilePic = url
	}

	oldUsername := user.Username
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Username != "" {
		user.Username = in.Username
	}
	if in.Bio != "" {
		user.Bio = in.Bio
	}
	if profilePic != "" {
		user.ProfilePic = profilePic
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user, oldUsername); err != nil {
		return nil, err
	}

	// Fan-out rewrite of denormalized reply copies. Not atomic with the
	// profile save; a failure here surfaces even though the profile is
	// already persisted.
	if _, err := s.postRepo.SyncReplyAuthors(ctx, user.ID, user.Username, user.ProfilePic); err != nil {
		return nil, err
	}

	return user, nil
}
