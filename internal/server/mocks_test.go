package server

import (
	"context"

	"circle/internal/models"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserRepository is a mock of the repository.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetProfile(ctx context.Context, query string) (*models.User, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	args := m.Called(ctx, email, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User, staleUsernames ...string) error {
	args := m.Called(ctx, user, staleUsernames)
	return args.Error(0)
}

func (m *MockUserRepository) Follow(ctx context.Context, actor, target *models.User) error {
	args := m.Called(ctx, actor, target)
	return args.Error(0)
}

func (m *MockUserRepository) Unfollow(ctx context.Context, actor, target *models.User) error {
	args := m.Called(ctx, actor, target)
	return args.Error(0)
}

// MockPostRepository is a mock of the repository.PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Post, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) GetFeed(ctx context.Context, userID primitive.ObjectID, following []primitive.ObjectID, limit int) ([]models.Post, error) {
	args := m.Called(ctx, userID, following, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) AddReply(ctx context.Context, postID primitive.ObjectID, reply models.Reply) error {
	args := m.Called(ctx, postID, reply)
	return args.Error(0)
}

func (m *MockPostRepository) Like(ctx context.Context, postID, userID primitive.ObjectID) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockPostRepository) Unlike(ctx context.Context, postID, userID primitive.ObjectID) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *MockPostRepository) SyncReplyAuthors(ctx context.Context, userID primitive.ObjectID, username, profilePic string) (int64, error) {
	args := m.Called(ctx, userID, username, profilePic)
	return args.Get(0).(int64), args.Error(1)
}
