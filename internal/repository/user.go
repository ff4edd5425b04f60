// Package repository implements the data access layer over MongoDB.
package repository

import (
	"context"
	"errors"
	"strings"

	"circle/internal/cache"
	"circle/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetProfile resolves an ObjectID hex string or a username to a
	// sanitized profile (no password, no update timestamp).
	GetProfile(ctx context.Context, query string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, staleUsernames ...string) error
	Follow(ctx context.Context, actor, target *models.User) error
	Unfollow(ctx context.Context, actor, target *models.User) error
}

type userRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewUserRepository returns a UserRepository backed by the given database.
func NewUserRepository(client *mongo.Client, db *mongo.Database) UserRepository {
	return &userRepository{
		client: client,
		users:  db.Collection("users"),
	}
}

// profileProjection is the sanitized view served by profile lookups.
var profileProjection = bson.D{
	{Key: "password", Value: 0},
	{Key: "updatedAt", Value: 0},
}

func (r *userRepository) GetProfile(ctx context.Context, query string) (*models.User, error) {
	var user models.User
	key := cache.ProfileKey(query)

	err := cache.Aside(ctx, key, &user, cache.ProfileTTL, func() error {
		filter := bson.D{{Key: "username", Value: query}}
		if id, err := primitive.ObjectIDFromHex(query); err == nil {
			filter = bson.D{{Key: "_id", Value: id}}
		}

		opts := options.FindOne().SetProjection(profileProjection)
		if err := r.users.FindOne(ctx, filter, opts).Decode(&user); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return models.NewNotFoundError("Profile")
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"email": email},
		{"username": username},
	}}
	var user models.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.NewValidationError("User already exsits")
		}
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// isDuplicateKeyError checks for a unique index violation (E11000).
func isDuplicateKeyError(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "E11000")
}

func (r *userRepository) Update(ctx context.Context, user *models.User, staleUsernames ...string) error {
	res, err := r.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, user)
	if err != nil {
		if isDuplicateKeyError(err) {
			return models.NewValidationError("User already exsits")
		}
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Profile")
	}

	stale := append([]string{user.Username}, staleUsernames...)
	cache.InvalidateProfile(ctx, user.ID.Hex(), stale...)
	return nil
}

// Follow records the relationship symmetrically: actor's following set and
// target's followers set, inside a single transaction. $addToSet keeps a
// client retry from double-applying the edge.
func (r *userRepository) Follow(ctx context.Context, actor, target *models.User) error {
	return r.updateEdges(ctx, actor, target, "$addToSet")
}

// Unfollow removes the relationship symmetrically inside a single transaction.
func (r *userRepository) Unfollow(ctx context.Context, actor, target *models.User) error {
	return r.updateEdges(ctx, actor, target, "$pull")
}

func (r *userRepository) updateEdges(ctx context.Context, actor, target *models.User, op string) error {
	session, err := r.client.StartSession()
	if err != nil {
		return models.NewInternalError(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.users.UpdateByID(sc, actor.ID,
			bson.M{op: bson.M{"following": target.ID}}); err != nil {
			return nil, err
		}
		if _, err := r.users.UpdateByID(sc, target.ID,
			bson.M{op: bson.M{"followers": actor.ID}}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateProfile(ctx, actor.ID.Hex(), actor.Username)
	cache.InvalidateProfile(ctx, target.ID.Hex(), target.Username)
	return nil
}
