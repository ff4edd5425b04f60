package repository

import (
	"context"
	"errors"

	"circle/internal/cache"
	"circle/internal/middleware"
	"circle/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines persistence operations for posts and their
// embedded replies.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Post, error)
	GetFeed(ctx context.Context, userID primitive.ObjectID, following []primitive.ObjectID, limit int) ([]models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddReply(ctx context.Context, postID primitive.ObjectID, reply models.Reply) error
	Like(ctx context.Context, postID, userID primitive.ObjectID) error
	Unlike(ctx context.Context, postID, userID primitive.ObjectID) error
	// SyncReplyAuthors rewrites the denormalized username/avatar copies in
	// every reply authored by the user. Returns the number of posts touched.
	SyncReplyAuthors(ctx context.Context, userID primitive.ObjectID, username, profilePic string) (int64, error)
}

type postRepository struct {
	posts *mongo.Collection
}

// NewPostRepository returns a PostRepository backed by the given database.
func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{posts: db.Collection("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Replies == nil {
		post.Replies = []models.Reply{}
	}
	res, err := r.posts.InsertOne(ctx, post)
	if err != nil {
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = id
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.posts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Post")
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.posts.Find(ctx, bson.D{{Key: "postedBy", Value: userID}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetFeed(ctx context.Context, userID primitive.ObjectID, following []primitive.ObjectID, limit int) ([]models.Post, error) {
	var posts []models.Post
	key := cache.FeedKey(userID.Hex(), limit)

	err := cache.Aside(ctx, key, &posts, cache.FeedTTL, func() error {
		if len(following) == 0 {
			posts = []models.Post{}
			return nil
		}
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(limit))
		cur, err := r.posts.Find(ctx, bson.M{"postedBy": bson.M{"$in": following}}, opts)
		if err != nil {
			return models.NewInternalError(err)
		}
		if err := cur.All(ctx, &posts); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Post")
	}
	return nil
}

func (r *postRepository) AddReply(ctx context.Context, postID primitive.ObjectID, reply models.Reply) error {
	res, err := r.posts.UpdateByID(ctx, postID, bson.M{"$push": bson.M{"replies": reply}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Post")
	}
	return nil
}

func (r *postRepository) Like(ctx context.Context, postID, userID primitive.ObjectID) error {
	res, err := r.posts.UpdateByID(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Post")
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID primitive.ObjectID) error {
	res, err := r.posts.UpdateByID(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Post")
	}
	return nil
}

func (r *postRepository) SyncReplyAuthors(ctx context.Context, userID primitive.ObjectID, username, profilePic string) (int64, error) {
	filter := bson.M{"replies.userId": userID}
	update := bson.M{"$set": bson.M{
		"replies.$[reply].username":       username,
		"replies.$[reply].userProfilePic": profilePic,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"reply.userId": userID}},
	})

	res, err := r.posts.UpdateMany(ctx, filter, update, opts)
	if err != nil {
		middleware.ReplyFanoutRewrites.WithLabelValues("error").Inc()
		return 0, models.NewInternalError(err)
	}
	middleware.ReplyFanoutRewrites.WithLabelValues("ok").Inc()
	return res.ModifiedCount, nil
}
