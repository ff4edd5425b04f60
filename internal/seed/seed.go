// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"circle/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is assigned to every generated account so seeded users
// can be logged in during development.
const DefaultPassword = "password123"

// Options tunes how much data the seeder generates.
type Options struct {
	Users        int
	Posts        int
	MaxDays      int // spread post timestamps over this many days back
	FollowFactor int // average follows per user
}

// Seeder writes generated users and posts into MongoDB.
type Seeder struct {
	db   *mongo.Database
	opts Options
	rand *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided database.
func NewSeeder(db *mongo.Database, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.FollowFactor <= 0 {
		opts.FollowFactor = 8
	}
	return &Seeder{
		db:   db,
		opts: opts,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll drops the seeded collections.
func (s *Seeder) ClearAll(ctx context.Context) error {
	for _, name := range []string{"users", "posts"} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("dropping %s: %w", name, err)
		}
	}
	log.Println("Cleared users and posts collections")
	return nil
}

// SeedUsers creates the configured number of users with hashed passwords.
func (s *Seeder) SeedUsers(ctx context.Context) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, s.opts.Users)
	docs := make([]any, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		now := time.Now().UTC()
		user := models.User{
			ID:         primitive.NewObjectID(),
			Name:       gofakeit.Name(),
			Email:      gofakeit.Email(),
			Username:   fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Password:   string(hash),
			Bio:        gofakeit.Sentence(10),
			ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Followers:  []primitive.ObjectID{},
			Following:  []primitive.ObjectID{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		users = append(users, user)
		docs = append(docs, user)
	}

	if _, err := s.db.Collection("users").InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("inserting users: %w", err)
	}
	log.Printf("Seeded %d users", len(users))
	return users, nil
}

// SeedFollowGraph wires random follow edges between the given users. Both
// sides of every edge are written so follower and following lists agree.
func (s *Seeder) SeedFollowGraph(ctx context.Context, users []models.User) error {
	if len(users) < 2 {
		return nil
	}

	coll := s.db.Collection("users")
	edges := 0
	for i := range users {
		follows := s.rand.Intn(s.opts.FollowFactor) + 1
		for j := 0; j < follows; j++ {
			target := users[s.rand.Intn(len(users))]
			if target.ID == users[i].ID {
				continue
			}
			_, err := coll.UpdateByID(ctx, users[i].ID,
				bson.M{"$addToSet": bson.M{"following": target.ID}})
			if err != nil {
				return err
			}
			_, err = coll.UpdateByID(ctx, target.ID,
				bson.M{"$addToSet": bson.M{"followers": users[i].ID}})
			if err != nil {
				return err
			}
			edges++
		}
	}
	log.Printf("Seeded %d follow edges", edges)
	return nil
}

// SeedPosts creates posts attributed to random users, with likes and
// replies sampled from the same user pool.
func (s *Seeder) SeedPosts(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}

	docs := make([]any, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[s.rand.Intn(len(users))]
		post := models.Post{
			ID:        primitive.NewObjectID(),
			PostedBy:  author.ID,
			Text:      gofakeit.Sentence(12),
			Likes:     []primitive.ObjectID{},
			Replies:   []models.Reply{},
			CreatedAt: s.spreadTimestamp(),
		}

		// roughly a third of posts carry an image
		if s.rand.Intn(3) == 0 {
			post.Img = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
		}

		for _, liker := range s.sampleUsers(users, s.rand.Intn(6)) {
			post.Likes = append(post.Likes, liker.ID)
		}
		for _, replier := range s.sampleUsers(users, s.rand.Intn(4)) {
			post.Replies = append(post.Replies, models.Reply{
				UserID:         replier.ID,
				Username:       replier.Username,
				UserProfilePic: replier.ProfilePic,
				Text:           gofakeit.Sentence(8),
			})
		}

		docs = append(docs, post)
	}

	if _, err := s.db.Collection("posts").InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting posts: %w", err)
	}
	log.Printf("Seeded %d posts", len(docs))
	return nil
}

func (s *Seeder) spreadTimestamp() time.Time {
	daysBack := s.rand.Intn(s.opts.MaxDays)
	hoursBack := s.rand.Intn(24)
	minsBack := s.rand.Intn(60)
	return time.Now().UTC().
		Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(hoursBack)*time.Hour -
			time.Duration(minsBack)*time.Minute)
}

func (s *Seeder) sampleUsers(users []models.User, n int) []models.User {
	if n >= len(users) {
		n = len(users) - 1
	}
	seen := make(map[primitive.ObjectID]bool, n)
	out := make([]models.User, 0, n)
	for len(out) < n {
		u := users[s.rand.Intn(len(users))]
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}
