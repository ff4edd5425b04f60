// Command seed populates the database with generated demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Connect to database
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Disconnect error: %v", err)
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	// Run seeder
	s := seed.NewSeeder(db, seed.Options{Users: *numUsers, Posts: *numPosts})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	users, err := s.SeedUsers(ctx)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	if err := s.SeedFollowGraph(ctx, users); err != nil {
		log.Fatalf("Follow graph seeding failed: %v", err)
	}
	if err := s.SeedPosts(ctx, users); err != nil {
		log.Fatalf("Post seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Printf("All test users have the password: %s", seed.DefaultPassword)
}
