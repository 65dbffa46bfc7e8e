// Command main seeds the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"questhub/internal/config"
	"questhub/internal/database"
	"questhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numWorkspaces := flag.Int("workspaces", 2, "Number of workspaces to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:      *numUsers,
		NumWorkspaces: *numWorkspaces,
		ShouldClean:   *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeding complete. All demo accounts use the password %q.", seed.DemoPassword)
}
