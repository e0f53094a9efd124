// Command seed fills the configured database with demo data.
package main

import (
	"flag"
	"os"

	"beatbox/internal/config"
	"beatbox/internal/database"
	"beatbox/internal/middleware"
	"beatbox/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numSuggestions := flag.Int("suggestions", 250, "Number of suggestions to create")
	likeRatio := flag.Float64("like-ratio", 0.2, "Probability that a user likes a suggestion")
	maxDays := flag.Int("days", 90, "Spread created_at over this many past days")
	clean := flag.Bool("clean", true, "Delete existing data first")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		middleware.Logger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close(db) }()

	res, err := seed.Seed(db, seed.Options{
		NumUsers:       *numUsers,
		NumSuggestions: *numSuggestions,
		LikeRatio:      *likeRatio,
		MaxDays:        *maxDays,
		Clean:          *clean,
		SkipBcrypt:     *fast,
		RandSeed:       *randSeed,
	})
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	middleware.Logger.Info("database seeded",
		"users", len(res.Users),
		"suggestions", len(res.Suggestions),
		"likes", res.Likes,
		"password", seed.DefaultPassword,
	)
}
