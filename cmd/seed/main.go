// Command main runs the database seeder for ViralPik.
package main

import (
	"context"
	"flag"
	"log"

	"viralpik/internal/config"
	"viralpik/internal/database"
	"viralpik/internal/models"
	"viralpik/internal/seed"
)

func main() {
	numCreators := flag.Int("creators", 12, "Number of creators to create")
	numFans := flag.Int("fans", 50, "Number of non-creator accounts to create")
	perCreator := flag.Int("assets", 20, "Assets per creator")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt (accounts cannot log in)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d creators, %d fans, %d assets each, clean=%v", *numCreators, *numFans, *perCreator, *shouldClean)

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

	s := seed.NewSeeder(db, seed.Options{
		NumCreators:      *numCreators,
		NumFans:          *numFans,
		AssetsPerCreator: *perCreator,
		SkipBcrypt:       *fast,
		MaxDays:          90,
		BatchSize:        200,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run()
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	var admin models.Profile
	if err := db.Where("is_admin = ?", true).Order("id").First(&admin).Error; err == nil {
		if err := seed.StaffPicks(db, &admin); err != nil {
			log.Fatalf("❌ Staff picks failed: %v", err)
		}
	} else if len(res.Creators) > 0 {
		if err := seed.StaffPicks(db, res.Creators[0]); err != nil {
			log.Fatalf("❌ Staff picks failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	if !*fast {
		log.Printf("📧 All seeded accounts have the password: %s", seed.DefaultPassword)
	}
}
