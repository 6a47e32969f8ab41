// Package main provides admin management utilities for ViralPik.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"viralpik/internal/config"
	"viralpik/internal/database"
	"viralpik/internal/models"
	"viralpik/internal/repository"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>            - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>             - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins                  - List all admins")
	fmt.Println("  go run ./cmd/admin approve-creator <user_id>    - Approve a creator and enable earnings")
	fmt.Println("  go run ./cmd/admin set-tier <user_id> <tier>    - Set subscription tier (free|pro|business)")
	fmt.Println("  go run ./cmd/admin pending-creators             - List creators awaiting approval")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "promote":
		setAdmin(db, userArg(), true)
	case "demote":
		setAdmin(db, userArg(), false)
	case "list-admins":
		listAdmins(db)
	case "approve-creator":
		id := userArg()
		if err := profiles.SetCreatorApproval(ctx, id, true, true); err != nil {
			log.Fatalf("Failed to approve creator: %v", err)
		}
		fmt.Printf("Approved creator %d\n", id)
	case "set-tier":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		tier := models.Tier(os.Args[3])
		if !tier.Valid() {
			log.Fatalf("Unknown tier %q", os.Args[3])
		}
		id := userArg()
		if err := profiles.SetTier(ctx, id, tier); err != nil {
			log.Fatalf("Failed to set tier: %v", err)
		}
		fmt.Printf("User %d is now on the %s tier\n", id, tier)
	case "pending-creators":
		creators, err := profiles.ListCreators(ctx, true, 100, 0)
		if err != nil {
			log.Fatalf("Failed to list creators: %v", err)
		}
		for _, c := range creators {
			fmt.Printf("ID: %d | Username: %s | Email: %s | Joined: %s\n",
				c.ID, c.Username, c.Email, c.CreatedAt.Format("2006-01-02"))
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func userArg() uint {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil || id == 0 {
		log.Fatalf("Invalid user ID %q", os.Args[2])
	}
	return uint(id)
}

func setAdmin(db *gorm.DB, userID uint, admin bool) {
	var profile models.Profile
	if err := db.First(&profile, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %d not found\n", userID)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if profile.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%t\n", profile.Username, profile.ID, admin)
		return
	}

	if err := db.Model(&profile).Update("is_admin", admin).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("Updated %s (ID: %d): is_admin=%t\n", profile.Username, profile.ID, admin)
}

func listAdmins(db *gorm.DB) {
	var admins []models.Profile
	if err := db.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("Current admins:")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
}
