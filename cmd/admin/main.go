package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"mitrabot/backend/internal/config"
	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "purge":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin purge <mobile>")
			os.Exit(1)
		}
		mobile := os.Args[2]
		deleted, err := purgeUser(storageSvc, mobile)
		if err != nil {
			log.Fatalf("Error purging user: %v", err)
		}
		fmt.Printf("User %s has been purged along with %d complaints.\n", mobile, deleted)

	case "reset":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin reset <mobile>")
			os.Exit(1)
		}
		mobile := os.Args[2]
		deleted, err := resetFlow(storageSvc, mobile)
		if err != nil {
			log.Fatalf("Error resetting flow: %v", err)
		}
		fmt.Printf("Deleted %d incomplete complaints for %s.\n", deleted, mobile)

	case "ref":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin ref <complaint_id>")
			os.Exit(1)
		}
		id, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fmt.Println("Invalid complaint ID. Please provide an integer.")
			os.Exit(1)
		}
		ref, err := referenceID(db, uint(id))
		if err != nil {
			log.Fatalf("Error loading complaint: %v", err)
		}
		fmt.Println(ref)

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func purgeUser(s storage.Storage, mobile string) (int64, error) {
	user, err := s.GetUserByMobile(mobile)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return s.DeleteUserAndComplaints(user.ID)
}

func resetFlow(s storage.Storage, mobile string) (int64, error) {
	user, err := s.GetUserByMobile(mobile)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return s.DeleteIncompleteComplaints(user.ID)
}

func referenceID(db *gorm.DB, id uint) (string, error) {
	var complaint models.Complaint
	if err := db.First(&complaint, id).Error; err != nil {
		return "", err
	}
	return complaint.ReferenceID(), nil
}
