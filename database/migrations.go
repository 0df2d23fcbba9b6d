package database

import (
	"log"

	"studylog/models"

	"gorm.io/gorm"
)

// RunMigrations is safe against an existing database file; AutoMigrate only
// adds what is missing.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Entry{},
		&models.Tag{},
		&models.EntryTag{},
	)

	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}
