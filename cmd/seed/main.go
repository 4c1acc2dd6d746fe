package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"techservice/internal/database"
	"techservice/internal/domain"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = "techservice.db"
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Creating users...")

	accounts := []struct {
		email    string
		password string
		role     domain.UserRole
		name     string
		lastName string
	}{
		{"admin@techservice.local", "admin123", domain.RoleAdmin, "Admin", "Account"},
		{"tech@techservice.local", "tech1234", domain.RoleTechnician, "Taylor", "Wrench"},
		{"demo@techservice.local", "demo1234", domain.RoleUser, "Demo", "Customer"},
	}

	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %s: %v", a.email, err)
		}
		user := domain.User{
			Email:        a.email,
			PasswordHash: string(hash),
			Role:         a.role,
			Name:         a.name,
			LastName:     a.lastName,
		}
		// Upsert by email so the seed is safe to rerun.
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "name", "last_name"}),
		}).Create(&user)
		if res.Error != nil {
			log.Fatalf("seed %s failed: %v", a.email, res.Error)
		}
		log.Printf("%s: %s / %s", a.role, a.email, a.password)
	}

	log.Println("Seed completed")
}
