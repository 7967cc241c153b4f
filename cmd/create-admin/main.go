package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"gorm.io/gorm"

	"jrg-backend/shared/config"
	"jrg-backend/shared/database"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
)

// create-admin seeds (or repairs) an administrator account so a fresh
// deployment can be logged into.
func main() {
	email := flag.String("email", "", "admin email address (required)")
	password := flag.String("password", "", "admin password (required)")
	firstName := flag.String("first-name", "Admin", "first name")
	lastName := flag.String("last-name", "", "last name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Usage: create-admin -email <email> -password <password> [-first-name ...] [-last-name ...]")
	}

	normalized := utils.NormalizeEmail(*email)
	if err := utils.ValidateEmail(normalized); err != nil {
		log.Fatalf("Invalid email: %v", err)
	}
	if err := utils.ValidatePassword(*password); err != nil {
		log.Fatalf("Invalid password: %v", err)
	}

	cfg := config.LoadConfig()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	hash, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now()

	var user models.User
	err = db.Where("email = ?", normalized).First(&user).Error
	switch {
	case err == nil:
		user.Password = hash
		user.Status = models.StatusActive
		user.HasSetPassword = true
		user.EmailVerifiedAt = &now
		if !user.Roles.Contains(models.RoleAdmin) {
			user.Roles = append(user.Roles, models.RoleAdmin)
		}
		if err := db.Save(&user).Error; err != nil {
			log.Fatalf("Failed to update admin user: %v", err)
		}
		log.Printf("✅ Existing user %s promoted to admin (ID: %d)", normalized, user.ID)

	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:           normalized,
			Password:        hash,
			Roles:           models.StringList{models.RoleAdmin},
			Status:          models.StatusActive,
			FirstName:       *firstName,
			LastName:        *lastName,
			HasSetPassword:  true,
			EmailVerifiedAt: &now,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("✅ Admin user %s created (ID: %d)", normalized, user.ID)

	default:
		log.Fatalf("Failed to look up user: %v", err)
	}
}
