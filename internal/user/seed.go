package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SeedAdmin creates the bootstrap admin when no admin account exists yet.
// It is a no-op once any admin is present, so it is safe on every boot.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string, log zerolog.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if len(password) < 8 {
		return fmt.Errorf("bootstrap admin password must be at least 8 characters")
	}

	var admins int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Name: "Administrator", Email: email, Password: hash, Role: models.RoleAdmin, IsActive: true}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	log.Info().Uint("user_id", u.ID).Str("email", email).Msg("bootstrap admin created")
	return nil
}
