package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/user"
)

const (
	defaultSuperAdminEmail    = "superadmin@courseflow.io"
	defaultSuperAdminPassword = "ChangeMe#2024"
	defaultSuperAdminName     = "Super Admin"
)

func superAdminEmail() string {
	if v := os.Getenv("COURSEFLOW_SUPERADMIN_EMAIL"); v != "" {
		return v
	}
	return defaultSuperAdminEmail
}

func superAdminPassword() string {
	if v := os.Getenv("COURSEFLOW_SUPERADMIN_PASSWORD"); v != "" {
		return v
	}
	return defaultSuperAdminPassword
}

// EnsureDefaultSuperAdmin creates or synchronizes the default super admin account.
func EnsureDefaultSuperAdmin(db *gorm.DB, logger *slog.Logger) error {
	email := superAdminEmail()
	password := superAdminPassword()

	var existing user.User
	err := db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, createErr := user.Create(db, user.CreateInput{
			FullName: defaultSuperAdminName,
			Email:    email,
			Password: password,
			UserType: user.UserTypeSuperAdmin,
		})
		if createErr != nil {
			if isUndefinedTableError(createErr) {
				logger.Warn("default super admin skipped - users table missing", slog.String("email", email))
				return nil
			}
			return fmt.Errorf("create super admin: %w", createErr)
		}

		logger.Info("default super admin created", slog.String("email", email))
		return nil

	case err != nil:
		if isUndefinedTableError(err) {
			logger.Warn("default super admin skipped - users table missing", slog.String("email", email))
			return nil
		}
		return fmt.Errorf("get super admin: %w", err)
	}

	updates := map[string]interface{}{}

	if needsPasswordReset(existing.Password, password) {
		hashedPassword, hashErr := bcrypt.GenerateFromPassword([]byte(password), 10)
		if hashErr != nil {
			return fmt.Errorf("hash super admin password: %w", hashErr)
		}
		updates["password"] = string(hashedPassword)
	}

	if existing.UserType != user.UserTypeSuperAdmin {
		updates["user_type"] = user.UserTypeSuperAdmin
	}

	if !existing.Active {
		updates["is_active"] = true
	}

	if len(updates) == 0 {
		logger.Info("default super admin already up to date", slog.String("email", email))
		return nil
	}

	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("update super admin: %w", err)
	}

	logger.Info("default super admin synchronized", slog.String("email", email))
	return nil
}

func needsPasswordReset(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return true
	}

	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) != nil
}

func isUndefinedTableError(err error) bool {
	if err == nil {
		return false
	}

	message := err.Error()
	return strings.Contains(message, "relation \"users\" does not exist") ||
		strings.Contains(message, "no such table: users")
}
