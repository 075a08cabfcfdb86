package user

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// User represents a system user.
type User struct {
	types.BaseModel

	FullName      string         `gorm:"type:varchar(60);not null;column:full_name" json:"fullName"`
	Email         string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone         *string        `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Password      string         `gorm:"type:varchar(255);not null" json:"-"`
	UserType      types.UserType `gorm:"type:varchar(20);not null;default:'student';column:user_type;index" json:"userType"`
	RefreshToken  *string        `gorm:"type:text;column:refresh_token" json:"-"`
	AvatarURL     *string        `gorm:"type:text;column:avatar_url" json:"avatarUrl,omitempty"`
	GoogleID      *string        `gorm:"type:varchar(255);column:google_id;index" json:"-"`
	Active        bool           `gorm:"type:boolean;not null;default:true;column:is_active;index" json:"isActive"`
	EmailVerified bool           `gorm:"type:boolean;not null;default:false;column:email_verified" json:"emailVerified"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// ListFilters defines user query filters.
type ListFilters struct {
	Keyword   string
	UserTypes []types.UserType
	ExcludeID *uuid.UUID
}

// CreateInput carries data for creating a new user.
type CreateInput struct {
	FullName  string
	Email     string
	Phone     *string
	Password  string
	UserType  types.UserType
	AvatarURL *string
	GoogleID  *string
	Active    *bool
}

// UpdateInput captures mutable user fields.
type UpdateInput struct {
	FullName      *string
	Email         *string
	Phone         *string
	PhoneProvided bool
	Password      *string
	UserType      *types.UserType
	Active        *bool
}

// List queries users with filters and pagination.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]User, int64, error) {
	query := db.Model(&User{})

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			keyword, keyword, keyword)
	}

	if len(filters.UserTypes) > 0 {
		query = query.Where("user_type IN ?", filters.UserTypes)
	}

	if filters.ExcludeID != nil {
		query = query.Where("id != ?", *filters.ExcludeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	if err := query.Order("created_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var user User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var user User
	if err := db.First(&user, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// GetByGoogleID retrieves a user linked to a Google account.
func GetByGoogleID(db *gorm.DB, googleID string) (User, error) {
	var user User
	if err := db.First(&user, "google_id = ?", googleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// Create inserts a new user with hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	if len(input.Password) < 8 {
		return User{}, ErrInvalidPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		return User{}, err
	}

	user := User{
		FullName:  strings.TrimSpace(input.FullName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     trimStringPtr(input.Phone),
		Password:  string(hashedPassword),
		UserType:  input.UserType,
		AvatarURL: input.AvatarURL,
		GoogleID:  input.GoogleID,
		Active:    true,
	}

	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "users_email_key") || strings.Contains(err.Error(), "idx_users_email") {
			return user, ErrEmailTaken
		}
		return user, err
	}

	return user, nil
}

// Update modifies an existing user.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (User, error) {
	user, err := Get(db, id)
	if err != nil {
		return user, err
	}

	updates := map[string]interface{}{}

	if input.FullName != nil {
		trimmed := strings.TrimSpace(*input.FullName)
		if trimmed == "" {
			return user, errors.New("fullName cannot be empty")
		}
		updates["full_name"] = trimmed
	}

	if input.Email != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*input.Email))
		if trimmed == "" {
			return user, errors.New("email cannot be empty")
		}
		updates["email"] = trimmed
	}

	if input.PhoneProvided {
		if input.Phone == nil {
			updates["phone"] = nil
		} else {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
	}

	if input.Password != nil {
		if len(*input.Password) < 8 {
			return user, ErrInvalidPassword
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), 10)
		if err != nil {
			return user, err
		}
		updates["password"] = string(hashedPassword)
	}

	if input.UserType != nil {
		updates["user_type"] = *input.UserType
	}

	if input.Active != nil {
		updates["is_active"] = *input.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if strings.Contains(err.Error(), "users_email_key") || strings.Contains(err.Error(), "idx_users_email") {
				return user, ErrEmailTaken
			}
			return user, err
		}
	}

	return Get(db, id)
}

// Delete removes a user.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ComparePassword checks if the provided password matches the user's hashed password.
func (u *User) ComparePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func trimStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// UserTypeIndex returns the position of a userType in the hierarchy.
func UserTypeIndex(userType types.UserType) int {
	for i, t := range UserTypeOrder {
		if t == userType {
			return i
		}
	}
	return -1
}

// CanManageUserType checks if requester can manage a target user type.
func CanManageUserType(requesterType, targetType types.UserType) bool {
	requesterIdx := UserTypeIndex(requesterType)
	targetIdx := UserTypeIndex(targetType)

	if requesterIdx == -1 || targetIdx == -1 {
		return false
	}

	return targetIdx < requesterIdx
}
