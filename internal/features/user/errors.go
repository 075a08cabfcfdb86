package user

import (
	"errors"

	"github.com/courseflow/courseflow-server/pkg/types"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
	ErrUnauthorized       = errors.New("unauthorized to perform this action")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Re-export types from pkg/types so feature code can say user.UserTypeStudent.
const (
	UserTypeStudent    = types.UserTypeStudent
	UserTypeInstructor = types.UserTypeInstructor
	UserTypeAdmin      = types.UserTypeAdmin
	UserTypeSuperAdmin = types.UserTypeSuperAdmin
	UserTypeAll        = types.UserTypeAll
)

var UserTypeOrder = []types.UserType{
	types.UserTypeStudent,
	types.UserTypeInstructor,
	types.UserTypeAdmin,
	types.UserTypeSuperAdmin,
}
