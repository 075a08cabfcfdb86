package user

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/middleware"
	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/request"
	"github.com/courseflow/courseflow-server/pkg/response"
	"github.com/courseflow/courseflow-server/pkg/types"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Handler processes user HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated users with filters.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)
	keyword := c.Query("filterKeyword")

	requester, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	filters := ListFilters{
		Keyword: keyword,
	}

	// Non-superadmins only see users below their own rank.
	if requester.UserType != types.UserTypeSuperAdmin {
		requesterIndex := UserTypeIndex(requester.UserType)
		if requesterIndex >= 0 {
			filters.UserTypes = UserTypeOrder[:requesterIndex]
		}
	}

	if userType := c.Query("userType"); userType != "" {
		filters.UserTypes = []types.UserType{types.UserType(userType)}
	}

	users, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list users", err)
		return
	}

	response.Success(c, http.StatusOK, users, "", pagination.MetadataFrom(total, params))
}

type createRequest struct {
	FullName string  `json:"fullName" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" binding:"required"`
	UserType string  `json:"userType" binding:"required"`
	Active   *bool   `json:"isActive"`
}

// Create inserts a new user.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	if !emailRegex.MatchString(req.Email) {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid email format", fmt.Errorf("email must be in valid format"))
		return
	}

	requester, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	targetUserType := types.UserType(req.UserType)

	if requester.UserType != types.UserTypeSuperAdmin {
		if !CanManageUserType(requester.UserType, targetUserType) {
			response.ErrorWithLog(h.logger, c, http.StatusForbidden, "You are not authorized to create a user with this user type", nil)
			return
		}
	}

	input := CreateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		UserType: targetUserType,
		Active:   req.Active,
	}

	created, err := Create(h.db, input)
	if err != nil {
		h.respondError(c, err, "failed to create user")
		return
	}

	response.Created(c, created, "")
}

// GetByID fetches a single user.
func (h *Handler) GetByID(c *gin.Context) {
	requester, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	found, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}

	// Users see their own profile; staff see everyone.
	isAuthorized := requester.UserType == types.UserTypeAdmin ||
		requester.UserType == types.UserTypeSuperAdmin ||
		requester.UserType == types.UserTypeInstructor ||
		requester.ID == found.ID

	if !isAuthorized {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "You are not authorized to get this user", nil)
		return
	}

	response.Success(c, http.StatusOK, found, "", nil)
}

// Update modifies an existing user.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	requester, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	userToUpdate, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}

	isSameUser := requester.ID == id
	if requester.UserType != types.UserTypeSuperAdmin && !isSameUser {
		if !CanManageUserType(requester.UserType, userToUpdate.UserType) {
			response.ErrorWithLog(h.logger, c, http.StatusForbidden, "You are not authorized to update this user", nil)
			return
		}
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	input := UpdateInput{}

	if value, ok := body["userType"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "userType must be a string", err)
			return
		}
		targetUserType := types.UserType(str)

		if requester.UserType != types.UserTypeSuperAdmin {
			if !CanManageUserType(requester.UserType, targetUserType) {
				response.ErrorWithLog(h.logger, c, http.StatusForbidden, "You are not authorized to assign this user type", nil)
				return
			}
		}

		input.UserType = &targetUserType
	}

	if value, ok := body["fullName"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "fullName must be a string", err)
			return
		}
		input.FullName = &str
	}

	if value, ok := body["email"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "email must be a string", err)
			return
		}

		if !emailRegex.MatchString(str) {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid email format", fmt.Errorf("email must be in valid format"))
			return
		}

		input.Email = &str
	}

	if value, ok := body["phone"]; ok {
		input.PhoneProvided = true
		if value == nil {
			input.Phone = nil
		} else {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "phone must be a string", err)
				return
			}
			input.Phone = &str
		}
	}

	if value, ok := body["password"]; ok {
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "password must be a string", err)
				return
			}
			input.Password = &str
		}
	}

	if value, ok := body["isActive"]; ok {
		val, err := request.ReadBool(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "isActive must be boolean", err)
			return
		}
		input.Active = &val
	}

	updated, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update user")
		return
	}

	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a user.
func (h *Handler) Delete(c *gin.Context) {
	requester, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	userToDelete, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}

	// Only superadmins may remove admins or other superadmins.
	if (userToDelete.UserType == types.UserTypeAdmin || userToDelete.UserType == types.UserTypeSuperAdmin) &&
		requester.UserType != types.UserTypeSuperAdmin {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "Only superadmins can delete admins", nil)
		return
	}

	allowed := requester.UserType == types.UserTypeSuperAdmin ||
		requester.UserType == types.UserTypeAdmin ||
		requester.ID == userToDelete.ID

	if !allowed {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "You are not authorized to delete this user", nil)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete user")
		return
	}

	response.Success(c, http.StatusOK, true, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found."
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already exists."
	case errors.Is(err, ErrInvalidPassword):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusForbidden
		message = err.Error()
	default:
		if err.Error() == "fullName cannot be empty" || err.Error() == "email cannot be empty" {
			status = http.StatusBadRequest
			message = err.Error()
		}
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
