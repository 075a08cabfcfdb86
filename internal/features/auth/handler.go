package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/email"
	"github.com/courseflow/courseflow-server/pkg/response"
)

// Handler processes authentication HTTP requests.
type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	cfg         *config.Config
	emailClient *email.Client
	google      *GoogleService
}

// NewHandler constructs an auth handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cfg *config.Config, emailClient *email.Client, google *GoogleService) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		cfg:         cfg,
		emailClient: emailClient,
		google:      google,
	}
}

// Register creates a new student account.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		FullName string  `json:"fullName" binding:"required"`
		Email    string  `json:"email" binding:"required,email"`
		Password string  `json:"password" binding:"required"`
		Phone    *string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid registration payload", err)
		return
	}

	tokenCfg := h.getTokenConfig()

	authResp, err := Register(h.db, RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	}, tokenCfg)

	if err != nil {
		h.respondError(c, err, "registration failed")
		return
	}

	go func() {
		if err := h.emailClient.SendWelcome(req.Email, req.FullName); err != nil {
			h.logger.Error("failed to send welcome email",
				slog.String("email", req.Email),
				slog.String("error", err.Error()))
		}
	}()

	response.Created(c, authResp, "Registration successful")
}

// Login authenticates a user and returns JWT tokens.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	tokenCfg := h.getTokenConfig()

	authResp, err := Login(h.db, LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, tokenCfg)

	if err != nil {
		h.respondError(c, err, "login failed")
		return
	}

	response.Success(c, http.StatusOK, authResp, "Login successful", nil)
}

// GoogleLogin redirects the client to the Google consent page.
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		h.respondError(c, ErrGoogleNotConfigured, "google sign-in unavailable")
		return
	}

	state := uuid.NewString()
	c.SetCookie("oauth_state", state, int((10 * time.Minute).Seconds()), "/", "", h.cfg.IsProduction(), true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthCodeURL(state))
}

// GoogleCallback exchanges the authorization code for a local session.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		h.respondError(c, ErrGoogleNotConfigured, "google sign-in unavailable")
		return
	}

	state := c.Query("state")
	if cookieState, err := c.Cookie("oauth_state"); err != nil || state == "" || state != cookieState {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}

	code := c.Query("code")
	if code == "" {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	authResp, err := h.google.Authenticate(c.Request.Context(), h.db, code, h.getTokenConfig())
	if err != nil {
		h.respondError(c, err, "google sign-in failed")
		return
	}

	response.Success(c, http.StatusOK, authResp, "Login successful", nil)
}

// Logout clears the user's refresh token.
func (h *Handler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "no access token provided", nil)
		return
	}

	token := ExtractToken(authHeader)
	tokenCfg := h.getTokenConfig()

	if err := Logout(h.db, token, tokenCfg); err != nil {
		h.respondError(c, err, "logout failed")
		return
	}

	response.Success(c, http.StatusOK, true, "Logout successful", nil)
}

// RequestPasswordReset sends a password reset email.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid email", err)
		return
	}

	tokenCfg := h.getTokenConfig()
	resetInfo, err := RequestPasswordReset(h.db, req.Email, tokenCfg)
	if err != nil {
		h.respondError(c, err, "failed to request password reset")
		return
	}

	if resetInfo != nil {
		go func() {
			if err := h.emailClient.SendPasswordReset(resetInfo.Email, resetInfo.Token, h.cfg.Email.FrontendURL); err != nil {
				h.logger.Error("failed to send password reset email",
					slog.String("email", resetInfo.Email),
					slog.String("error", err.Error()))
			}
		}()
		h.logger.Info("password reset requested", slog.String("email", req.Email))
	}

	response.Success(c, http.StatusOK, true, "If the email exists in our system, a password reset link has been sent.", nil)
}

// ResetPassword changes a user's password using a reset token.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid reset payload", err)
		return
	}

	tokenCfg := h.getTokenConfig()

	if err := ResetPassword(h.db, req.Token, req.NewPassword, tokenCfg); err != nil {
		h.respondError(c, err, "password reset failed")
		return
	}

	response.Success(c, http.StatusOK, true, "Password reset successful. Please login with your new password.", nil)
}

// RequestEmailVerification sends an email verification link when appropriate.
func (h *Handler) RequestEmailVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Email is required", err)
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Email is required", nil)
		return
	}

	tokenCfg := h.getTokenConfig()
	info, err := RequestEmailVerification(h.db, req.Email, tokenCfg)
	if err != nil {
		h.respondError(c, err, "failed to request email verification")
		return
	}

	if info == nil || info.AlreadyVerified {
		response.Success(c, http.StatusOK, true, "If the email exists in our system, a verification link has been sent.", nil)
		return
	}

	go func(emailAddr, token string) {
		if err := h.emailClient.SendEmailVerification(emailAddr, token, h.cfg.Email.FrontendURL); err != nil {
			h.logger.Error("failed to send email verification", slog.String("email", emailAddr), slog.String("error", err.Error()))
		}
	}(info.Email, info.Token)

	response.Success(c, http.StatusOK, true, "If the email exists in our system, a verification link has been sent.", nil)
}

// VerifyEmail validates the verification token and marks the user as verified.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Verification token is required", err)
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "Verification token is required", nil)
		return
	}

	tokenCfg := h.getTokenConfig()
	result, err := VerifyEmail(h.db, req.Token, tokenCfg)
	if err != nil {
		h.respondError(c, err, "email verification failed")
		return
	}

	if result != nil && result.AlreadyVerified {
		response.Success(c, http.StatusOK, true, "Email is already verified.", nil)
		return
	}

	response.Success(c, http.StatusOK, true, "Email verification successful", nil)
}

// RefreshToken generates new tokens using a refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid refresh token payload", err)
		return
	}

	tokenCfg := h.getTokenConfig()

	tokenPair, err := RefreshAccessToken(h.db, req.RefreshToken, tokenCfg)
	if err != nil {
		h.respondError(c, err, "token refresh failed")
		return
	}

	response.Success(c, http.StatusOK, tokenPair, "", nil)
}

func (h *Handler) getTokenConfig() TokenConfig {
	return TokenConfig{
		JWTSecret:               h.cfg.JWTSecret,
		JWTRefreshSecret:        h.cfg.JWTRefreshSecret,
		AccessTokenExpiry:       15 * time.Minute,
		RefreshTokenExpiry:      7 * 24 * time.Hour,
		PasswordResetExpiry:     1 * time.Hour,
		EmailVerificationExpiry: 24 * time.Hour,
	}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "Invalid email or password"
	case errors.Is(err, ErrMissingFields):
		status = http.StatusBadRequest
		message = "Missing required fields"
	case errors.Is(err, ErrInvalidEmail):
		status = http.StatusBadRequest
		message = "Invalid email format"
	case errors.Is(err, ErrWeakPassword):
		status = http.StatusBadRequest
		message = "Password must be at least 8 characters long"
	case errors.Is(err, ErrInactiveAccount):
		status = http.StatusForbidden
		message = "Your account is inactive. Please contact support"
	case errors.Is(err, ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "Invalid or expired token"
	case errors.Is(err, ErrInvalidTokenType):
		status = http.StatusBadRequest
		message = "Invalid token type"
	case errors.Is(err, ErrInvalidVerificationToken):
		status = http.StatusBadRequest
		message = "Invalid or malformed verification token"
	case errors.Is(err, ErrVerificationTokenExpired):
		status = http.StatusBadRequest
		message = "Verification token has expired. Please request a new verification email."
	case errors.Is(err, ErrGoogleNotConfigured):
		status = http.StatusServiceUnavailable
		message = "Google sign-in is not configured"
	case errors.Is(err, ErrGoogleExchangeFailed):
		status = http.StatusUnauthorized
		message = "Google sign-in failed. Please try again."
	case errors.Is(err, user.ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, user.ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already exists."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
