package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches authentication endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/logout", handler.Logout)
		auth.GET("/google", handler.GoogleLogin)
		auth.GET("/google/callback", handler.GoogleCallback)
		auth.POST("/refresh-token", handler.RefreshToken)
		auth.POST("/request-password-reset", handler.RequestPasswordReset)
		auth.POST("/reset-password", handler.ResetPassword)
		auth.POST("/request-email-verification", handler.RequestEmailVerification)
		auth.POST("/verify-email", handler.VerifyEmail)
	}
}
