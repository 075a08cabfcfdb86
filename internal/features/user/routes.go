package user

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches user endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, staffOnly, allUsers []gin.HandlerFunc) {
	users := router.Group("/users")

	users.GET("", append(staffOnly, handler.List)...)
	users.POST("", append(staffOnly, handler.Create)...)
	users.GET("/:userId", append(allUsers, handler.GetByID)...)
	users.PUT("/:userId", append(allUsers, handler.Update)...)
	users.DELETE("/:userId", append(allUsers, handler.Delete)...)
}
