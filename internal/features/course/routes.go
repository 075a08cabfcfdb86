package course

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches course endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, allUsers, staffOnly, adminOnly []gin.HandlerFunc) {
	courses := router.Group("/courses")

	courses.GET("", append(allUsers, handler.List)...)
	courses.GET("/:courseId", append(allUsers, handler.GetByID)...)
	courses.POST("", append(staffOnly, handler.Create)...)
	courses.PUT("/:courseId", append(staffOnly, handler.Update)...)
	courses.DELETE("/:courseId", append(adminOnly, handler.Delete)...)
}
