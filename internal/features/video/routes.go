package video

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches video endpoints to the router.
// Reads require enrollment (for students); writes are staff only.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, staffOnly []gin.HandlerFunc) {
	videos := router.Group("/courses/:courseId/videos")

	videos.GET("", append(acAll, handler.List)...)
	videos.GET("/:videoId", append(acAll, handler.GetByID)...)
	videos.POST("", append(staffOnly, handler.Create)...)
	videos.PUT("/:videoId", append(staffOnly, handler.Update)...)
	videos.DELETE("/:videoId", append(staffOnly, handler.Delete)...)
}
