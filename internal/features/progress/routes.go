package progress

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches progress endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, allUsers, acAll, staffOnly []gin.HandlerFunc) {
	// Enrollment cannot require enrollment.
	router.POST("/courses/:courseId/enroll", append(allUsers, handler.Enroll)...)

	courseScoped := router.Group("/courses/:courseId")
	courseScoped.GET("/progress", append(acAll, handler.GetCourseProgress)...)
	courseScoped.POST("/videos/:videoId/watched", append(acAll, handler.MarkWatched)...)

	review := router.Group("/progress")
	review.GET("/pending", append(staffOnly, handler.ListPending)...)
	review.POST("/:progressId/approve", append(staffOnly, handler.Approve)...)
}
