package quiz

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches knowledge check endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, staffOnly []gin.HandlerFunc) {
	videoScoped := router.Group("/courses/:courseId/videos/:videoId/test")

	videoScoped.GET("", append(acAll, handler.GetForVideo)...)
	videoScoped.POST("", append(staffOnly, handler.Create)...)
	videoScoped.POST("/submit", append(acAll, handler.Submit)...)

	tests := router.Group("/tests")
	tests.PUT("/:testId", append(staffOnly, handler.Update)...)
	tests.DELETE("/:testId", append(staffOnly, handler.Delete)...)

	submissions := router.Group("/submissions")
	submissions.GET("/ungraded", append(staffOnly, handler.ListUngraded)...)
	submissions.POST("/:submissionId/grade", append(staffOnly, handler.GradeSubmission)...)
}
