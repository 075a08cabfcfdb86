package video

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/request"
	"github.com/courseflow/courseflow-server/pkg/response"
)

// Handler processes video HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a video handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated videos for a course.
func (h *Handler) List(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	params := pagination.Extract(c)
	keyword := c.Query("filterKeyword")
	activeOnly := c.Query("activeOnly") == "true"

	videos, total, err := List(h.db, ListFilters{
		CourseID:   courseID,
		Keyword:    keyword,
		ActiveOnly: activeOnly,
	}, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list videos", err)
		return
	}

	response.Success(c, http.StatusOK, videos, "", pagination.MetadataFrom(total, params))
}

// Create inserts a new video into a course.
func (h *Handler) Create(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var req struct {
		Title       string  `json:"title" binding:"required"`
		Description *string `json:"description"`
		URL         string  `json:"url" binding:"required"`
		Duration    *int    `json:"duration"`
		Order       *int    `json:"order"`
		Active      *bool   `json:"isActive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video payload", err)
		return
	}

	created, err := Create(h.db, CreateInput{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Duration:    req.Duration,
		Order:       req.Order,
		Active:      req.Active,
	})
	if err != nil {
		h.respondError(c, err, "failed to create video")
		return
	}

	response.Created(c, created, "")
}

// GetByID fetches a single video scoped to its course.
func (h *Handler) GetByID(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	vid, err := GetForCourse(h.db, id, courseID)
	if err != nil {
		h.respondError(c, err, "failed to load video")
		return
	}

	response.Success(c, http.StatusOK, vid, "", nil)
}

// Update modifies an existing video.
func (h *Handler) Update(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	if _, err := GetForCourse(h.db, id, courseID); err != nil {
		h.respondError(c, err, "failed to load video")
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video payload", err)
		return
	}

	input := UpdateInput{}

	if value, ok := body["title"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "title must be a string", err)
			return
		}
		input.Title = &str
	}

	if value, ok := body["description"]; ok {
		input.DescProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "description must be a string", err)
				return
			}
			input.Description = &str
		}
	}

	if value, ok := body["url"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "url must be a string", err)
			return
		}
		input.URL = &str
	}

	if value, ok := body["duration"]; ok {
		if value != nil {
			val, err := request.ReadInt(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "duration must be an integer", err)
				return
			}
			input.Duration = &val
		}
	}

	if value, ok := body["order"]; ok {
		input.OrderProvided = true
		if value != nil {
			val, err := request.ReadInt(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "order must be an integer", err)
				return
			}
			input.Order = &val
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
		h.respondError(c, err, "failed to update video")
		return
	}

	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a video and its dependent tests, submissions and progress rows.
func (h *Handler) Delete(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	id, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	if _, err := GetForCourse(h.db, id, courseID); err != nil {
		h.respondError(c, err, "failed to load video")
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM test_submissions WHERE test_id IN (SELECT id FROM tests WHERE video_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM tests WHERE video_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM progress WHERE video_id = ?`, id).Error; err != nil {
			return err
		}
		return Delete(tx, id)
	})
	if err != nil {
		h.respondError(c, err, "failed to delete video")
		return
	}

	response.Success(c, http.StatusOK, true, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrVideoNotFound):
		status = http.StatusNotFound
		message = "Video not found."
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrTitleLength),
		errors.Is(err, ErrURLRequired), errors.Is(err, ErrOrderInvalid),
		errors.Is(err, ErrDurationRange):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrOrderTaken):
		status = http.StatusConflict
		message = "Video order already exists for this course."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
