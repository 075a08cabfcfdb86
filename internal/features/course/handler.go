package course

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/middleware"
	"github.com/courseflow/courseflow-server/pkg/cache"
	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/request"
	"github.com/courseflow/courseflow-server/pkg/response"
	"github.com/courseflow/courseflow-server/pkg/types"
)

const (
	catalogCacheKey = "courseflow:catalog"
	catalogCacheTTL = 5 * time.Minute
)

// Handler processes course HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	cache  *cache.RedisClient
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
		cache:  cacheClient,
	}
}

type courseWithVideoSummary struct {
	Course
	Videos []videoSummary `gorm:"foreignKey:CourseID" json:"videos"`
}

type videoSummary struct {
	ID       uuid.UUID `json:"id"`
	CourseID uuid.UUID `json:"courseId"`
	Title    string    `json:"title"`
	Order    int       `json:"order"`
}

func (videoSummary) TableName() string {
	return "videos"
}

// List returns the course catalog. With getAllWithVideos=true it returns every
// course with a video summary, served from cache when available.
func (h *Handler) List(c *gin.Context) {
	if strings.EqualFold(c.Query("getAllWithVideos"), "true") {
		h.listCatalog(c)
		return
	}

	params := pagination.Extract(c)
	keyword := c.Query("filterKeyword")
	activeOnly := c.Query("activeOnly") == "true"

	filters := ListFilters{
		Keyword:    keyword,
		ActiveOnly: activeOnly,
	}

	if instructor := c.Query("instructorId"); instructor != "" {
		id, err := uuid.Parse(instructor)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid instructor id", err)
			return
		}
		filters.InstructorID = &id
	}

	courses, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

func (h *Handler) listCatalog(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil && h.cache.Enabled() {
		var cached []courseWithVideoSummary
		if err := h.cache.GetJSON(ctx, catalogCacheKey, &cached); err == nil {
			response.Success(c, http.StatusOK, cached, "", nil)
			return
		}
	}

	courses := make([]courseWithVideoSummary, 0)
	err := h.db.Model(&Course{}).
		Where("is_active = ?", true).
		Order("\"order\" ASC").
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "course_id", "title", "\"order\"").Order("\"order\" ASC")
		}).
		Find(&courses).Error
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load courses", err)
		return
	}

	if h.cache != nil && h.cache.Enabled() {
		if err := h.cache.SetJSON(ctx, catalogCacheKey, courses, catalogCacheTTL); err != nil {
			h.logger.Warn("failed to cache course catalog", "error", err)
		}
	}

	response.Success(c, http.StatusOK, courses, "", nil)
}

func (h *Handler) invalidateCatalog(ctx context.Context) {
	if h.cache == nil || !h.cache.Enabled() {
		return
	}
	if err := h.cache.Delete(ctx, catalogCacheKey); err != nil {
		h.logger.Warn("failed to invalidate course catalog cache", "error", err)
	}
}

// Create inserts a new course.
func (h *Handler) Create(c *gin.Context) {
	var req struct {
		Name         string  `json:"name" binding:"required"`
		Description  *string `json:"description"`
		Image        *string `json:"image"`
		InstructorID *string `json:"instructorId"`
		Order        *int    `json:"order"`
		Active       *bool   `json:"isActive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "'name' is required.", nil)
		return
	}

	input := CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Order:       req.Order,
		Active:      req.Active,
	}

	if req.InstructorID != nil {
		id, err := uuid.Parse(*req.InstructorID)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid instructor id", err)
			return
		}
		input.InstructorID = &id
	} else if usr, ok := middleware.GetUserFromContext(c); ok && usr.UserType == types.UserTypeInstructor {
		input.InstructorID = &usr.ID
	}

	created, err := Create(h.db, input)
	if err != nil {
		h.respondError(c, err, "failed to create course")
		return
	}

	h.invalidateCatalog(c.Request.Context())
	response.Created(c, created, "")
}

// GetByID fetches a single course.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	response.Success(c, http.StatusOK, crs, "", nil)
}

// Update modifies an existing course.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	input := UpdateInput{}

	if value, ok := body["name"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "name must be a string", err)
			return
		}
		input.Name = &str
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

	if value, ok := body["image"]; ok {
		input.ImageProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "image must be a string", err)
				return
			}
			input.Image = &str
		}
	}

	if value, ok := body["instructorId"]; ok {
		input.InstructorProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "instructorId must be a string", err)
				return
			}
			parsed, err := uuid.Parse(str)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid instructor id", err)
				return
			}
			input.InstructorID = &parsed
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
		h.respondError(c, err, "failed to update course")
		return
	}

	h.invalidateCatalog(c.Request.Context())
	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a course and all dependent rows (videos, tests, submissions, progress).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	if _, err := Get(h.db, id); err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM test_submissions WHERE test_id IN (SELECT t.id FROM tests t JOIN videos v ON v.id = t.video_id WHERE v.course_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM tests WHERE video_id IN (SELECT id FROM videos WHERE course_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM progress WHERE course_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM videos WHERE course_id = ?`, id).Error; err != nil {
			return err
		}
		return Delete(tx, id)
	})
	if err != nil {
		h.respondError(c, err, "failed to delete course")
		return
	}

	h.invalidateCatalog(c.Request.Context())
	response.Success(c, http.StatusOK, true, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found."
	case errors.Is(err, ErrNameRequired):
		status = http.StatusBadRequest
		message = "Course name is required."
	case errors.Is(err, ErrOrderTaken):
		status = http.StatusConflict
		message = "Course order already exists."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
