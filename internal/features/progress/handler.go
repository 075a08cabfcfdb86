package progress

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/course"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/internal/middleware"
	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/response"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Notifier pushes realtime events to a student's room. Implemented by the
// Socket.IO server; nil disables realtime delivery.
type Notifier interface {
	EmitProgressApproved(userID uuid.UUID, payload interface{})
	EmitVideoUnlocked(userID uuid.UUID, payload interface{})
}

// Handler processes progress HTTP requests.
type Handler struct {
	db             *gorm.DB
	logger         *slog.Logger
	notifier       Notifier
	strictApproval bool
}

// NewHandler constructs a progress handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, notifier Notifier, strictApproval bool) *Handler {
	return &Handler{
		db:             db,
		logger:         logger,
		notifier:       notifier,
		strictApproval: strictApproval,
	}
}

// Enroll records the caller's enrollment in a course. Idempotent: enrolling
// twice returns the existing marker.
func (h *Handler) Enroll(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	if _, err := course.Get(h.db, courseID); err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Course not found.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}

	marker, err := Enroll(h.db, usr.ID, courseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to enroll", err)
		return
	}

	response.Created(c, marker, "")
}

// GetCourseProgress returns the derived outline for the caller: every video
// with unlocked/started/completed state plus an N-of-M completion summary.
// The first video's ledger row is provisioned on first open.
func (h *Handler) GetCourseProgress(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	targetUserID := usr.ID
	if raw := c.Query("userId"); raw != "" && usr.UserType != types.UserTypeStudent {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
			return
		}
		targetUserID = parsed
	}

	if err := RequireEnrollment(h.db, targetUserID, courseID); err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			response.ErrorWithCode(c, http.StatusForbidden, "NOT_ENROLLED", "You are not enrolled in this course.")
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to check enrollment", err)
		return
	}

	videos, err := video.GetByCourse(h.db, courseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load videos", err)
		return
	}

	entries, err := EntriesForCourse(h.db, targetUserID, courseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	// First open of an enrolled course provisions the first video's row.
	if len(entries) == 0 && len(videos) > 0 && targetUserID == usr.ID {
		entry, err := Upsert(h.db, UpsertInput{
			UserID:    targetUserID,
			CourseID:  courseID,
			VideoID:   videos[0].ID,
			Completed: false,
		})
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to start course", err)
			return
		}
		entries = append(entries, entry)
	}

	state := DeriveStates(videos, entries)
	response.Success(c, http.StatusOK, state, "", nil)
}

// MarkWatched records that the caller finished a video and is waiting for
// review. The write is an upsert that never demotes an approved entry.
func (h *Handler) MarkWatched(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	videoID, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	if _, err := video.GetForCourse(h.db, videoID, courseID); err != nil {
		if errors.Is(err, video.ErrVideoNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Video not found.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load video", err)
		return
	}

	unlocked, err := h.isUnlocked(usr.ID, courseID, videoID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to derive unlock state", err)
		return
	}
	if !unlocked {
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "Video is not unlocked yet.", ErrVideoLocked)
		return
	}

	entry, err := Upsert(h.db, UpsertInput{
		UserID:    usr.ID,
		CourseID:  courseID,
		VideoID:   videoID,
		Completed: false,
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to record progress", err)
		return
	}

	response.Success(c, http.StatusOK, entry, "", nil)
}

// ListPending returns the review queue for staff.
func (h *Handler) ListPending(c *gin.Context) {
	params := pagination.Extract(c)

	filters := PendingFilters{}
	if raw := c.Query("courseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
			return
		}
		filters.CourseID = &id
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
			return
		}
		filters.UserID = &id
	}

	entries, total, err := ListPending(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list pending progress", err)
		return
	}

	response.Success(c, http.StatusOK, entries, "", pagination.MetadataFrom(total, params))
}

// Approve completes a pending entry and unlocks the next video.
func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("progressId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid progress id", err)
		return
	}

	result, err := Approve(h.db, h.logger, id, h.strictApproval)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Progress entry not found.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to approve progress", err)
		return
	}

	if h.notifier != nil {
		h.notifier.EmitProgressApproved(result.Entry.UserID, gin.H{
			"progressId": result.Entry.ID,
			"courseId":   result.Entry.CourseID,
			"videoId":    result.Entry.VideoID,
		})
		if result.NextVideo != nil {
			h.notifier.EmitVideoUnlocked(result.Entry.UserID, gin.H{
				"courseId": result.Entry.CourseID,
				"videoId":  result.NextVideo.ID,
				"title":    result.NextVideo.Title,
			})
		}
	}

	response.Success(c, http.StatusOK, result, "", nil)
}

func (h *Handler) isUnlocked(userID, courseID, videoID uuid.UUID) (bool, error) {
	videos, err := video.GetByCourse(h.db, courseID)
	if err != nil {
		return false, err
	}

	entries, err := EntriesForCourse(h.db, userID, courseID)
	if err != nil {
		return false, err
	}

	state := DeriveStates(videos, entries)
	for _, vs := range state.Videos {
		if vs.Video.ID == videoID {
			return vs.Unlocked, nil
		}
	}

	return false, nil
}
