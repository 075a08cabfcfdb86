package quiz

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/progress"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/internal/middleware"
	"github.com/courseflow/courseflow-server/pkg/metrics"
	"github.com/courseflow/courseflow-server/pkg/response"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Handler processes knowledge check HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a quiz handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// GetForVideo returns the test attached to a video. Students never see the
// stored answer.
func (h *Handler) GetForVideo(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("videoId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid video id", err)
		return
	}

	t, err := GetTestByVideo(h.db, videoID)
	if err != nil {
		h.respondError(c, err, "failed to load test")
		return
	}

	if usr, ok := middleware.GetUserFromContext(c); ok && usr.UserType == types.UserTypeStudent {
		response.Success(c, http.StatusOK, t.Sanitized(), "", nil)
		return
	}

	response.Success(c, http.StatusOK, t, "", nil)
}

// Create attaches a test to a video.
func (h *Handler) Create(c *gin.Context) {
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

	var req struct {
		Question string   `json:"question" binding:"required"`
		Options  []string `json:"options" binding:"required"`
		Answer   string   `json:"answer" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid test payload", err)
		return
	}

	created, err := CreateTest(h.db, CreateTestInput{
		VideoID:  videoID,
		Question: req.Question,
		Options:  req.Options,
		Answer:   req.Answer,
	})
	if err != nil {
		h.respondError(c, err, "failed to create test")
		return
	}

	response.Created(c, created, "")
}

// Update modifies an existing test.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid test id", err)
		return
	}

	var req struct {
		Question *string  `json:"question"`
		Options  []string `json:"options"`
		Answer   *string  `json:"answer"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid test payload", err)
		return
	}

	updated, err := UpdateTest(h.db, id, UpdateTestInput{
		Question: req.Question,
		Options:  req.Options,
		Answer:   req.Answer,
	})
	if err != nil {
		h.respondError(c, err, "failed to update test")
		return
	}

	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a test and its submissions.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid test id", err)
		return
	}

	if err := DeleteTest(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete test")
		return
	}

	response.Success(c, http.StatusOK, true, "", nil)
}

// Submit scores the caller's attempt. The evaluator writes the score onto the
// video's progress row; it never marks the video completed. The raw answers
// are kept for instructor review.
func (h *Handler) Submit(c *gin.Context) {
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

	t, err := GetTestByVideo(h.db, videoID)
	if err != nil {
		h.respondError(c, err, "failed to load test")
		return
	}

	var req struct {
		SelectedOption string `json:"selectedOption" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid submission payload", err)
		return
	}

	// Submitting requires the video to be started, so the score lands on an
	// existing ledger row rather than silently unlocking one.
	if _, err := progress.GetEntry(h.db, usr.ID, videoID); err != nil {
		if errors.Is(err, progress.ErrEntryNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusForbidden, "Video is not unlocked yet.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	score := Evaluate(req.SelectedOption, t.Answer)

	entry, err := progress.Upsert(h.db, progress.UpsertInput{
		UserID:    usr.ID,
		CourseID:  courseID,
		VideoID:   videoID,
		Completed: false,
		Score:     &score,
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to record score", err)
		return
	}

	if _, err := SaveSubmission(h.db, usr.ID, t.ID, []Answer{{QuestionIndex: 0, SelectedOption: req.SelectedOption}}); err != nil {
		h.logger.Error("failed to store test submission",
			slog.String("test_id", t.ID.String()),
			slog.String("user_id", usr.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if score == 100 {
		metrics.RecordSubmission("correct")
	} else {
		metrics.RecordSubmission("incorrect")
	}

	response.Success(c, http.StatusOK, gin.H{
		"score":    score,
		"correct":  score == 100,
		"progress": entry,
	}, "", nil)
}

// ListUngraded returns submissions waiting for instructor review.
func (h *Handler) ListUngraded(c *gin.Context) {
	var testID *uuid.UUID
	if raw := c.Query("testId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid test id", err)
			return
		}
		testID = &id
	}

	subs, err := ListUngraded(h.db, testID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list submissions", err)
		return
	}

	response.Success(c, http.StatusOK, subs, "", nil)
}

// GradeSubmission records an instructor's marking.
func (h *Handler) GradeSubmission(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("submissionId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid submission id", err)
		return
	}

	var req struct {
		Correct int `json:"correct" binding:"min=0"`
		Total   int `json:"total" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid grade payload", err)
		return
	}

	graded, err := Grade(h.db, id, usr.ID, req.Correct, req.Total)
	if err != nil {
		h.respondError(c, err, "failed to grade submission")
		return
	}

	response.Success(c, http.StatusOK, graded, "", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrTestNotFound):
		status = http.StatusNotFound
		message = "Test not found."
	case errors.Is(err, ErrSubmissionNotFound):
		status = http.StatusNotFound
		message = "Submission not found."
	case errors.Is(err, ErrTestExists):
		status = http.StatusConflict
		message = "A test already exists for this video."
	case errors.Is(err, ErrQuestionRequired), errors.Is(err, ErrOptionsRequired),
		errors.Is(err, ErrAnswerNotInOptions), errors.Is(err, ErrNoAnswers),
		errors.Is(err, ErrInvalidGrade):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
