package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courseflow/courseflow-server/internal/features/course"
	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Progress is the per-user unlock ledger. A row with NULL video_id is the
// enrollment marker for the course; a row with a video_id means that video is
// unlocked for the user, and completed means it has been approved.
type Progress struct {
	types.BaseModel

	UserID    uuid.UUID  `gorm:"type:uuid;not null;column:user_id;index;uniqueIndex:idx_user_video" json:"userId"`
	CourseID  uuid.UUID  `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	VideoID   *uuid.UUID `gorm:"type:uuid;column:video_id;uniqueIndex:idx_user_video" json:"videoId"`
	Completed bool       `gorm:"type:boolean;not null;default:false" json:"completed"`
	Score     *float64   `gorm:"type:numeric(5,2)" json:"score,omitempty"`

	User   *user.User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *course.Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Video  *video.Video   `gorm:"foreignKey:VideoID" json:"video,omitempty"`
}

// TableName overrides the default table name.
func (Progress) TableName() string { return "progress" }

// Enroll inserts the enrollment marker for (user, course) if absent and
// provisions the first video's ledger row with completed=false, so a student
// can submit for video one straight after enrolling. Postgres treats NULLs as
// distinct in unique indexes, so the marker is guarded with a
// select-then-create instead of an upsert.
func Enroll(db *gorm.DB, userID, courseID uuid.UUID) (Progress, error) {
	marker, err := ensureMarker(db, userID, courseID)
	if err != nil {
		return Progress{}, err
	}

	if err := provisionFirstEntry(db, userID, courseID); err != nil {
		return Progress{}, err
	}

	return marker, nil
}

func ensureMarker(db *gorm.DB, userID, courseID uuid.UUID) (Progress, error) {
	var existing Progress
	err := db.First(&existing, "user_id = ? AND course_id = ? AND video_id IS NULL", userID, courseID).Error
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return Progress{}, err
	}

	marker := Progress{
		UserID:    userID,
		CourseID:  courseID,
		VideoID:   nil,
		Completed: false,
	}
	if err := db.Create(&marker).Error; err != nil {
		// Concurrent enrollment lost the race; the marker now exists.
		var raced Progress
		if lookupErr := db.First(&raced, "user_id = ? AND course_id = ? AND video_id IS NULL", userID, courseID).Error; lookupErr == nil {
			return raced, nil
		}
		return Progress{}, err
	}

	return marker, nil
}

// provisionFirstEntry upserts the row for the course's first video. The
// upsert never demotes, so re-enrolling a user who already progressed is
// harmless. A course without videos is left as marker-only.
func provisionFirstEntry(db *gorm.DB, userID, courseID uuid.UUID) error {
	first, err := video.First(db, courseID)
	if err != nil {
		if err == video.ErrVideoNotFound {
			return nil
		}
		return err
	}

	_, err = Upsert(db, UpsertInput{
		UserID:    userID,
		CourseID:  courseID,
		VideoID:   first.ID,
		Completed: false,
	})
	return err
}

// RequireEnrollment returns ErrNotEnrolled when the user holds no marker.
func RequireEnrollment(db *gorm.DB, userID, courseID uuid.UUID) error {
	enrolled, err := IsEnrolled(db, userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// IsEnrolled reports whether the user holds an enrollment marker for the course.
func IsEnrolled(db *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&Progress{}).
		Where("user_id = ? AND course_id = ? AND video_id IS NULL", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// EntriesForCourse returns the user's per-video progress rows for a course.
// The enrollment marker is excluded.
func EntriesForCourse(db *gorm.DB, userID, courseID uuid.UUID) ([]Progress, error) {
	var entries []Progress
	err := db.Where("user_id = ? AND course_id = ? AND video_id IS NOT NULL", userID, courseID).
		Find(&entries).Error
	return entries, err
}

// GetEntry returns the user's progress row for a single video.
func GetEntry(db *gorm.DB, userID, videoID uuid.UUID) (Progress, error) {
	var entry Progress
	if err := db.First(&entry, "user_id = ? AND video_id = ?", userID, videoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return entry, ErrEntryNotFound
		}
		return entry, err
	}
	return entry, nil
}

// Get returns a progress row by ID with its relations preloaded.
func Get(db *gorm.DB, id uuid.UUID) (Progress, error) {
	var entry Progress
	err := db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "full_name", "email", "user_type", "is_active", "created_at", "updated_at")
	}).
		Preload("Video").
		Preload("Course").
		First(&entry, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return entry, ErrEntryNotFound
		}
		return entry, err
	}
	return entry, nil
}

// UpsertInput describes a per-video ledger write.
type UpsertInput struct {
	UserID    uuid.UUID
	CourseID  uuid.UUID
	VideoID   uuid.UUID
	Completed bool
	Score     *float64
}

// Upsert writes a (user, video) progress row. On conflict it never demotes:
// completed stays true once set, and the score only changes when provided.
func Upsert(db *gorm.DB, input UpsertInput) (Progress, error) {
	videoID := input.VideoID
	entry := Progress{
		UserID:    input.UserID,
		CourseID:  input.CourseID,
		VideoID:   &videoID,
		Completed: input.Completed,
		Score:     input.Score,
	}

	assignments := map[string]interface{}{
		"completed":  gorm.Expr("progress.completed OR excluded.completed"),
		"updated_at": gorm.Expr("now()"),
	}
	if input.Score != nil {
		assignments["score"] = *input.Score
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&entry).Error
	if err != nil {
		return Progress{}, err
	}

	return GetEntry(db, input.UserID, input.VideoID)
}

// PendingFilters narrows the staff review queue.
type PendingFilters struct {
	CourseID *uuid.UUID
	UserID   *uuid.UUID
}

// ListPending returns per-video rows awaiting approval, oldest first, with
// user, video and course preloaded for the review queue.
func ListPending(db *gorm.DB, filters PendingFilters, params pagination.Params) ([]Progress, int64, error) {
	query := db.Model(&Progress{}).
		Where("video_id IS NOT NULL AND completed = ?", false)

	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []Progress
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email", "user_type", "is_active", "created_at", "updated_at")
		}).
		Preload("Video").
		Preload("Course").
		Order("created_at ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&entries).Error

	return entries, total, err
}
