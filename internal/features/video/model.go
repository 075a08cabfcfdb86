package video

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/types"
	"github.com/courseflow/courseflow-server/pkg/validation"
)

// Video represents an ordered lesson video within a course.
type Video struct {
	types.BaseModel

	CourseID    uuid.UUID `gorm:"type:uuid;not null;column:course_id;index;uniqueIndex:idx_course_order" json:"courseId"`
	Title       string    `gorm:"type:varchar(100);not null" json:"title"`
	Description *string   `gorm:"type:varchar(1000)" json:"description,omitempty"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Duration    int       `gorm:"type:int;not null;default:0" json:"duration"` // seconds
	Order       int       `gorm:"type:int;not null;default:0;uniqueIndex:idx_course_order" json:"order"`
	Active      bool      `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (Video) TableName() string { return "videos" }

// ListFilters defines video query filters.
type ListFilters struct {
	CourseID   uuid.UUID
	Keyword    string
	ActiveOnly bool
}

// CreateInput carries data for creating a new video.
type CreateInput struct {
	CourseID    uuid.UUID
	Title       string
	Description *string
	URL         string
	Duration    *int
	Order       *int
	Active      *bool
}

// UpdateInput captures mutable video fields.
type UpdateInput struct {
	Title         *string
	DescProvided  bool
	Description   *string
	URL           *string
	Duration      *int
	OrderProvided bool
	Order         *int
	Active        *bool
}

// List retrieves paginated videos for a course, position ordered.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Video, int64, error) {
	query := db.Model(&Video{}).Where("course_id = ?", filters.CourseID)

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", keyword, keyword)
	}

	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []Video
	err := query.
		Order("\"order\" ASC NULLS LAST, title ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&videos).Error

	return videos, total, err
}

// GetByCourse retrieves all videos for a course in position order.
func GetByCourse(db *gorm.DB, courseID uuid.UUID) ([]Video, error) {
	var videos []Video
	err := db.Where("course_id = ?", courseID).
		Order("\"order\" ASC NULLS LAST, title ASC").
		Find(&videos).Error
	return videos, err
}

// Get retrieves a video by ID.
func Get(db *gorm.DB, id uuid.UUID) (Video, error) {
	var vid Video
	if err := db.First(&vid, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return vid, ErrVideoNotFound
		}
		return vid, err
	}
	return vid, nil
}

// GetForCourse retrieves a video by ID scoped to a course.
func GetForCourse(db *gorm.DB, id, courseID uuid.UUID) (Video, error) {
	var vid Video
	if err := db.First(&vid, "id = ? AND course_id = ?", id, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return vid, ErrVideoNotFound
		}
		return vid, err
	}
	return vid, nil
}

// First returns the course's first video by position.
func First(db *gorm.DB, courseID uuid.UUID) (Video, error) {
	var vid Video
	err := db.Where("course_id = ?", courseID).
		Order("\"order\" ASC").
		First(&vid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return vid, ErrVideoNotFound
		}
		return vid, err
	}
	return vid, nil
}

// NextAfter returns the video with the smallest order strictly greater than
// the given position. Returns ErrNoNextVideo past the end of the course.
func NextAfter(db *gorm.DB, courseID uuid.UUID, order int) (Video, error) {
	var vid Video
	err := db.Where("course_id = ? AND \"order\" > ?", courseID, order).
		Order("\"order\" ASC").
		First(&vid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return vid, ErrNoNextVideo
		}
		return vid, err
	}
	return vid, nil
}

// Create inserts a new video.
func Create(db *gorm.DB, input CreateInput) (Video, error) {
	trimmedTitle := strings.TrimSpace(input.Title)
	if trimmedTitle == "" {
		return Video{}, ErrTitleRequired
	}
	if titleLen := utf8.RuneCountInString(trimmedTitle); titleLen < 3 || titleLen > 100 {
		return Video{}, ErrTitleLength
	}

	url, err := validation.NormalizeURL(input.URL)
	if err != nil {
		return Video{}, ErrURLRequired
	}

	if input.Order != nil && *input.Order < 0 {
		return Video{}, ErrOrderInvalid
	}

	if input.Duration != nil && *input.Duration < 0 {
		return Video{}, ErrDurationRange
	}

	order := 0
	if input.Order != nil {
		order = *input.Order
	} else {
		// Append to the end of the course when no position is given.
		var maxOrder *int
		if err := db.Model(&Video{}).
			Where("course_id = ?", input.CourseID).
			Select("MAX(\"order\")").
			Scan(&maxOrder).Error; err != nil {
			return Video{}, err
		}
		if maxOrder != nil {
			order = *maxOrder + 1
		}
	}

	if taken, err := orderTaken(db, input.CourseID, order, nil); err != nil {
		return Video{}, err
	} else if taken {
		return Video{}, ErrOrderTaken
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	duration := 0
	if input.Duration != nil {
		duration = *input.Duration
	}

	vid := Video{
		CourseID:    input.CourseID,
		Title:       trimmedTitle,
		Description: trimDescription(input.Description),
		URL:         url,
		Duration:    duration,
		Order:       order,
		Active:      active,
	}

	if err := db.Create(&vid).Error; err != nil {
		return Video{}, err
	}

	return vid, nil
}

// Update modifies an existing video.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Video, error) {
	vid, err := Get(db, id)
	if err != nil {
		return vid, err
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return vid, ErrTitleRequired
		}
		if titleLen := utf8.RuneCountInString(trimmed); titleLen < 3 || titleLen > 100 {
			return vid, ErrTitleLength
		}
		vid.Title = trimmed
	}

	if input.DescProvided {
		vid.Description = trimDescription(input.Description)
	}

	if input.URL != nil {
		url, err := validation.NormalizeURL(*input.URL)
		if err != nil {
			return vid, ErrURLRequired
		}
		vid.URL = url
	}

	if input.Duration != nil {
		if *input.Duration < 0 {
			return vid, ErrDurationRange
		}
		vid.Duration = *input.Duration
	}

	if input.OrderProvided && input.Order != nil {
		if *input.Order < 0 {
			return vid, ErrOrderInvalid
		}
		if taken, err := orderTaken(db, vid.CourseID, *input.Order, &id); err != nil {
			return vid, err
		} else if taken {
			return vid, ErrOrderTaken
		}
		vid.Order = *input.Order
	}

	if input.Active != nil {
		vid.Active = *input.Active
	}

	if err := db.Save(&vid).Error; err != nil {
		return vid, err
	}

	return vid, nil
}

// Delete removes a video.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Video{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func orderTaken(db *gorm.DB, courseID uuid.UUID, order int, excludeID *uuid.UUID) (bool, error) {
	query := db.Model(&Video{}).Where("course_id = ? AND \"order\" = ?", courseID, order)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func trimDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
