package course

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/pagination"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Course represents a course in the catalog.
type Course struct {
	types.BaseModel

	Name         string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description  *string    `gorm:"type:varchar(1000)" json:"description,omitempty"`
	Image        *string    `gorm:"type:text" json:"image,omitempty"`
	InstructorID *uuid.UUID `gorm:"type:uuid;column:instructor_id;index" json:"instructorId,omitempty"`
	Order        int        `gorm:"type:int;not null;default:0" json:"order"`
	Active       bool       `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// ListFilters defines course query filters.
type ListFilters struct {
	Keyword      string
	InstructorID *uuid.UUID
	ActiveOnly   bool
}

// CreateInput carries data for creating a new course.
type CreateInput struct {
	Name         string
	Description  *string
	Image        *string
	InstructorID *uuid.UUID
	Order        *int
	Active       *bool
}

// UpdateInput captures mutable course fields.
type UpdateInput struct {
	Name               *string
	DescProvided       bool
	Description        *string
	ImageProvided      bool
	Image              *string
	InstructorProvided bool
	InstructorID       *uuid.UUID
	OrderProvided      bool
	Order              *int
	Active             *bool
}

// List retrieves paginated courses with filters.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{})

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", keyword, keyword)
	}

	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}

	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	err := query.
		Order("\"order\" ASC NULLS LAST, name ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&courses).Error

	return courses, total, err
}

// GetAll retrieves every course, catalog ordered.
func GetAll(db *gorm.DB) ([]Course, error) {
	var courses []Course
	err := db.Order("\"order\" ASC NULLS LAST, name ASC").Find(&courses).Error
	return courses, err
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var crs Course
	if err := db.First(&crs, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return crs, ErrCourseNotFound
		}
		return crs, err
	}
	return crs, nil
}

// Create inserts a new course.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Course{}, ErrNameRequired
	}

	if input.Order != nil {
		var existing Course
		err := db.First(&existing, "\"order\" = ?", *input.Order).Error
		if err == nil {
			return Course{}, ErrOrderTaken
		}
		if err != gorm.ErrRecordNotFound {
			return Course{}, err
		}
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	order := 0
	if input.Order != nil {
		order = *input.Order
	}

	crs := Course{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Image:        input.Image,
		InstructorID: input.InstructorID,
		Order:        order,
		Active:       active,
	}

	if err := db.Create(&crs).Error; err != nil {
		return Course{}, err
	}

	return crs, nil
}

// Update modifies an existing course.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Course, error) {
	crs, err := Get(db, id)
	if err != nil {
		return crs, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return crs, ErrNameRequired
		}
		crs.Name = strings.TrimSpace(*input.Name)
	}

	if input.DescProvided {
		crs.Description = input.Description
	}

	if input.ImageProvided {
		crs.Image = input.Image
	}

	if input.InstructorProvided {
		crs.InstructorID = input.InstructorID
	}

	if input.OrderProvided {
		if input.Order != nil {
			var existing Course
			err := db.First(&existing, "\"order\" = ? AND id != ?", *input.Order, id).Error
			if err == nil {
				return crs, ErrOrderTaken
			}
			if err != gorm.ErrRecordNotFound {
				return crs, err
			}
			crs.Order = *input.Order
		} else {
			crs.Order = 0
		}
	}

	if input.Active != nil {
		crs.Active = *input.Active
	}

	if err := db.Save(&crs).Error; err != nil {
		return crs, err
	}

	return crs, nil
}

// Delete removes a course.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Course{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
