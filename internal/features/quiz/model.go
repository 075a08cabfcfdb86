package quiz

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/pkg/types"
)

// Test is a single-question knowledge check attached to a video.
type Test struct {
	types.BaseModel

	VideoID  uuid.UUID      `gorm:"type:uuid;not null;column:video_id;uniqueIndex" json:"videoId"`
	Question string         `gorm:"type:varchar(500);not null" json:"question"`
	Options  pq.StringArray `gorm:"type:text[];not null" json:"options"`
	Answer   string         `gorm:"type:varchar(255);not null" json:"answer,omitempty"`

	Video *video.Video `gorm:"foreignKey:VideoID" json:"video,omitempty"`
}

// TableName overrides the default table name.
func (Test) TableName() string { return "tests" }

// Sanitized returns a copy safe to show students: the answer is blanked.
func (t Test) Sanitized() Test {
	t.Answer = ""
	return t
}

// Answer is one recorded response inside a submission.
type Answer struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedOption string `json:"selectedOption"`
}

// Submission is the stored record of a student's attempt, kept verbatim for
// instructor review. One row per (user, test); resubmitting overwrites.
type Submission struct {
	types.BaseModel

	UserID   uuid.UUID       `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_user_test" json:"userId"`
	TestID   uuid.UUID       `gorm:"type:uuid;not null;column:test_id;uniqueIndex:idx_user_test" json:"testId"`
	Answers  types.JSON      `gorm:"type:jsonb;not null" json:"answers"`
	Score    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"score"`
	Marks    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"marks"`
	Graded   bool            `gorm:"type:boolean;not null;default:false" json:"graded"`
	GradedBy *uuid.UUID      `gorm:"type:uuid;column:graded_by" json:"gradedBy,omitempty"`

	User *user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Test *Test      `gorm:"foreignKey:TestID" json:"test,omitempty"`
}

// TableName overrides the default table name.
func (Submission) TableName() string { return "test_submissions" }

// CreateTestInput carries data for creating a test.
type CreateTestInput struct {
	VideoID  uuid.UUID
	Question string
	Options  []string
	Answer   string
}

// UpdateTestInput captures mutable test fields.
type UpdateTestInput struct {
	Question *string
	Options  []string
	Answer   *string
}

// GetTest retrieves a test by ID.
func GetTest(db *gorm.DB, id uuid.UUID) (Test, error) {
	var t Test
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return t, ErrTestNotFound
		}
		return t, err
	}
	return t, nil
}

// GetTestByVideo retrieves the test attached to a video.
func GetTestByVideo(db *gorm.DB, videoID uuid.UUID) (Test, error) {
	var t Test
	if err := db.First(&t, "video_id = ?", videoID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return t, ErrTestNotFound
		}
		return t, err
	}
	return t, nil
}

// CreateTest inserts a new test. Each video carries at most one.
func CreateTest(db *gorm.DB, input CreateTestInput) (Test, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return Test{}, ErrQuestionRequired
	}

	options, err := normalizeOptions(input.Options)
	if err != nil {
		return Test{}, err
	}

	answer := strings.TrimSpace(input.Answer)
	if !optionListed(options, answer) {
		return Test{}, ErrAnswerNotInOptions
	}

	t := Test{
		VideoID:  input.VideoID,
		Question: question,
		Options:  options,
		Answer:   answer,
	}

	if err := db.Create(&t).Error; err != nil {
		if strings.Contains(err.Error(), "idx_tests_video_id") || strings.Contains(err.Error(), "duplicate key") {
			return Test{}, ErrTestExists
		}
		return Test{}, err
	}

	return t, nil
}

// UpdateTest modifies an existing test.
func UpdateTest(db *gorm.DB, id uuid.UUID, input UpdateTestInput) (Test, error) {
	t, err := GetTest(db, id)
	if err != nil {
		return t, err
	}

	if input.Question != nil {
		question := strings.TrimSpace(*input.Question)
		if question == "" {
			return t, ErrQuestionRequired
		}
		t.Question = question
	}

	if input.Options != nil {
		options, err := normalizeOptions(input.Options)
		if err != nil {
			return t, err
		}
		t.Options = options
	}

	if input.Answer != nil {
		t.Answer = strings.TrimSpace(*input.Answer)
	}

	if !optionListed(t.Options, t.Answer) {
		return t, ErrAnswerNotInOptions
	}

	if err := db.Save(&t).Error; err != nil {
		return t, err
	}

	return t, nil
}

// DeleteTest removes a test and its submissions.
func DeleteTest(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Submission{}, "test_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&Test{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTestNotFound
		}
		return nil
	})
}

// SaveSubmission upserts the (user, test) attempt with the raw answers. The
// record starts ungraded; resubmitting replaces the answers and resets grading.
func SaveSubmission(db *gorm.DB, userID, testID uuid.UUID, answers []Answer) (Submission, error) {
	if len(answers) == 0 {
		return Submission{}, ErrNoAnswers
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		UserID:  userID,
		TestID:  testID,
		Answers: types.JSON(raw),
		Score:   decimal.Zero,
		Marks:   decimal.Zero,
		Graded:  false,
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "test_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"answers":    types.JSON(raw),
			"score":      decimal.Zero,
			"marks":      decimal.Zero,
			"graded":     false,
			"graded_by":  nil,
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(&sub).Error
	if err != nil {
		return Submission{}, err
	}

	return GetSubmission(db, userID, testID)
}

// GetSubmission retrieves the (user, test) attempt.
func GetSubmission(db *gorm.DB, userID, testID uuid.UUID) (Submission, error) {
	var sub Submission
	if err := db.First(&sub, "user_id = ? AND test_id = ?", userID, testID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return sub, ErrSubmissionNotFound
		}
		return sub, err
	}
	return sub, nil
}

// GetSubmissionByID retrieves a submission by primary key.
func GetSubmissionByID(db *gorm.DB, id uuid.UUID) (Submission, error) {
	var sub Submission
	err := db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "full_name", "email", "user_type", "is_active", "created_at", "updated_at")
	}).
		Preload("Test").
		First(&sub, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return sub, ErrSubmissionNotFound
		}
		return sub, err
	}
	return sub, nil
}

// ListUngraded returns submissions waiting for instructor review.
func ListUngraded(db *gorm.DB, testID *uuid.UUID) ([]Submission, error) {
	query := db.Model(&Submission{}).Where("graded = ?", false)
	if testID != nil {
		query = query.Where("test_id = ?", *testID)
	}

	var subs []Submission
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email", "user_type", "is_active", "created_at", "updated_at")
		}).
		Preload("Test").
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

// Grade records an instructor's marking of a submission. The stored score is
// the percentage of correct answers, computed exactly.
func Grade(db *gorm.DB, id, gradedBy uuid.UUID, correct, total int) (Submission, error) {
	if total <= 0 || correct < 0 || correct > total {
		return Submission{}, ErrInvalidGrade
	}

	sub, err := GetSubmissionByID(db, id)
	if err != nil {
		return sub, err
	}

	marks := decimal.NewFromInt(int64(correct))
	percentage := marks.
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)

	updates := map[string]interface{}{
		"score":     percentage,
		"marks":     marks,
		"graded":    true,
		"graded_by": gradedBy,
	}

	if err := db.Model(&Submission{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return sub, err
	}

	return GetSubmissionByID(db, id)
}

func normalizeOptions(options []string) (pq.StringArray, error) {
	cleaned := make(pq.StringArray, 0, len(options))
	for _, opt := range options {
		trimmed := strings.TrimSpace(opt)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) < 2 {
		return nil, ErrOptionsRequired
	}
	return cleaned, nil
}

func optionListed(options pq.StringArray, answer string) bool {
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(answer)) {
			return true
		}
	}
	return false
}
