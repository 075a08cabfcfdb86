package progress_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/course"
	"github.com/courseflow/courseflow-server/internal/features/progress"
	"github.com/courseflow/courseflow-server/internal/features/user"
	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/pkg/database"
)

// newTestDB connects to the database named by COURSEFLOW_TEST_DATABASE_URL.
// The suite is skipped when the variable is unset so unit runs stay hermetic.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("COURSEFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("COURSEFLOW_TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedStudent(t *testing.T, db *gorm.DB) user.User {
	t.Helper()

	usr, err := user.Create(db, user.CreateInput{
		FullName: "Test Student",
		Email:    fmt.Sprintf("student-%s@example.com", uuid.NewString()),
		Password: "password123",
		UserType: user.UserTypeStudent,
	})
	require.NoError(t, err)
	return usr
}

func seedCourse(t *testing.T, db *gorm.DB, videoCount int) (course.Course, []video.Video) {
	t.Helper()

	crs := course.Course{Name: fmt.Sprintf("Course %s", uuid.NewString())}
	require.NoError(t, db.Create(&crs).Error)

	videos := make([]video.Video, 0, videoCount)
	for i := 0; i < videoCount; i++ {
		vid := video.Video{
			CourseID: crs.ID,
			Title:    fmt.Sprintf("Video %d", i+1),
			URL:      fmt.Sprintf("https://cdn.example.com/%s.mp4", uuid.NewString()),
			Order:    i + 1,
		}
		require.NoError(t, db.Create(&vid).Error)
		videos = append(videos, vid)
	}
	return crs, videos
}

func TestEnrollProvisionsFirstVideo(t *testing.T) {
	db := newTestDB(t)
	usr := seedStudent(t, db)
	crs, videos := seedCourse(t, db, 2)

	marker, err := progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.Nil(t, marker.VideoID)

	// The first video's row must exist right after enrollment so a
	// submission for it is accepted without an interleaved progress read.
	entry, err := progress.GetEntry(db, usr.ID, videos[0].ID)
	require.NoError(t, err)
	assert.False(t, entry.Completed)
	assert.Equal(t, crs.ID, entry.CourseID)

	_, err = progress.GetEntry(db, usr.ID, videos[1].ID)
	assert.ErrorIs(t, err, progress.ErrEntryNotFound, "only the first video is provisioned")
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	usr := seedStudent(t, db)
	crs, videos := seedCourse(t, db, 1)

	first, err := progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)

	again, err := progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	var entryCount int64
	require.NoError(t, db.Model(&progress.Progress{}).
		Where("user_id = ? AND video_id = ?", usr.ID, videos[0].ID).
		Count(&entryCount).Error)
	assert.Equal(t, int64(1), entryCount)
}

func TestEnrollDoesNotDemoteApprovedEntry(t *testing.T) {
	db := newTestDB(t)
	usr := seedStudent(t, db)
	crs, videos := seedCourse(t, db, 1)

	_, err := progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)

	_, err = progress.Upsert(db, progress.UpsertInput{
		UserID:    usr.ID,
		CourseID:  crs.ID,
		VideoID:   videos[0].ID,
		Completed: true,
	})
	require.NoError(t, err)

	_, err = progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)

	entry, err := progress.GetEntry(db, usr.ID, videos[0].ID)
	require.NoError(t, err)
	assert.True(t, entry.Completed, "re-enrolling must not reset completion")
}

func TestEnrollEmptyCourse(t *testing.T) {
	db := newTestDB(t)
	usr := seedStudent(t, db)
	crs, _ := seedCourse(t, db, 0)

	marker, err := progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.Nil(t, marker.VideoID)

	entries, err := progress.EntriesForCourse(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequireEnrollment(t *testing.T) {
	db := newTestDB(t)
	usr := seedStudent(t, db)
	crs, _ := seedCourse(t, db, 1)

	err := progress.RequireEnrollment(db, usr.ID, crs.ID)
	assert.ErrorIs(t, err, progress.ErrNotEnrolled)

	_, err = progress.Enroll(db, usr.ID, crs.ID)
	require.NoError(t, err)

	assert.NoError(t, progress.RequireEnrollment(db, usr.ID, crs.ID))
}
