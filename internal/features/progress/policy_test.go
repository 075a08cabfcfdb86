package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseflow/courseflow-server/internal/features/video"
	"github.com/courseflow/courseflow-server/pkg/types"
)

func makeVideos(n int) []video.Video {
	videos := make([]video.Video, n)
	for i := range videos {
		videos[i] = video.Video{
			BaseModel: types.BaseModel{ID: uuid.New()},
			Order:     i + 1,
		}
	}
	return videos
}

func entryFor(v video.Video, completed bool) Progress {
	id := v.ID
	return Progress{
		BaseModel: types.BaseModel{ID: uuid.New()},
		VideoID:   &id,
		Completed: completed,
	}
}

func TestDeriveStatesEmptyCourse(t *testing.T) {
	state := DeriveStates(nil, nil)

	assert.Empty(t, state.Videos)
	assert.Equal(t, 0, state.TotalCount)
	assert.Equal(t, 0, state.CompletedCount, "0 of 0, no division involved")
	assert.True(t, state.CourseCompleted, "a course with no videos is vacuously complete")
}

func TestDeriveStatesPartialCourseNotCompleted(t *testing.T) {
	videos := makeVideos(2)
	entries := []Progress{entryFor(videos[0], true)}

	state := DeriveStates(videos, entries)

	assert.False(t, state.CourseCompleted)
}

func TestDeriveStatesFirstVideoAlwaysUnlocked(t *testing.T) {
	videos := makeVideos(3)

	state := DeriveStates(videos, nil)

	require.Len(t, state.Videos, 3)
	assert.True(t, state.Videos[0].Unlocked)
	assert.False(t, state.Videos[0].Started)
	assert.False(t, state.Videos[1].Unlocked)
	assert.False(t, state.Videos[2].Unlocked)
}

func TestDeriveStatesOwnEntryUnlocks(t *testing.T) {
	videos := makeVideos(3)
	entries := []Progress{entryFor(videos[1], false)}

	state := DeriveStates(videos, entries)

	assert.True(t, state.Videos[1].Unlocked, "an existing entry means the video was provisioned")
	assert.True(t, state.Videos[1].Started)
	assert.False(t, state.Videos[1].Completed)
	assert.False(t, state.Videos[2].Unlocked)
}

func TestDeriveStatesPreviousCompletionUnlocksNext(t *testing.T) {
	videos := makeVideos(3)
	entries := []Progress{entryFor(videos[0], true)}

	state := DeriveStates(videos, entries)

	assert.True(t, state.Videos[0].Completed)
	assert.True(t, state.Videos[1].Unlocked, "completing video 0 unlocks video 1")
	assert.False(t, state.Videos[1].Started, "unlock does not imply an entry exists")
	assert.False(t, state.Videos[2].Unlocked)
}

func TestDeriveStatesIncompletePreviousKeepsNextLocked(t *testing.T) {
	videos := makeVideos(3)
	entries := []Progress{entryFor(videos[0], false)}

	state := DeriveStates(videos, entries)

	assert.True(t, state.Videos[0].Unlocked)
	assert.False(t, state.Videos[1].Unlocked)
}

func TestDeriveStatesCompletionDoesNotSkipAhead(t *testing.T) {
	videos := makeVideos(4)
	entries := []Progress{
		entryFor(videos[0], true),
		entryFor(videos[1], true),
	}

	state := DeriveStates(videos, entries)

	assert.True(t, state.Videos[2].Unlocked)
	assert.False(t, state.Videos[3].Unlocked, "only the immediate successor unlocks")
	assert.Equal(t, 2, state.CompletedCount)
}

func TestDeriveStatesEnrollmentMarkerIgnored(t *testing.T) {
	videos := makeVideos(2)
	// An enrollment marker has no video ID and must not affect unlock state.
	entries := []Progress{{BaseModel: types.BaseModel{ID: uuid.New()}, VideoID: nil, Completed: false}}

	state := DeriveStates(videos, entries)

	assert.True(t, state.Videos[0].Unlocked)
	assert.False(t, state.Videos[0].Started)
	assert.False(t, state.Videos[1].Unlocked)
}

func TestDeriveStatesCourseCompleted(t *testing.T) {
	videos := makeVideos(2)
	entries := []Progress{
		entryFor(videos[0], true),
		entryFor(videos[1], true),
	}

	state := DeriveStates(videos, entries)

	assert.Equal(t, 2, state.CompletedCount)
	assert.Equal(t, 2, state.TotalCount)
	assert.True(t, state.CourseCompleted)
}

func TestDeriveStatesScoreOnlyWhenStarted(t *testing.T) {
	videos := makeVideos(2)
	score := 100.0
	entry := entryFor(videos[0], true)
	entry.Score = &score

	state := DeriveStates(videos, []Progress{entry})

	require.NotNil(t, state.Videos[0].Score)
	assert.Equal(t, score, *state.Videos[0].Score)
	assert.Nil(t, state.Videos[1].Score)
}
