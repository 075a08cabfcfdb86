package progress

import (
	"github.com/google/uuid"

	"github.com/courseflow/courseflow-server/internal/features/video"
)

// VideoState is the derived view of one video for one user.
type VideoState struct {
	Video     video.Video `json:"video"`
	Unlocked  bool        `json:"unlocked"`
	Started   bool        `json:"started"`
	Completed bool        `json:"completed"`
	Score     *float64    `json:"score,omitempty"`
}

// CourseState is the derived progress view for a whole course.
type CourseState struct {
	Videos          []VideoState `json:"videos"`
	CompletedCount  int          `json:"completedCount"`
	TotalCount      int          `json:"totalCount"`
	CourseCompleted bool         `json:"courseCompleted"`
}

// DeriveStates computes unlock state for each video from the ledger rows.
// Unlock is never stored: the first video is always unlocked, and any later
// video is unlocked iff its own entry exists or the previous video in course
// order has been approved. Videos must be sorted by position.
func DeriveStates(videos []video.Video, entries []Progress) CourseState {
	byVideo := make(map[uuid.UUID]Progress, len(entries))
	for _, entry := range entries {
		if entry.VideoID != nil {
			byVideo[*entry.VideoID] = entry
		}
	}

	states := make([]VideoState, 0, len(videos))
	completedCount := 0

	for i, vid := range videos {
		entry, started := byVideo[vid.ID]

		unlocked := i == 0 || started
		if !unlocked {
			if prev, ok := byVideo[videos[i-1].ID]; ok && prev.Completed {
				unlocked = true
			}
		}

		state := VideoState{
			Video:    vid,
			Unlocked: unlocked,
			Started:  started,
		}
		if started {
			state.Completed = entry.Completed
			state.Score = entry.Score
		}
		if state.Completed {
			completedCount++
		}

		states = append(states, state)
	}

	// A course without videos is vacuously complete; the counts stay 0 of 0.
	return CourseState{
		Videos:          states,
		CompletedCount:  completedCount,
		TotalCount:      len(videos),
		CourseCompleted: completedCount == len(videos),
	}
}
