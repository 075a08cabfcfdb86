package progress

import "errors"

var (
	ErrEntryNotFound = errors.New("progress entry not found")
	ErrNotEnrolled   = errors.New("user is not enrolled in this course")
	ErrVideoLocked   = errors.New("video is not unlocked yet")
)
