package video

import "errors"

var (
	ErrVideoNotFound  = errors.New("video not found")
	ErrTitleRequired  = errors.New("video title is required")
	ErrTitleLength    = errors.New("video title must be 3-100 characters")
	ErrURLRequired    = errors.New("video url is required")
	ErrOrderInvalid   = errors.New("video order must be non-negative")
	ErrOrderTaken     = errors.New("video order already exists for this course")
	ErrDurationRange  = errors.New("video duration must be non-negative")
	ErrNoNextVideo    = errors.New("no next video in course")
	ErrCourseMismatch = errors.New("video does not belong to this course")
)
