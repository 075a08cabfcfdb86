package quiz

import "errors"

var (
	ErrTestNotFound       = errors.New("test not found")
	ErrTestExists         = errors.New("a test already exists for this video")
	ErrQuestionRequired   = errors.New("test question is required")
	ErrOptionsRequired    = errors.New("a test needs at least two options")
	ErrAnswerNotInOptions = errors.New("the answer must be one of the options")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoAnswers          = errors.New("a submission needs at least one answer")
	ErrInvalidGrade       = errors.New("correct count cannot exceed total")
)
