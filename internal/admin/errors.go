package admin

import "errors"

var (
	// ErrFileTooLarge is reported per file for uploads above models.MaxUploadSize
	ErrFileTooLarge = errors.New("file exceeds 5MB limit")

	// ErrSampleQuestionLimit is returned when adding beyond models.MaxSampleQuestions
	ErrSampleQuestionLimit = errors.New("maximum 4 sample questions allowed")

	// ErrNotConfirmed is returned when a confirm step has no matching request
	ErrNotConfirmed = errors.New("no matching delete request")
)
