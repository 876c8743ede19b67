package models

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted at signup
const MinPasswordLength = 8

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Validate checks login credentials
func (r LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return NewValidationError("", "Missing required fields")
	}
	if !IsValidEmail(r.Email) {
		return NewValidationError("", "Invalid email format")
	}
	return nil
}

// Validate checks a signup request
func (r SignupRequest) Validate() error {
	if r.Email == "" || strings.TrimSpace(r.Name) == "" || r.Password == "" {
		return NewValidationError("", "Missing required fields")
	}
	if !IsValidEmail(r.Email) {
		return NewValidationError("", "Invalid email format")
	}
	if len(r.Password) < MinPasswordLength {
		return NewValidationError("", "Password must be at least 8 characters")
	}
	return nil
}

// Validate checks a feedback submission
func (r FeedbackRequest) Validate() error {
	if r.UserID == "" || r.Rating == nil || r.Comment == "" {
		return NewValidationError("", "user_id, rating, and comment are required")
	}
	if *r.Rating < 1 || *r.Rating > 5 {
		return NewValidationError("rating", "rating must be between 1 and 5")
	}
	return nil
}
