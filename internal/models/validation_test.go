package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"admin@cime.ac.in", true},
		{"a@b.c", true},
		{"no-at-sign.com", false},
		{"two@@signs.com", false},
		{"spaces in@mail.com", false},
		{"missing@tld", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestSignupRequest_Validate(t *testing.T) {
	valid := SignupRequest{Email: "jo@cime.ac.in", Name: "Jo", Password: "longenough"}
	assert.NoError(t, valid.Validate())

	short := valid
	short.Password = "short"
	err := short.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")

	noName := valid
	noName.Name = "   "
	assert.EqualError(t, noName.Validate(), "Missing required fields")

	badEmail := valid
	badEmail.Email = "jo"
	assert.EqualError(t, badEmail.Validate(), "Invalid email format")
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "jo@cime.ac.in", Password: "x"}.Validate())
	assert.EqualError(t, LoginRequest{Email: "jo@cime.ac.in"}.Validate(), "Missing required fields")
	assert.EqualError(t, LoginRequest{Email: "jo", Password: "x"}.Validate(), "Invalid email format")
}

func TestFeedbackRequest_Validate(t *testing.T) {
	rating := func(n int) *int { return &n }

	assert.NoError(t, FeedbackRequest{UserID: "u1", Rating: rating(5), Comment: "great"}.Validate())
	assert.Error(t, FeedbackRequest{UserID: "u1", Comment: "no rating"}.Validate())
	assert.Error(t, FeedbackRequest{UserID: "u1", Rating: rating(6), Comment: "too high"}.Validate())
	assert.Error(t, FeedbackRequest{UserID: "u1", Rating: rating(0), Comment: "too low"}.Validate())
	assert.Error(t, FeedbackRequest{Rating: rating(3), Comment: "no user"}.Validate())
}

func TestPendingDocumentID(t *testing.T) {
	assert.Equal(t, "temp-report.pdf-1700000000000", PendingDocumentID("report.pdf", 1700000000000))
}
