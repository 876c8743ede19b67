package models

// RegisteredUser is a row of the backend user list
type RegisteredUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// UserFeedback is a single rating left by a user
type UserFeedback struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// FeedbackRequest is the body submitted when rating the assistant
type FeedbackRequest struct {
	UserID  string `json:"user_id"`
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// UserVisit is a synthesized per-user visit counter
type UserVisit struct {
	Email      string `json:"email"`
	VisitCount int    `json:"visitCount"`
	LastVisit  string `json:"lastVisit"`
}

// ActivityAction enumerates the audited user actions
type ActivityAction string

const (
	ActionLogin    ActivityAction = "login"
	ActionQuery    ActivityAction = "query"
	ActionRegister ActivityAction = "register"
	ActionUpload   ActivityAction = "upload"
	ActionDelete   ActivityAction = "delete"
	ActionRebuild  ActivityAction = "rebuild"
	ActionSignup   ActivityAction = "signup"
)

// UserActivity is an append-only audit row
type UserActivity struct {
	Email     string         `json:"email"`
	Action    ActivityAction `json:"action"`
	Timestamp string         `json:"timestamp"`
}

// LoginRequest carries user credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest carries a new account
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
