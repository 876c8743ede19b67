package models

import "time"

// HistoryTimeLayout is the layout used for chat history and activity timestamps
const HistoryTimeLayout = "2006-01-02 15:04:05"

// ActivityTimeLayout is the minute-precision layout used by admin activities
const ActivityTimeLayout = "2006-01-02 15:04"

// Role identifies who produced a chat message
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single entry in the visible conversation
type Message struct {
	Role      Role     `json:"type"`
	Text      string   `json:"content"`
	Citations []string `json:"context,omitempty"`
}

// ChatHistoryEntry is one persisted question/answer round trip
type ChatHistoryEntry struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// Time parses the entry timestamp. Unparseable timestamps yield the zero time.
func (e ChatHistoryEntry) Time() time.Time {
	t, err := time.Parse(HistoryTimeLayout, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ChatRequest is the body of a chat question
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the answer returned by the backend
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Context []string `json:"context"`
}

// UserSession is the logged-in state of the current client
type UserSession struct {
	LoggedIn      bool   `json:"logged_in"`
	CurrentUserID string `json:"current_user"`
}
