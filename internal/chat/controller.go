package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
	"cime-gpt/internal/session"
)

// Backend is the subset of the gateway client the chat screen needs
type Backend interface {
	Chat(ctx context.Context, question string) (*models.ChatResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (json.RawMessage, error)
	Signup(ctx context.Context, req models.SignupRequest) (json.RawMessage, error)
	ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error)
	SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (json.RawMessage, error)
}

// State is the request state of the conversation
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
)

// DefaultSampleQuestions are shown when no curated questions are available
var DefaultSampleQuestions = []string{
	"What is the history of CIME?",
	"Who are the key faculty members at CIME?",
	"What are the campus facilities like?",
	"How do I apply for scholarships at CIME?",
}

// Snapshot is a copy of the controller state for rendering
type Snapshot struct {
	Session          models.UserSession
	State            State
	Messages         []models.Message
	Input            string
	History          []models.ChatHistoryEntry
	SampleQuestions  []string
	ExpandedCitation int // -1 when none
	LoginPrompt      bool
	LastError        string
	Notice           string
	PendingDeleteID  string
	PendingDeleteAll bool
}

// Controller drives a single chat session
type Controller struct {
	backend    Backend
	store      *session.Store
	logger     *zap.Logger
	adminEmail string

	now   func() time.Time
	newID func() string

	// submitMu serializes submissions; mu guards the fields below
	submitMu sync.Mutex
	mu       sync.Mutex

	session          models.UserSession
	state            State
	messages         []models.Message
	input            string
	history          []models.ChatHistoryEntry
	sampleQuestions  []string
	expandedCitation int
	loginPrompt      bool
	lastError        string
	notice           string
	pendingDeleteID  string
	pendingDeleteAll bool
}

// NewController creates a logged out controller
func NewController(backend Backend, store *session.Store, logger *zap.Logger, adminEmail string) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		backend:          backend,
		store:            store,
		logger:           logger,
		adminEmail:       adminEmail,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
		state:            StateIdle,
		expandedCitation: -1,
		history:          []models.ChatHistoryEntry{},
	}
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Session:          c.session,
		State:            c.state,
		Messages:         append([]models.Message(nil), c.messages...),
		Input:            c.input,
		History:          append([]models.ChatHistoryEntry(nil), c.history...),
		SampleQuestions:  append([]string(nil), c.sampleQuestions...),
		ExpandedCitation: c.expandedCitation,
		LoginPrompt:      c.loginPrompt,
		LastError:        c.lastError,
		Notice:           c.notice,
		PendingDeleteID:  c.pendingDeleteID,
		PendingDeleteAll: c.pendingDeleteAll,
	}
}

// IsAdmin reports whether the logged in user is the administrator
func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.LoggedIn && strings.EqualFold(c.session.CurrentUserID, c.adminEmail)
}

// ============================================================================
// Conversation
// ============================================================================

// Submit sends text to the backend. Unauthenticated callers get ErrLoginRequired
// and a login prompt without any network call.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	c.mu.Lock()
	if !c.session.LoggedIn {
		c.loginPrompt = true
		c.lastError = "Please log in to chat"
		c.mu.Unlock()
		return ErrLoginRequired
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil
	}
	c.messages = append(c.messages, models.Message{Role: models.RoleUser, Text: text})
	c.input = ""
	c.state = StateAwaitingResponse
	c.lastError = ""
	user := c.session.CurrentUserID
	c.mu.Unlock()

	resp, err := c.backend.Chat(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle

	if err != nil {
		c.logger.Error("Chat request failed", zap.String("user", user), zap.Error(err))
		c.lastError = ChatFailedMessage
		c.messages = append(c.messages, models.Message{Role: models.RoleBot, Text: ApologyMessage})
		return fmt.Errorf("chat: %w", err)
	}

	c.messages = append(c.messages, models.Message{
		Role:      models.RoleBot,
		Text:      resp.Answer,
		Citations: resp.Context,
	})

	stamp := c.now().Format(models.HistoryTimeLayout)
	entry := models.ChatHistoryEntry{
		ID:        c.newID(),
		Query:     text,
		Response:  resp.Answer,
		Timestamp: stamp,
	}
	c.history = append([]models.ChatHistoryEntry{entry}, c.history...)
	c.persistLocked(ctx)
	c.recordActivity(ctx, user, models.ActionQuery, stamp)

	return nil
}

// SelectSampleQuestion places a suggested question into the input
func (c *Controller) SelectSampleQuestion(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.LoggedIn {
		c.loginPrompt = true
		c.lastError = "Please log in to use sample questions"
		return ErrLoginRequired
	}
	c.input = text
	return nil
}

// SetInput replaces the input text
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

// EditMessage copies a previous message back into the input for editing
func (c *Controller) EditMessage(text string) {
	c.SetInput(text)
}

// ToggleCitations expands the citations of message i, collapsing any other.
// Toggling the expanded message collapses it.
func (c *Controller) ToggleCitations(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expandedCitation == i {
		c.expandedCitation = -1
		return
	}
	c.expandedCitation = i
}

// NewChat clears the visible conversation. Saved history is untouched.
func (c *Controller) NewChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.input = ""
	c.lastError = ""
	c.expandedCitation = -1
	c.notice = "Started a new chat!"
}

// OpenHistoryEntry replaces the conversation with a saved round trip
func (c *Controller) OpenHistoryEntry(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.history {
		if e.ID == id {
			c.messages = []models.Message{
				{Role: models.RoleUser, Text: e.Query},
				{Role: models.RoleBot, Text: e.Response},
			}
			c.input = ""
			c.expandedCitation = -1
			return true
		}
	}
	return false
}

// ============================================================================
// History deletion
// ============================================================================

// RequestDeleteHistory asks for confirmation before deleting entry id
func (c *Controller) RequestDeleteHistory(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDeleteID = id
}

// CancelDeleteHistory drops a pending single delete
func (c *Controller) CancelDeleteHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDeleteID = ""
}

// ConfirmDeleteHistory deletes entry id if it was requested first
func (c *Controller) ConfirmDeleteHistory(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingDeleteID == "" || c.pendingDeleteID != id {
		return ErrNotConfirmed
	}
	c.pendingDeleteID = ""

	kept := c.history[:0:0]
	for _, e := range c.history {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(c.history) {
		return ErrEntryNotFound
	}
	c.history = kept
	c.persistLocked(ctx)
	c.notice = "Chat history deleted!"
	return nil
}

// RequestDeleteAllHistory asks for confirmation before clearing all history
func (c *Controller) RequestDeleteAllHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDeleteAll = true
}

// CancelDeleteAllHistory drops a pending delete-all
func (c *Controller) CancelDeleteAllHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDeleteAll = false
}

// ConfirmDeleteAllHistory clears every entry of the current user
func (c *Controller) ConfirmDeleteAllHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pendingDeleteAll {
		return ErrNotConfirmed
	}
	c.pendingDeleteAll = false
	c.history = []models.ChatHistoryEntry{}

	if c.session.LoggedIn {
		if err := c.store.ClearHistory(ctx, c.session.CurrentUserID); err != nil {
			c.logger.Warn("Failed to clear chat history", zap.Error(err))
		}
	}
	c.notice = "All chat history deleted!"
	return nil
}

// ============================================================================
// Session
// ============================================================================

// Restore loads a previous session from the store
func (c *Controller) Restore(ctx context.Context) error {
	sess, err := c.store.Current(ctx)
	if err != nil {
		return err
	}
	if !sess.LoggedIn {
		c.mu.Lock()
		c.loginPrompt = true
		c.mu.Unlock()
		return nil
	}

	history, err := c.store.History(ctx, sess.CurrentUserID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session = sess
	c.history = history
	c.loginPrompt = false
	c.mu.Unlock()

	c.LoadSampleQuestions(ctx)
	return nil
}

// Login verifies credentials with the backend and switches to that user's history
func (c *Controller) Login(ctx context.Context, email, password string) error {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := req.Validate(); err != nil {
		c.setError(err.Error())
		return err
	}

	if _, err := c.backend.Login(ctx, req); err != nil {
		c.logger.Warn("Login rejected", zap.String("email", req.Email), zap.Error(err))
		msg := upstreamText(err, "Invalid credentials", "Failed to login. Please try again.")
		c.setError(msg)
		return fmt.Errorf("login: %w", err)
	}

	history, err := c.store.Login(ctx, req.Email)
	if err != nil {
		c.setError("Failed to login. Please try again.")
		return err
	}

	c.mu.Lock()
	c.session = models.UserSession{LoggedIn: true, CurrentUserID: req.Email}
	c.history = history
	c.messages = nil
	c.loginPrompt = false
	c.lastError = ""
	c.notice = "Login successful!"
	c.mu.Unlock()

	c.recordActivity(ctx, req.Email, models.ActionLogin, c.now().Format(models.HistoryTimeLayout))
	c.LoadSampleQuestions(ctx)
	return nil
}

// Register creates an account. The user still has to log in afterwards.
func (c *Controller) Register(ctx context.Context, name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" {
		c.setError("Name is required")
		return models.NewValidationError("name", "Name is required")
	}
	if password != confirm {
		c.setError("Passwords do not match")
		return models.NewValidationError("password", "Passwords do not match")
	}

	req := models.SignupRequest{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name), Password: password}
	if err := req.Validate(); err != nil {
		c.setError(err.Error())
		return err
	}

	if _, err := c.backend.Signup(ctx, req); err != nil {
		c.logger.Warn("Signup rejected", zap.String("email", req.Email), zap.Error(err))
		c.setError(upstreamText(err, "Failed to create account", "Failed to register. Please try again."))
		return fmt.Errorf("signup: %w", err)
	}

	c.mu.Lock()
	c.lastError = ""
	c.loginPrompt = true
	c.notice = "Registration successful! Please login."
	c.mu.Unlock()

	c.recordActivity(ctx, req.Email, models.ActionRegister, c.now().Format(models.HistoryTimeLayout))
	return nil
}

// Logout ends the session. Saved histories are kept for the next login.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.store.Logout(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = models.UserSession{}
	c.history = []models.ChatHistoryEntry{}
	c.messages = nil
	c.sampleQuestions = nil
	c.input = ""
	c.loginPrompt = true
	c.notice = "Signed out successfully!"
	return nil
}

// ============================================================================
// Sample questions and feedback
// ============================================================================

// LoadSampleQuestions refreshes the suggestions, falling back to the built-in
// questions when the backend has none or cannot be reached.
func (c *Controller) LoadSampleQuestions(ctx context.Context) []string {
	questions := make([]string, 0, models.MaxSampleQuestions)

	list, err := c.backend.ListSampleQuestions(ctx)
	if err != nil {
		c.logger.Warn("Failed to load sample questions", zap.Error(err))
	}
	for _, q := range list {
		if strings.TrimSpace(q.Question) != "" {
			questions = append(questions, q.Question)
		}
	}
	if len(questions) == 0 {
		questions = append(questions, DefaultSampleQuestions...)
	}

	c.mu.Lock()
	c.sampleQuestions = questions
	c.mu.Unlock()
	return questions
}

// SubmitFeedback rates the assistant on behalf of the current user
func (c *Controller) SubmitFeedback(ctx context.Context, rating int, comment string) error {
	c.mu.Lock()
	if !c.session.LoggedIn {
		c.loginPrompt = true
		c.lastError = "Please log in to submit feedback"
		c.mu.Unlock()
		return ErrLoginRequired
	}
	user := c.session.CurrentUserID
	c.mu.Unlock()

	if rating < 1 || rating > 5 {
		c.setError("Please select a rating")
		return models.NewValidationError("rating", "Please select a rating")
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = NoCommentPlaceholder
	}

	req := models.FeedbackRequest{UserID: user, Rating: &rating, Comment: comment}
	if _, err := c.backend.SubmitFeedback(ctx, req); err != nil {
		c.logger.Warn("Feedback rejected", zap.String("user", user), zap.Error(err))
		c.setError(upstreamText(err, "Failed to submit feedback", "Failed to submit feedback. Please try again."))
		return fmt.Errorf("feedback: %w", err)
	}

	c.mu.Lock()
	c.lastError = ""
	c.notice = "Thank you for your feedback!"
	c.mu.Unlock()
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = msg
}

// persistLocked writes the history of the current user. Callers hold mu.
func (c *Controller) persistLocked(ctx context.Context) {
	if !c.session.LoggedIn {
		return
	}
	if err := c.store.PersistHistory(ctx, c.session.CurrentUserID, c.history); err != nil {
		c.logger.Warn("Failed to persist chat history", zap.Error(err))
	}
}

func (c *Controller) recordActivity(ctx context.Context, email string, action models.ActivityAction, stamp string) {
	if email == "" {
		email = c.adminEmail
	}
	row := models.UserActivity{Email: email, Action: action, Timestamp: stamp}
	if err := c.store.AppendActivities(ctx, row); err != nil {
		c.logger.Warn("Failed to record activity", zap.String("action", string(action)), zap.Error(err))
	}
}

// upstreamText picks the message shown for a failed backend call: the backend's
// own message when it sent one, rejected when it answered without one, and
// fallback when it could not be reached.
func upstreamText(err error, rejected, fallback string) string {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) && upErr.Kind == services.ErrorKindStatus {
		if upErr.Message != "" && upErr.Message != http.StatusText(upErr.StatusCode) {
			return upErr.Message
		}
		return rejected
	}
	return fallback
}
