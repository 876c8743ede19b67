package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
	"cime-gpt/internal/session"
)

// ============================================================================
// Mock Backend
// ============================================================================

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Chat(ctx context.Context, question string) (*models.ChatResponse, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatResponse), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, req models.LoginRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockBackend) Signup(ctx context.Context, req models.SignupRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockBackend) ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.SampleQuestion)
	return list, args.Error(1)
}

func (m *MockBackend) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

// ============================================================================
// Helpers
// ============================================================================

var fixedNow = time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC)

func setupController(t *testing.T) (*Controller, *MockBackend, *session.Store) {
	t.Helper()
	backend := new(MockBackend)
	store := session.NewStore(session.NewMemoryKV(), nil)
	c := NewController(backend, store, nil, "admin@cime.ac.in")
	c.now = func() time.Time { return fixedNow }
	ids := 0
	c.newID = func() string {
		ids++
		return "id-" + string(rune('0'+ids))
	}
	return c, backend, store
}

func loginAs(t *testing.T, c *Controller, backend *MockBackend, email string) {
	t.Helper()
	backend.On("Login", mock.Anything, models.LoginRequest{Email: email, Password: "password1"}).
		Return(json.RawMessage(`{}`), nil).Once()
	backend.On("ListSampleQuestions", mock.Anything).Return([]models.SampleQuestion{}, nil).Once()
	require.NoError(t, c.Login(context.Background(), email, "password1"))
}

// ============================================================================
// Submit
// ============================================================================

func TestSubmit_UnauthenticatedMakesNoCall(t *testing.T) {
	c, backend, _ := setupController(t)

	err := c.Submit(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrLoginRequired)
	snap := c.Snapshot()
	assert.True(t, snap.LoginPrompt)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, StateIdle, snap.State)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestSubmit_EmptyTextIsNoop(t *testing.T) {
	c, backend, _ := setupController(t)
	loginAs(t, c, backend, "a@b.co")

	require.NoError(t, c.Submit(context.Background(), "   "))

	assert.Empty(t, c.Snapshot().Messages)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestSubmit_Success(t *testing.T) {
	c, backend, store := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	ctx := context.Background()

	backend.On("Chat", mock.Anything, "What is the history of CIME?").
		Return(&models.ChatResponse{Answer: "...", Context: []string{"doc1"}}, nil).Once()

	require.NoError(t, c.Submit(ctx, "What is the history of CIME?"))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, models.Message{Role: models.RoleUser, Text: "What is the history of CIME?"}, snap.Messages[0])
	assert.Equal(t, models.RoleBot, snap.Messages[1].Role)
	assert.Equal(t, "...", snap.Messages[1].Text)
	assert.Equal(t, []string{"doc1"}, snap.Messages[1].Citations)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.LastError)

	require.Len(t, snap.History, 1)
	assert.Equal(t, "What is the history of CIME?", snap.History[0].Query)
	assert.Equal(t, "...", snap.History[0].Response)
	assert.Equal(t, "2026-10-16 14:30:00", snap.History[0].Timestamp)

	saved, err := store.History(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, snap.History, saved)

	activities, err := store.Activities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, models.ActionQuery, activities[1].Action)

	backend.AssertExpectations(t)
}

func TestSubmit_NewestHistoryFirst(t *testing.T) {
	c, backend, _ := setupController(t)
	loginAs(t, c, backend, "a@b.co")

	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{Answer: "ok"}, nil)

	require.NoError(t, c.Submit(context.Background(), "first"))
	require.NoError(t, c.Submit(context.Background(), "second"))

	history := c.Snapshot().History
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Query)
	assert.Equal(t, "first", history[1].Query)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestSubmit_Failure(t *testing.T) {
	c, backend, _ := setupController(t)
	loginAs(t, c, backend, "a@b.co")

	backend.On("Chat", mock.Anything, "hi").Return(nil, errors.New("connection refused")).Once()

	err := c.Submit(context.Background(), "hi")
	assert.Error(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, ApologyMessage, snap.Messages[1].Text)
	assert.Equal(t, ChatFailedMessage, snap.LastError)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.History)
}

// ============================================================================
// UI toggles
// ============================================================================

func TestSelectSampleQuestion(t *testing.T) {
	c, backend, _ := setupController(t)

	assert.ErrorIs(t, c.SelectSampleQuestion("What is the history of CIME?"), ErrLoginRequired)
	assert.True(t, c.Snapshot().LoginPrompt)
	assert.Empty(t, c.Snapshot().Input)

	loginAs(t, c, backend, "a@b.co")
	require.NoError(t, c.SelectSampleQuestion("What is the history of CIME?"))
	assert.Equal(t, "What is the history of CIME?", c.Snapshot().Input)
	backend.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestToggleCitations(t *testing.T) {
	c, _, _ := setupController(t)

	assert.Equal(t, -1, c.Snapshot().ExpandedCitation)
	c.ToggleCitations(1)
	assert.Equal(t, 1, c.Snapshot().ExpandedCitation)
	c.ToggleCitations(3)
	assert.Equal(t, 3, c.Snapshot().ExpandedCitation)
	c.ToggleCitations(3)
	assert.Equal(t, -1, c.Snapshot().ExpandedCitation)
}

func TestNewChatKeepsHistory(t *testing.T) {
	c, backend, _ := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	backend.On("Chat", mock.Anything, "q").Return(&models.ChatResponse{Answer: "a"}, nil)
	require.NoError(t, c.Submit(context.Background(), "q"))
	c.SetInput("draft")

	c.NewChat()

	snap := c.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Input)
	assert.Len(t, snap.History, 1)
}

func TestOpenHistoryEntry(t *testing.T) {
	c, backend, _ := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	backend.On("Chat", mock.Anything, "q").Return(&models.ChatResponse{Answer: "a"}, nil)
	require.NoError(t, c.Submit(context.Background(), "q"))
	c.NewChat()

	id := c.Snapshot().History[0].ID
	assert.True(t, c.OpenHistoryEntry(id))
	assert.Equal(t, []models.Message{
		{Role: models.RoleUser, Text: "q"},
		{Role: models.RoleBot, Text: "a"},
	}, c.Snapshot().Messages)

	assert.False(t, c.OpenHistoryEntry("missing"))
}

// ============================================================================
// History deletion
// ============================================================================

func TestDeleteHistory_TwoPhase(t *testing.T) {
	c, backend, store := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	ctx := context.Background()
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{Answer: "ok"}, nil)
	require.NoError(t, c.Submit(ctx, "one"))
	require.NoError(t, c.Submit(ctx, "two"))

	target := c.Snapshot().History[1].ID

	assert.ErrorIs(t, c.ConfirmDeleteHistory(ctx, target), ErrNotConfirmed)
	assert.Len(t, c.Snapshot().History, 2)

	c.RequestDeleteHistory(target)
	c.CancelDeleteHistory()
	assert.ErrorIs(t, c.ConfirmDeleteHistory(ctx, target), ErrNotConfirmed)

	c.RequestDeleteHistory(target)
	assert.ErrorIs(t, c.ConfirmDeleteHistory(ctx, "other"), ErrNotConfirmed)
	require.NoError(t, c.ConfirmDeleteHistory(ctx, target))

	history := c.Snapshot().History
	require.Len(t, history, 1)
	assert.Equal(t, "two", history[0].Query)

	saved, err := store.History(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, history, saved)
}

func TestDeleteHistory_UnknownID(t *testing.T) {
	c, backend, store := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	ctx := context.Background()
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{Answer: "ok"}, nil)
	require.NoError(t, c.Submit(ctx, "one"))
	before, err := store.History(ctx, "a@b.co")
	require.NoError(t, err)

	c.RequestDeleteHistory("bogus")
	assert.ErrorIs(t, c.ConfirmDeleteHistory(ctx, "bogus"), ErrEntryNotFound)

	snap := c.Snapshot()
	assert.Len(t, snap.History, 1)
	assert.NotEqual(t, "Chat history deleted!", snap.Notice)

	after, err := store.History(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteAllHistory_TwoPhase(t *testing.T) {
	c, backend, store := setupController(t)
	loginAs(t, c, backend, "a@b.co")
	ctx := context.Background()
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{Answer: "ok"}, nil)
	require.NoError(t, c.Submit(ctx, "one"))

	assert.ErrorIs(t, c.ConfirmDeleteAllHistory(ctx), ErrNotConfirmed)

	c.RequestDeleteAllHistory()
	c.CancelDeleteAllHistory()
	assert.ErrorIs(t, c.ConfirmDeleteAllHistory(ctx), ErrNotConfirmed)
	assert.Len(t, c.Snapshot().History, 1)

	c.RequestDeleteAllHistory()
	require.NoError(t, c.ConfirmDeleteAllHistory(ctx))
	assert.Empty(t, c.Snapshot().History)

	saved, err := store.History(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// ============================================================================
// Session flows
// ============================================================================

func TestHistoryIsolationAcrossUsers(t *testing.T) {
	c, backend, _ := setupController(t)
	ctx := context.Background()
	backend.On("Chat", mock.Anything, mock.Anything).Return(&models.ChatResponse{Answer: "ok"}, nil)

	loginAs(t, c, backend, "a@b.co")
	require.NoError(t, c.Submit(ctx, "from a"))
	original := c.Snapshot().History
	require.NoError(t, c.Logout(ctx))

	loginAs(t, c, backend, "b@b.co")
	assert.Empty(t, c.Snapshot().History)
	require.NoError(t, c.Logout(ctx))

	loginAs(t, c, backend, "a@b.co")
	assert.Equal(t, original, c.Snapshot().History)
}

func TestLogin_Validation(t *testing.T) {
	c, backend, _ := setupController(t)

	err := c.Login(context.Background(), "not-an-email", "password1")

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Invalid email format", c.Snapshot().LastError)
	backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogin_UpstreamMessageShown(t *testing.T) {
	c, backend, _ := setupController(t)
	upErr := &services.UpstreamError{Operation: "login", Kind: services.ErrorKindStatus, StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}
	backend.On("Login", mock.Anything, mock.Anything).Return(nil, upErr)

	err := c.Login(context.Background(), "a@b.co", "password1")

	assert.ErrorAs(t, err, &upErr)
	snap := c.Snapshot()
	assert.Equal(t, "Invalid email or password", snap.LastError)
	assert.False(t, snap.Session.LoggedIn)
}

func TestLogin_TransportFailure(t *testing.T) {
	c, backend, _ := setupController(t)
	backend.On("Login", mock.Anything, mock.Anything).
		Return(nil, &services.UpstreamError{Operation: "login", Kind: services.ErrorKindTransport, Err: errors.New("dial tcp")})

	assert.Error(t, c.Login(context.Background(), "a@b.co", "password1"))
	assert.Equal(t, "Failed to login. Please try again.", c.Snapshot().LastError)
}

func TestRestore(t *testing.T) {
	c, backend, store := setupController(t)
	ctx := context.Background()

	require.NoError(t, c.Restore(ctx))
	assert.True(t, c.Snapshot().LoginPrompt)
	assert.False(t, c.Snapshot().Session.LoggedIn)

	_, err := store.Login(ctx, "a@b.co")
	require.NoError(t, err)
	require.NoError(t, store.PersistHistory(ctx, "a@b.co", []models.ChatHistoryEntry{{ID: "x", Query: "q"}}))
	backend.On("ListSampleQuestions", mock.Anything).Return(nil, errors.New("down")).Once()

	require.NoError(t, c.Restore(ctx))
	snap := c.Snapshot()
	assert.True(t, snap.Session.LoggedIn)
	assert.Equal(t, "a@b.co", snap.Session.CurrentUserID)
	assert.Len(t, snap.History, 1)
	assert.Equal(t, DefaultSampleQuestions, snap.SampleQuestions)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		confirm  string
		wantErr  string
	}{
		{"missing name", " ", "a@b.co", "password1", "password1", "Name is required"},
		{"mismatch", "Asha", "a@b.co", "password1", "password2", "Passwords do not match"},
		{"bad email", "Asha", "nope", "password1", "password1", "Invalid email format"},
		{"short password", "Asha", "a@b.co", "short", "short", "Password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, backend, _ := setupController(t)
			err := c.Register(context.Background(), tt.userName, tt.email, tt.password, tt.confirm)
			assert.Error(t, err)
			assert.Equal(t, tt.wantErr, c.Snapshot().LastError)
			backend.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
		})
	}

	t.Run("success", func(t *testing.T) {
		c, backend, store := setupController(t)
		backend.On("Signup", mock.Anything, models.SignupRequest{Email: "a@b.co", Name: "Asha", Password: "password1"}).
			Return(json.RawMessage(`{"id":"1"}`), nil).Once()

		require.NoError(t, c.Register(context.Background(), "Asha", "a@b.co", "password1", "password1"))

		snap := c.Snapshot()
		assert.False(t, snap.Session.LoggedIn)
		assert.True(t, snap.LoginPrompt)

		activities, err := store.Activities(context.Background())
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, models.ActionRegister, activities[0].Action)
	})
}

func TestIsAdmin(t *testing.T) {
	c, backend, _ := setupController(t)
	assert.False(t, c.IsAdmin())

	loginAs(t, c, backend, "admin@cime.ac.in")
	assert.True(t, c.IsAdmin())
}

// ============================================================================
// Sample questions and feedback
// ============================================================================

func TestLoadSampleQuestions(t *testing.T) {
	c, backend, _ := setupController(t)

	backend.On("ListSampleQuestions", mock.Anything).
		Return([]models.SampleQuestion{{ID: "1", Question: "Where is CIME?"}}, nil).Once()
	assert.Equal(t, []string{"Where is CIME?"}, c.LoadSampleQuestions(context.Background()))

	backend.On("ListSampleQuestions", mock.Anything).Return([]models.SampleQuestion{}, nil).Once()
	assert.Equal(t, DefaultSampleQuestions, c.LoadSampleQuestions(context.Background()))
}

func TestSubmitFeedback(t *testing.T) {
	c, backend, _ := setupController(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.SubmitFeedback(ctx, 5, "great"), ErrLoginRequired)

	loginAs(t, c, backend, "a@b.co")

	var vErr *models.ValidationError
	assert.ErrorAs(t, c.SubmitFeedback(ctx, 0, ""), &vErr)
	assert.Equal(t, "Please select a rating", c.Snapshot().LastError)

	backend.On("SubmitFeedback", mock.Anything, mock.MatchedBy(func(req models.FeedbackRequest) bool {
		return req.UserID == "a@b.co" && req.Rating != nil && *req.Rating == 4 && req.Comment == NoCommentPlaceholder
	})).Return(json.RawMessage(`{}`), nil).Once()

	require.NoError(t, c.SubmitFeedback(ctx, 4, "  "))
	assert.Equal(t, "Thank you for your feedback!", c.Snapshot().Notice)
	backend.AssertExpectations(t)
}
