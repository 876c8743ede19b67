package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cime-gpt/internal/models"
	"cime-gpt/internal/optimistic"
	"cime-gpt/internal/session"
)

// Backend is the subset of the gateway client the dashboard needs
type Backend interface {
	DocumentLister
	UploadPDF(ctx context.Context, filename, documentName string, content io.Reader) (*models.UploadResponse, error)
	DeleteDocument(ctx context.Context, id string) error
	RebuildIndex(ctx context.Context) error
	ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error)
	CreateSampleQuestion(ctx context.Context, question string) (*models.SampleQuestion, error)
	DeleteSampleQuestion(ctx context.Context, id string) (json.RawMessage, error)
	ListUsers(ctx context.Context) ([]models.RegisteredUser, error)
	GetUserFeedback(ctx context.Context, userID string) ([]models.UserFeedback, error)
}

// UploadStatus is the client side progress label of an upload batch
type UploadStatus string

const (
	UploadIdle      UploadStatus = ""
	UploadUploading UploadStatus = "uploading"
	UploadAnalyzing UploadStatus = "analyzing"
)

// AnalyzingAfter is how long a batch reports uploading before switching to analyzing
const AnalyzingAfter = 5 * time.Second

// UploadFile is one file of an upload batch
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// UploadResult reports the outcome for one file
type UploadResult struct {
	Name       string
	DocumentID string
	Err        error
}

// Options configures a Manager
type Options struct {
	AdminEmail      string
	DocFetchRetries int
	DocFetchDelay   time.Duration
}

// Snapshot is a copy of the dashboard state for rendering
type Snapshot struct {
	Documents               []models.DocumentRecord
	SampleQuestions         []models.SampleQuestion
	Users                   []models.RegisteredUser
	Visits                  []models.UserVisit
	Feedback                []models.UserFeedback
	UploadStatus            UploadStatus
	FetchError              string
	LastError               string
	Notice                  string
	PendingDeleteID         string
	PendingQuestionDeleteID string
}

// Manager drives the admin dashboard
type Manager struct {
	backend    Backend
	store      *session.Store
	logger     *zap.Logger
	adminEmail string

	docs      *optimistic.List[models.DocumentRecord]
	questions *optimistic.List[models.SampleQuestion]
	fetcher   *DocumentFetcher

	now       func() time.Time
	visitRand func() int

	// uploadMu keeps uploads sequential so placeholder bookkeeping stays correct
	uploadMu sync.Mutex
	mu       sync.Mutex

	uploading               bool
	uploadStarted           time.Time
	users                   []models.RegisteredUser
	visits                  []models.UserVisit
	feedback                []models.UserFeedback
	lastError               string
	notice                  string
	pendingDeleteID         string
	pendingQuestionDeleteID string
}

// NewManager creates a dashboard manager
func NewManager(backend Backend, store *session.Store, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DocFetchRetries == 0 {
		opts.DocFetchRetries = 3
	}
	if opts.DocFetchDelay == 0 {
		opts.DocFetchDelay = time.Second
	}

	docs := optimistic.New(func(d models.DocumentRecord) string { return d.ID })
	return &Manager{
		backend:    backend,
		store:      store,
		logger:     logger,
		adminEmail: opts.AdminEmail,
		docs:       docs,
		questions:  optimistic.New(func(q models.SampleQuestion) string { return q.ID }),
		fetcher:    NewDocumentFetcher(backend, docs, opts.DocFetchRetries, opts.DocFetchDelay, logger),
		now:        func() time.Time { return time.Now().UTC() },
		visitRand:  func() int { return rand.Intn(10) + 1 },
	}
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Documents:               m.docs.Items(),
		SampleQuestions:         m.questions.Items(),
		Users:                   append([]models.RegisteredUser(nil), m.users...),
		Visits:                  append([]models.UserVisit(nil), m.visits...),
		Feedback:                append([]models.UserFeedback(nil), m.feedback...),
		UploadStatus:            m.uploadStatusLocked(),
		FetchError:              m.fetcher.LastError(),
		LastError:               m.lastError,
		Notice:                  m.notice,
		PendingDeleteID:         m.pendingDeleteID,
		PendingQuestionDeleteID: m.pendingQuestionDeleteID,
	}
}

// ============================================================================
// Documents
// ============================================================================

// RefreshDocuments reloads the document list through the retry fetcher
func (m *Manager) RefreshDocuments(ctx context.Context) error {
	return m.fetcher.Fetch(ctx)
}

// Status returns the progress label of the running upload batch
func (m *Manager) Status() UploadStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadStatusLocked()
}

func (m *Manager) uploadStatusLocked() UploadStatus {
	if !m.uploading {
		return UploadIdle
	}
	if m.now().Sub(m.uploadStarted) < AnalyzingAfter {
		return UploadUploading
	}
	return UploadAnalyzing
}

// Upload sends files one at a time. A failing or oversized file is reported in
// its result and does not stop the rest of the batch.
func (m *Manager) Upload(ctx context.Context, files []UploadFile) []UploadResult {
	m.uploadMu.Lock()
	defer m.uploadMu.Unlock()

	m.mu.Lock()
	m.uploading = true
	m.uploadStarted = m.now()
	m.lastError = ""
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.uploading = false
		m.mu.Unlock()
	}()

	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		results = append(results, m.uploadOne(ctx, file))
	}
	return results
}

func (m *Manager) uploadOne(ctx context.Context, file UploadFile) UploadResult {
	result := UploadResult{Name: file.Name}

	if file.Size > models.MaxUploadSize {
		result.Err = fmt.Errorf("%w: %q", ErrFileTooLarge, file.Name)
		m.fail(fmt.Sprintf("File %q exceeds 5MB limit. Please upload a smaller file.", file.Name))
		return result
	}

	now := m.now()
	stamp := now.Format(models.ActivityTimeLayout)
	tempID := m.docs.Add(models.DocumentRecord{
		ID:         models.PendingDocumentID(file.Name, now.UnixMilli()),
		Name:       file.Name,
		Size:       file.Size,
		UploadDate: stamp,
		Pending:    true,
	})

	uploaded, err := m.backend.UploadPDF(ctx, file.Name, file.Name, file.Content)
	if err == nil {
		err = m.backend.RebuildIndex(ctx)
	}
	if err != nil {
		m.docs.Discard(tempID)
		m.logger.Error("Upload failed", zap.String("file", file.Name), zap.Error(err))
		m.fail(fmt.Sprintf("Failed to upload %q. Please try again.", file.Name))
		result.Err = err
		return result
	}

	result.DocumentID = file.Name
	if uploaded != nil && uploaded.ID != "" {
		result.DocumentID = uploaded.ID
	}

	if err := m.fetcher.Fetch(ctx); err != nil {
		m.logger.Warn("Document list refresh after upload failed", zap.Error(err))
	}
	m.docs.Discard(tempID)

	m.recordActivities(ctx,
		models.UserActivity{Email: m.adminEmail, Action: models.ActionUpload, Timestamp: stamp},
		models.UserActivity{Email: m.adminEmail, Action: models.ActionRebuild, Timestamp: stamp},
	)
	m.succeed(fmt.Sprintf("PDF %q uploaded successfully.", file.Name))

	m.logger.Info("Document uploaded",
		zap.String("file", file.Name),
		zap.String("document_id", result.DocumentID),
		zap.Int64("size", file.Size))
	return result
}

// RequestDelete asks for confirmation before deleting document id
func (m *Manager) RequestDelete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDeleteID = id
}

// CancelDelete drops a pending document delete
func (m *Manager) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingDeleteID = ""
}

// ConfirmDelete removes the requested document from the list right away and
// then deletes it upstream. On failure the list is re-fetched.
func (m *Manager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	id := m.pendingDeleteID
	m.pendingDeleteID = ""
	m.mu.Unlock()

	if id == "" {
		return ErrNotConfirmed
	}

	name := id
	if doc, ok := m.docs.Get(id); ok && doc.Name != "" {
		name = doc.Name
	}
	m.docs.Discard(id)

	if err := m.backend.DeleteDocument(ctx, id); err != nil {
		m.logger.Error("Delete failed", zap.String("document_id", id), zap.Error(err))
		if ferr := m.fetcher.Fetch(ctx); ferr != nil {
			m.logger.Warn("Document list refresh after failed delete failed", zap.Error(ferr))
		}
		m.fail(fmt.Sprintf("Failed to delete %q. Please try again.", name))
		return err
	}

	m.recordActivities(ctx, models.UserActivity{
		Email:     m.adminEmail,
		Action:    models.ActionDelete,
		Timestamp: m.now().Format(models.ActivityTimeLayout),
	})
	m.succeed(fmt.Sprintf("Document %q deleted successfully.", name))
	return nil
}

// RebuildIndex asks the backend to re-process every uploaded document
func (m *Manager) RebuildIndex(ctx context.Context) error {
	if err := m.backend.RebuildIndex(ctx); err != nil {
		m.logger.Error("Index rebuild failed", zap.Error(err))
		m.fail("Failed to rebuild index. Please try again.")
		return err
	}
	m.recordActivities(ctx, models.UserActivity{
		Email:     m.adminEmail,
		Action:    models.ActionRebuild,
		Timestamp: m.now().Format(models.ActivityTimeLayout),
	})
	m.succeed("Index rebuilt successfully")
	return nil
}

// ============================================================================
// Sample questions
// ============================================================================

// LoadSampleQuestions replaces the local list with the backend's
func (m *Manager) LoadSampleQuestions(ctx context.Context) error {
	list, err := m.backend.ListSampleQuestions(ctx)
	if err != nil {
		m.logger.Warn("Failed to fetch sample questions", zap.Error(err))
		m.questions.Replace(nil)
		m.fail("Failed to fetch sample questions")
		return err
	}
	m.questions.Replace(list)
	return nil
}

// AddSampleQuestion creates a question. At most models.MaxSampleQuestions may
// exist; the limit is checked before any backend call.
func (m *Manager) AddSampleQuestion(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		m.fail("Question cannot be empty")
		return models.NewValidationError("question", "Question cannot be empty")
	}
	if m.questions.Len() >= models.MaxSampleQuestions {
		m.fail("Maximum 4 questions allowed")
		return ErrSampleQuestionLimit
	}

	tempID := m.questions.Add(models.SampleQuestion{
		ID:        fmt.Sprintf("temp-question-%d", m.now().UnixMilli()),
		Question:  text,
		CreatedAt: m.now().Format(models.HistoryTimeLayout),
	})

	created, err := m.backend.CreateSampleQuestion(ctx, text)
	if err != nil {
		m.questions.Discard(tempID)
		m.logger.Error("Failed to add sample question", zap.Error(err))
		m.fail("Failed to add sample question")
		return err
	}

	m.questions.Confirm(tempID, *created)
	m.succeed("Question added successfully!")
	return nil
}

// RequestDeleteSampleQuestion asks for confirmation before deleting question id
func (m *Manager) RequestDeleteSampleQuestion(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingQuestionDeleteID = id
}

// CancelDeleteSampleQuestion drops a pending question delete
func (m *Manager) CancelDeleteSampleQuestion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingQuestionDeleteID = ""
}

// ConfirmDeleteSampleQuestion deletes the requested question. On failure the
// list is re-fetched.
func (m *Manager) ConfirmDeleteSampleQuestion(ctx context.Context) error {
	m.mu.Lock()
	id := m.pendingQuestionDeleteID
	m.pendingQuestionDeleteID = ""
	m.mu.Unlock()

	if id == "" {
		return ErrNotConfirmed
	}

	if _, err := m.backend.DeleteSampleQuestion(ctx, id); err != nil {
		m.logger.Error("Failed to delete sample question", zap.String("id", id), zap.Error(err))
		m.fail("Failed to delete sample question")
		if lerr := m.LoadSampleQuestions(ctx); lerr != nil {
			m.logger.Warn("Sample question refresh failed", zap.Error(lerr))
		}
		return err
	}

	removed, _ := m.questions.Discard(id)
	m.succeed(fmt.Sprintf("Question %q deleted successfully!", removed.Question))
	return nil
}

// ============================================================================
// Users and analytics
// ============================================================================

// LoadUsers fetches the registered users, synthesizes their visit counters and
// signup/login activities, then loads sample questions and every user's feedback.
func (m *Manager) LoadUsers(ctx context.Context) error {
	users, err := m.backend.ListUsers(ctx)
	if err != nil {
		m.logger.Error("Failed to fetch users", zap.Error(err))
		m.mu.Lock()
		m.users = nil
		m.mu.Unlock()
		m.fail("Failed to fetch users")
		return err
	}

	stamp := m.now().Format(models.ActivityTimeLayout)
	visits := make([]models.UserVisit, 0, len(users))
	activities := make([]models.UserActivity, 0, 2*len(users))
	for _, u := range users {
		visits = append(visits, models.UserVisit{Email: u.Email, VisitCount: m.visitRand(), LastVisit: stamp})
		activities = append(activities,
			models.UserActivity{Email: u.Email, Action: models.ActionSignup, Timestamp: u.CreatedAt},
			models.UserActivity{Email: u.Email, Action: models.ActionLogin, Timestamp: stamp},
		)
	}

	if err := m.store.SaveVisits(ctx, visits); err != nil {
		m.logger.Warn("Failed to save visits", zap.Error(err))
	}
	if err := m.store.SaveActivities(ctx, activities); err != nil {
		m.logger.Warn("Failed to save activities", zap.Error(err))
	}

	m.mu.Lock()
	m.users = users
	m.visits = visits
	m.mu.Unlock()

	if err := m.LoadSampleQuestions(ctx); err != nil {
		m.logger.Warn("Sample questions unavailable", zap.Error(err))
	}
	m.loadFeedback(ctx, users)
	return nil
}

// loadFeedback fetches every user's feedback concurrently. Users whose feedback
// cannot be fetched are skipped.
func (m *Manager) loadFeedback(ctx context.Context, users []models.RegisteredUser) {
	perUser := make([][]models.UserFeedback, len(users))

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			fb, err := m.backend.GetUserFeedback(ctx, userID)
			if err != nil {
				m.logger.Warn("Failed to fetch feedback", zap.String("user_id", userID), zap.Error(err))
				return
			}
			perUser[i] = fb
		}(i, u.ID)
	}
	wg.Wait()

	all := []models.UserFeedback{}
	for _, fb := range perUser {
		all = append(all, fb...)
	}

	m.mu.Lock()
	m.feedback = all
	m.mu.Unlock()
}

// Activities returns the persisted audit trail
func (m *Manager) Activities(ctx context.Context) ([]models.UserActivity, error) {
	return m.store.Activities(ctx)
}

// Stats summarizes the dashboard counters
type Stats struct {
	TotalVisitors  int
	TotalDocuments int
	TotalQueries   int
}

// Stats counts registered users, listed documents and recorded queries
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	activities, err := m.store.Activities(ctx)
	if err != nil {
		return Stats{}, err
	}

	queries := 0
	for _, a := range activities {
		if a.Action == models.ActionQuery {
			queries++
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		TotalVisitors:  len(m.users),
		TotalDocuments: m.docs.Len(),
		TotalQueries:   queries,
	}, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (m *Manager) fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = msg
}

func (m *Manager) succeed(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notice = msg
}

func (m *Manager) recordActivities(ctx context.Context, rows ...models.UserActivity) {
	if err := m.store.AppendActivities(ctx, rows...); err != nil {
		m.logger.Warn("Failed to record activity", zap.Error(err))
	}
}
