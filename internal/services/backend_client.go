package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cime-gpt/internal/models"
)

// Backend defines the operations offered by the remote question-answering service
type Backend interface {
	Chat(ctx context.Context, question string) (*models.ChatResponse, error)
	ChatRaw(ctx context.Context, question string) (json.RawMessage, error)
	Login(ctx context.Context, req models.LoginRequest) (json.RawMessage, error)
	Signup(ctx context.Context, req models.SignupRequest) (json.RawMessage, error)
	ListDocuments(ctx context.Context) ([]models.DocumentRef, error)
	DeleteDocument(ctx context.Context, id string) error
	UploadPDF(ctx context.Context, filename, documentName string, content io.Reader) (*models.UploadResponse, error)
	RebuildIndex(ctx context.Context) error
	ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error)
	CreateSampleQuestion(ctx context.Context, question string) (*models.SampleQuestion, error)
	CreateSampleQuestionRaw(ctx context.Context, question string) (json.RawMessage, error)
	DeleteSampleQuestion(ctx context.Context, id string) (json.RawMessage, error)
	ListUsers(ctx context.Context) ([]models.RegisteredUser, error)
	GetUserFeedback(ctx context.Context, userID string) ([]models.UserFeedback, error)
	SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (json.RawMessage, error)
	Health(ctx context.Context) (bool, error)
}

// BackendClient forwards each operation to a single fixed upstream base URL.
// It never retries or caches; callers decide how to react to failures.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a new backend client with default settings
func NewBackendClient(baseURL string) *BackendClient {
	return NewBackendClientWithTimeout(baseURL, 60*time.Second)
}

// NewBackendClientWithTimeout creates a client with a custom request timeout
func NewBackendClientWithTimeout(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// BaseURL returns the upstream address this client talks to
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// ============================================================================
// Errors
// ============================================================================

// ErrorKind classifies an upstream failure
type ErrorKind string

const (
	ErrorKindTransport ErrorKind = "transport"
	ErrorKindStatus    ErrorKind = "status"
	ErrorKindDecode    ErrorKind = "decode"
)

// UpstreamError is returned for every failed backend call
type UpstreamError struct {
	Operation  string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case ErrorKindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Operation, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s error: %v", e.Operation, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s error", e.Operation, e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// makeRequest creates and executes an HTTP request with an optional JSON body
func (c *BackendClient) makeRequest(ctx context.Context, op, method, endpoint string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &UpstreamError{Operation: op, Kind: ErrorKindTransport, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, &UpstreamError{Operation: op, Kind: ErrorKindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.send(op, req)
}

func (c *BackendClient) send(op string, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Operation: op, Kind: ErrorKindTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{
			Operation:  op,
			Kind:       ErrorKindStatus,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.StatusCode, bodyBytes),
		}
	}
	return resp, nil
}

// upstreamMessage extracts a human readable message from an error body
func upstreamMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case payload.Detail != "":
			return payload.Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// parseResponse reads and parses a JSON response into result
func parseResponse(op string, resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &UpstreamError{Operation: op, Kind: ErrorKindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// decodeRaw turns a forwarded body into a typed result
func decodeRaw(op string, raw json.RawMessage, result interface{}) error {
	if err := json.Unmarshal(raw, result); err != nil {
		return &UpstreamError{Operation: op, Kind: ErrorKindDecode, StatusCode: http.StatusOK, Err: err}
	}
	return nil
}

func (c *BackendClient) doJSON(ctx context.Context, op, method, endpoint string, body, result interface{}) error {
	resp, err := c.makeRequest(ctx, op, method, endpoint, body)
	if err != nil {
		return err
	}
	return parseResponse(op, resp, result)
}

// ============================================================================
// Chat and Account Methods
// ============================================================================

// Chat asks the backend a question
func (c *BackendClient) Chat(ctx context.Context, question string) (*models.ChatResponse, error) {
	raw, err := c.ChatRaw(ctx, question)
	if err != nil {
		return nil, err
	}
	var result models.ChatResponse
	if err := decodeRaw("chat", raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatRaw asks the backend a question and returns its answer body untouched
func (c *BackendClient) ChatRaw(ctx context.Context, question string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, "chat", http.MethodPost, "/chat", models.ChatRequest{Question: question}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Login verifies credentials and returns the backend payload untouched
func (c *BackendClient) Login(ctx context.Context, req models.LoginRequest) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, "login", http.MethodPost, "/login", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Signup creates an account
func (c *BackendClient) Signup(ctx context.Context, req models.SignupRequest) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, "signup", http.MethodPost, "/signup", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Document Methods
// ============================================================================

// ListDocuments returns the ids of every indexed document
func (c *BackendClient) ListDocuments(ctx context.Context) ([]models.DocumentRef, error) {
	var result []models.DocumentRef
	if err := c.doJSON(ctx, "list documents", http.MethodGet, "/documents", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteDocument removes a document. The backend exposes deletion on the bare id path.
func (c *BackendClient) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete document", http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

// UploadPDF sends a file as multipart form data with fields file and document_name
func (c *BackendClient) UploadPDF(ctx context.Context, filename, documentName string, content io.Reader) (*models.UploadResponse, error) {
	const op = "upload pdf"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.WriteField("document_name", documentName); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-pdf", body)
	if err != nil {
		return nil, &UpstreamError{Operation: op, Kind: ErrorKindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(op, req)
	if err != nil {
		return nil, err
	}

	var result models.UploadResponse
	if err := parseResponse(op, resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RebuildIndex asks the backend to re-process uploaded documents
func (c *BackendClient) RebuildIndex(ctx context.Context) error {
	return c.doJSON(ctx, "rebuild index", http.MethodPost, "/rebuild-index", nil, nil)
}

// ============================================================================
// Sample Question Methods
// ============================================================================

// ListSampleQuestions returns the curated prompts
func (c *BackendClient) ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error) {
	var result []models.SampleQuestion
	if err := c.doJSON(ctx, "list sample questions", http.MethodGet, "/sample-questions", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSampleQuestion adds a prompt
func (c *BackendClient) CreateSampleQuestion(ctx context.Context, question string) (*models.SampleQuestion, error) {
	raw, err := c.CreateSampleQuestionRaw(ctx, question)
	if err != nil {
		return nil, err
	}
	var result models.SampleQuestion
	if err := decodeRaw("create sample question", raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSampleQuestionRaw adds a prompt and returns the backend record untouched
func (c *BackendClient) CreateSampleQuestionRaw(ctx context.Context, question string) (json.RawMessage, error) {
	req := map[string]string{"question": question}

	var result json.RawMessage
	if err := c.doJSON(ctx, "create sample question", http.MethodPost, "/sample-questions", req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSampleQuestion removes a prompt
func (c *BackendClient) DeleteSampleQuestion(ctx context.Context, id string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.doJSON(ctx, "delete sample question", http.MethodDelete, "/sample-questions/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// User and Feedback Methods
// ============================================================================

// ListUsers returns every registered user
func (c *BackendClient) ListUsers(ctx context.Context) ([]models.RegisteredUser, error) {
	var result []models.RegisteredUser
	if err := c.doJSON(ctx, "list users", http.MethodGet, "/users", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserFeedback returns the feedback left by one user
func (c *BackendClient) GetUserFeedback(ctx context.Context, userID string) ([]models.UserFeedback, error) {
	var result []models.UserFeedback
	if err := c.doJSON(ctx, "get user feedback", http.MethodGet, "/user-feedback/"+url.PathEscape(userID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitFeedback stores a rating. The backend also expects the user id as a query parameter.
func (c *BackendClient) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (json.RawMessage, error) {
	endpoint := "/user-feedback?user_id=" + url.QueryEscape(req.UserID)

	var result json.RawMessage
	if err := c.doJSON(ctx, "submit feedback", http.MethodPost, endpoint, req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Health Check Methods
// ============================================================================

// Health reports whether the backend answers at its root path
func (c *BackendClient) Health(ctx context.Context) (bool, error) {
	resp, err := c.makeRequest(ctx, "health check", http.MethodGet, "/", nil)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return true, nil
}
