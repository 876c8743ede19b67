package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cime-gpt/internal/models"
)

// ============================================================================
// Test Helpers
// ============================================================================

func setupTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *BackendClient) {
	server := httptest.NewServer(handler)
	client := NewBackendClient(server.URL)
	return server, client
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ============================================================================
// Chat Tests
// ============================================================================

func TestChat(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("Expected path /chat, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req models.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Question != "What is the history of CIME?" {
			t.Errorf("Expected question, got %q", req.Question)
		}

		writeJSON(w, http.StatusOK, models.ChatResponse{
			Answer:  "CIME was founded in 1998...",
			Context: []string{"doc1 excerpt", "doc2 excerpt"},
		})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	result, err := client.Chat(context.Background(), "What is the history of CIME?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Answer != "CIME was founded in 1998..." {
		t.Errorf("Unexpected answer %q", result.Answer)
	}
	if len(result.Context) != 2 {
		t.Errorf("Expected 2 citations, got %d", len(result.Context))
	}
}

func TestChat_StatusError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "model offline"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	_, err := client.Chat(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for 502 response")
	}

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %T", err)
	}
	if upErr.Kind != ErrorKindStatus {
		t.Errorf("Expected status kind, got %s", upErr.Kind)
	}
	if upErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", upErr.StatusCode)
	}
	if upErr.Message != "model offline" {
		t.Errorf("Expected upstream message, got %q", upErr.Message)
	}
	if !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("Expected HTTP 502 in error string, got %q", err.Error())
	}
}

func TestChat_DecodeError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	_, err := client.Chat(context.Background(), "hello")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upErr.Kind != ErrorKindDecode {
		t.Errorf("Expected decode kind, got %s", upErr.Kind)
	}
}

func TestChatRaw_KeepsUnknownFields(t *testing.T) {
	body := `{"answer":"Yes","context":[],"sources":[{"page":3}]}`
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
	defer server.Close()

	raw, err := client.ChatRaw(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Expected JSON body, got %q", raw)
	}
	if _, ok := got["sources"]; !ok {
		t.Errorf("Expected sources to survive, got %s", raw)
	}
}

func TestCreateSampleQuestionRaw_KeepsUnknownFields(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sample-questions" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"q1","question":"Fees?","created_at":"2024-05-01"}`))
	})
	defer server.Close()

	raw, err := client.CreateSampleQuestionRaw(context.Background(), "Fees?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(raw), `"created_at":"2024-05-01"`) {
		t.Errorf("Expected created_at to survive, got %s", raw)
	}

	typed, err := client.CreateSampleQuestion(context.Background(), "Fees?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if typed.ID != "q1" {
		t.Errorf("Expected id q1, got %s", typed.ID)
	}
}

func TestChat_TransportError(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Chat(context.Background(), "hello")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upErr.Kind != ErrorKindTransport {
		t.Errorf("Expected transport kind, got %s", upErr.Kind)
	}
}

func TestChat_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewBackendClientWithTimeout(server.URL, 20*time.Millisecond)
	if _, err := client.Chat(context.Background(), "hello"); err == nil {
		t.Fatal("Expected timeout error")
	}
}

// ============================================================================
// Account Tests
// ============================================================================

func TestLogin_ForwardsPayload(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("Expected path /login, got %s", r.URL.Path)
		}
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "a@b.co" || req.Password != "secret123" {
			t.Errorf("Unexpected credentials %+v", req)
		}
		writeJSON(w, http.StatusOK, map[string]string{"user_id": "42"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	raw, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !strings.Contains(string(raw), `"user_id":"42"`) {
		t.Errorf("Expected raw payload, got %s", raw)
	}
}

func TestLogin_UpstreamRejection(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "x"})

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusUnauthorized || upErr.Message != "Invalid credentials" {
		t.Errorf("Unexpected error %+v", upErr)
	}
}

func TestSignup(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req models.SignupRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "Asha" {
			t.Errorf("Expected name Asha, got %q", req.Name)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": "7"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	_, err := client.Signup(context.Background(), models.SignupRequest{Email: "a@b.co", Name: "Asha", Password: "longenough"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
}

// ============================================================================
// Document Tests
// ============================================================================

func TestListDocuments(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" || r.Method != http.MethodGet {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, []models.DocumentRef{{ID: "a"}, {ID: "b"}})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	docs, err := client.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" {
		t.Errorf("Unexpected documents %+v", docs)
	}
}

func TestDeleteDocument_UsesBareIDPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		if r.URL.Path != "/prospectus.pdf" {
			t.Errorf("Expected path /prospectus.pdf, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	if err := client.DeleteDocument(context.Background(), "prospectus.pdf"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
}

func TestDeleteDocument_NotFound(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	err := client.DeleteDocument(context.Background(), "nope")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", upErr.StatusCode)
	}
	if upErr.Message != "missing" {
		t.Errorf("Expected plain text message, got %q", upErr.Message)
	}
}

func TestUploadPDF(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload-pdf" {
			t.Errorf("Expected path /upload-pdf, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart: %v", err)
		}
		if got := r.FormValue("document_name"); got != "handbook.pdf" {
			t.Errorf("Expected document_name handbook.pdf, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Missing file part: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "handbook.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("Unexpected file %s / %q", header.Filename, data)
		}
		writeJSON(w, http.StatusOK, models.UploadResponse{ID: "doc-9"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	result, err := client.UploadPDF(context.Background(), "handbook.pdf", "handbook.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadPDF failed: %v", err)
	}
	if result.ID != "doc-9" {
		t.Errorf("Expected id doc-9, got %s", result.ID)
	}
}

func TestRebuildIndex(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		called = r.URL.Path == "/rebuild-index" && r.Method == http.MethodPost
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	if err := client.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("RebuildIndex failed: %v", err)
	}
	if !called {
		t.Error("Expected POST /rebuild-index")
	}
}

// ============================================================================
// Sample Question Tests
// ============================================================================

func TestSampleQuestions(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/sample-questions":
			writeJSON(w, http.StatusOK, []models.SampleQuestion{{ID: "1", Question: "Where is CIME?"}})
		case r.Method == http.MethodPost && r.URL.Path == "/sample-questions":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, models.SampleQuestion{ID: "2", Question: body["question"]})
		case r.Method == http.MethodDelete && r.URL.Path == "/sample-questions/2":
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	ctx := context.Background()

	list, err := client.ListSampleQuestions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSampleQuestions: %v %+v", err, list)
	}

	created, err := client.CreateSampleQuestion(ctx, "What courses are offered?")
	if err != nil {
		t.Fatalf("CreateSampleQuestion failed: %v", err)
	}
	if created.Question != "What courses are offered?" {
		t.Errorf("Unexpected question %q", created.Question)
	}

	if _, err := client.DeleteSampleQuestion(ctx, "2"); err != nil {
		t.Fatalf("DeleteSampleQuestion failed: %v", err)
	}
}

// ============================================================================
// User and Feedback Tests
// ============================================================================

func TestListUsers(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.RegisteredUser{{ID: "1", Email: "a@b.co", Name: "A"}})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Email != "a@b.co" {
		t.Errorf("Unexpected users %+v", users)
	}
}

func TestFeedback(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path != "/user-feedback/u1" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}
			writeJSON(w, http.StatusOK, []models.UserFeedback{{ID: "f1", UserID: "u1", Rating: 5}})
		case http.MethodPost:
			if r.URL.Path != "/user-feedback" || r.URL.Query().Get("user_id") != "u1" {
				t.Errorf("Unexpected target %s", r.URL.String())
			}
			var req models.FeedbackRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Rating == nil || *req.Rating != 4 {
				t.Errorf("Expected rating 4, got %v", req.Rating)
			}
			writeJSON(w, http.StatusOK, map[string]string{"id": "f2"})
		}
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	ctx := context.Background()

	fb, err := client.GetUserFeedback(ctx, "u1")
	if err != nil || len(fb) != 1 || fb[0].Rating != 5 {
		t.Fatalf("GetUserFeedback: %v %+v", err, fb)
	}

	rating := 4
	if _, err := client.SubmitFeedback(ctx, models.FeedbackRequest{UserID: "u1", Rating: &rating, Comment: "good"}); err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}
}

// ============================================================================
// Health Check Tests
// ============================================================================

func TestHealth(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("Expected path /, got %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}

	server, client := setupTestServer(t, handler)
	defer server.Close()

	healthy, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !healthy {
		t.Error("Expected healthy backend")
	}
}

func TestNewBackendClient_TrimsTrailingSlash(t *testing.T) {
	client := NewBackendClient("http://localhost:8000/")
	if client.BaseURL() != "http://localhost:8000" {
		t.Errorf("Expected trimmed base URL, got %s", client.BaseURL())
	}
}
