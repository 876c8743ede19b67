package admin

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"cime-gpt/internal/models"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListDocuments(ctx context.Context) ([]models.DocumentRef, error) {
	args := m.Called(ctx)
	refs, _ := args.Get(0).([]models.DocumentRef)
	return refs, args.Error(1)
}

func (m *MockBackend) UploadPDF(ctx context.Context, filename, documentName string, content io.Reader) (*models.UploadResponse, error) {
	args := m.Called(ctx, filename, documentName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UploadResponse), args.Error(1)
}

func (m *MockBackend) DeleteDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) RebuildIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) ListSampleQuestions(ctx context.Context) ([]models.SampleQuestion, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.SampleQuestion)
	return list, args.Error(1)
}

func (m *MockBackend) CreateSampleQuestion(ctx context.Context, question string) (*models.SampleQuestion, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SampleQuestion), args.Error(1)
}

func (m *MockBackend) DeleteSampleQuestion(ctx context.Context, id string) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockBackend) ListUsers(ctx context.Context) ([]models.RegisteredUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.RegisteredUser)
	return users, args.Error(1)
}

func (m *MockBackend) GetUserFeedback(ctx context.Context, userID string) ([]models.UserFeedback, error) {
	args := m.Called(ctx, userID)
	fb, _ := args.Get(0).([]models.UserFeedback)
	return fb, args.Error(1)
}
