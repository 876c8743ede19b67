package session

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"cime-gpt/internal/models"
)

// Storage keys
const (
	KeyLoggedIn      = "isLoggedIn"
	KeyCurrentUser   = "currentUser"
	KeyUserVisits    = "userVisits"
	KeyActivities    = "userActivities"
	historyKeyPrefix = "chatHistory_"
)

// HistoryKey returns the storage key holding a user's chat history
func HistoryKey(userID string) string {
	return historyKeyPrefix + userID
}

// Store persists the logged-in flag, the current user and per-user history
type Store struct {
	kv     KV
	logger *zap.Logger
}

// NewStore creates a store over kv
func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Login marks userID as the current user and returns their saved history
func (s *Store) Login(ctx context.Context, userID string) ([]models.ChatHistoryEntry, error) {
	if err := s.kv.Set(ctx, KeyLoggedIn, "true"); err != nil {
		return nil, fmt.Errorf("store login flag: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCurrentUser, userID); err != nil {
		return nil, fmt.Errorf("store current user: %w", err)
	}
	return s.History(ctx, userID)
}

// Logout clears the session but keeps every user's history
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Remove(ctx, KeyLoggedIn); err != nil {
		return err
	}
	return s.kv.Remove(ctx, KeyCurrentUser)
}

// Current restores the session from storage
func (s *Store) Current(ctx context.Context) (models.UserSession, error) {
	flag, _, err := s.kv.Get(ctx, KeyLoggedIn)
	if err != nil {
		return models.UserSession{}, err
	}
	user, ok, err := s.kv.Get(ctx, KeyCurrentUser)
	if err != nil {
		return models.UserSession{}, err
	}
	if flag != "true" || !ok || user == "" {
		return models.UserSession{}, nil
	}
	return models.UserSession{LoggedIn: true, CurrentUserID: user}, nil
}

// History loads the saved history of userID. Unreadable data is treated as empty.
func (s *Store) History(ctx context.Context, userID string) ([]models.ChatHistoryEntry, error) {
	return loadJSON(ctx, s, HistoryKey(userID), []models.ChatHistoryEntry{})
}

// PersistHistory overwrites the saved history of userID
func (s *Store) PersistHistory(ctx context.Context, userID string, history []models.ChatHistoryEntry) error {
	if history == nil {
		history = []models.ChatHistoryEntry{}
	}
	return s.saveJSON(ctx, HistoryKey(userID), history)
}

// ClearHistory removes the saved history of userID
func (s *Store) ClearHistory(ctx context.Context, userID string) error {
	return s.kv.Remove(ctx, HistoryKey(userID))
}

// Activities returns the audit trail
func (s *Store) Activities(ctx context.Context) ([]models.UserActivity, error) {
	return loadJSON(ctx, s, KeyActivities, []models.UserActivity{})
}

// AppendActivities adds rows to the end of the audit trail
func (s *Store) AppendActivities(ctx context.Context, rows ...models.UserActivity) error {
	activities, err := s.Activities(ctx)
	if err != nil {
		return err
	}
	return s.SaveActivities(ctx, append(activities, rows...))
}

// SaveActivities replaces the audit trail
func (s *Store) SaveActivities(ctx context.Context, activities []models.UserActivity) error {
	if activities == nil {
		activities = []models.UserActivity{}
	}
	return s.saveJSON(ctx, KeyActivities, activities)
}

// Visits returns the synthesized visit counters
func (s *Store) Visits(ctx context.Context) ([]models.UserVisit, error) {
	return loadJSON(ctx, s, KeyUserVisits, []models.UserVisit{})
}

// SaveVisits replaces the visit counters
func (s *Store) SaveVisits(ctx context.Context, visits []models.UserVisit) error {
	return s.saveJSON(ctx, KeyUserVisits, visits)
}

// loadJSON decodes the slice stored under key, returning empty when the key is
// missing, null or unreadable.
func loadJSON[T any](ctx context.Context, s *Store, key string, empty []T) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return empty, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logger.Warn("Discarding unreadable session value", zap.String("key", key), zap.Error(err))
		return empty, nil
	}
	if out == nil {
		return empty, nil
	}
	return out, nil
}

func (s *Store) saveJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
