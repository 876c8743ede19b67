package admin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cime-gpt/internal/models"
	"cime-gpt/internal/optimistic"
	"cime-gpt/internal/retry"
)

// FetchFailedMessage is recorded when every listing attempt failed
const FetchFailedMessage = "Failed to load document list after multiple attempts. Please try again later."

// DocumentLister lists the documents indexed by the backend
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]models.DocumentRef, error)
}

// DocumentFetcher refreshes a local document list with bounded retries
type DocumentFetcher struct {
	lister DocumentLister
	docs   *optimistic.List[models.DocumentRecord]
	policy retry.Policy
	logger *zap.Logger

	mu        sync.Mutex
	lastError string
}

// NewDocumentFetcher creates a fetcher writing into docs. Retries below one
// are treated as a single attempt.
func NewDocumentFetcher(lister DocumentLister, docs *optimistic.List[models.DocumentRecord], retries int, delay time.Duration, logger *zap.Logger) *DocumentFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &DocumentFetcher{
		lister: lister,
		docs:   docs,
		logger: logger,
	}
	f.policy = retry.Policy{
		Attempts: retries,
		Delay:    delay,
		OnRetry: func(attempt int, err error) {
			f.logger.Warn("Document list attempt failed",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err))
		},
	}
	return f
}

// Fetch replaces the local list with the backend's. When every attempt fails
// the list is emptied and FetchFailedMessage is recorded. A cancelled context
// leaves the list as it was.
func (f *DocumentFetcher) Fetch(ctx context.Context) error {
	refs, err := retry.Value(ctx, f.policy, func(ctx context.Context, attempt int) ([]models.DocumentRef, error) {
		return f.lister.ListDocuments(ctx)
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		f.logger.Error("Failed to load document list", zap.Error(err))
		f.docs.Replace(nil)
		f.lastError = FetchFailedMessage
		return err
	}

	records := make([]models.DocumentRecord, 0, len(refs))
	for _, ref := range refs {
		records = append(records, models.DocumentRecord{ID: ref.ID, Name: ref.ID})
	}
	f.docs.Replace(records)
	f.lastError = ""
	return nil
}

// LastError returns the terminal error of the last fetch, empty after a success
func (f *DocumentFetcher) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}
