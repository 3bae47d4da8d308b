package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Log appends an activity entry, stamping the current time if missing.
func (s *Service) Log(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("nil activity entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record appends an entry best-effort. Mutations must not fail because the
// audit log is unavailable, so errors are logged and swallowed.
func (s *Service) Record(ctx context.Context, projectID string, typ Type, summary string) {
	err := s.Log(ctx, &Entry{ProjectID: projectID, Type: typ, Summary: summary})
	if err != nil {
		s.logger.Warn("activity log write failed", "project", projectID, "type", typ, "error", err)
	}
}

// Recent lists activity entries, newest first.
func (s *Service) Recent(ctx context.Context, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, opts)
}
