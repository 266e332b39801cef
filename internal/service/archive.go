package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/storage"
)

var ErrArchiveDisabled = errors.New("archive storage is not configured")

// Export is the JSON document written by exports and archives.
type Export struct {
	ExportedAt time.Time     `json:"exportedAt"`
	Count      int           `json:"count"`
	Goals      []*model.Goal `json:"goals"`
}

type ArchiveResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// ArchiveService snapshots every goal as one JSON object in object storage.
type ArchiveService struct {
	goals   *GoalService
	storage storage.Storage
	now     func() time.Time
}

// NewArchiveService accepts a nil storage; Archive then returns ErrArchiveDisabled.
func NewArchiveService(goals *GoalService, storage storage.Storage) *ArchiveService {
	return &ArchiveService{
		goals:   goals,
		storage: storage,
		now:     time.Now,
	}
}

func (s *ArchiveService) Enabled() bool {
	return s.storage != nil
}

// Export returns all goals in export form.
func (s *ArchiveService) Export(ctx context.Context) (*Export, error) {
	goals, err := s.goals.All(ctx)
	if err != nil {
		return nil, err
	}
	return &Export{
		ExportedAt: s.now().UTC(),
		Count:      len(goals),
		Goals:      goals,
	}, nil
}

func (s *ArchiveService) Archive(ctx context.Context) (*ArchiveResult, error) {
	if !s.Enabled() {
		return nil, ErrArchiveDisabled
	}

	export, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}

	key := fmt.Sprintf("archives/goals-%s.json", export.ExportedAt.Format("20060102T150405Z"))
	err = s.storage.Save(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		slog.Error("failed to write goal archive", "error", err, "key", key)
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	url, err := s.storage.URL(ctx, key)
	if err != nil {
		// The archive exists; only the link is missing.
		slog.Warn("failed to presign archive url", "error", err, "key", key)
	}

	slog.Info("goal archive written", "key", key, "count", export.Count)
	return &ArchiveResult{Key: key, URL: url, Count: export.Count}, nil
}
