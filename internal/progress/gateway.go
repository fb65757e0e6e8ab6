package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

const keyPrefix = "quiz-progress:"

// StorageKey derives the per-document key a session is stored under.
func StorageKey(quizID models.ID) string {
	return keyPrefix + quizID.String()
}

// Gateway encodes session records and keeps them in a progress repository.
type Gateway struct {
	repo   repositories.ProgressRepository
	logger *slog.Logger
}

func NewGateway(repo repositories.ProgressRepository, logger *slog.Logger) *Gateway {
	return &Gateway{
		repo:   repo,
		logger: logger.With("component", "progress_gateway"),
	}
}

// Restore returns the stored record for a quiz. Missing, unreadable and malformed records all
// report false; only the repository failure is logged.
func (g *Gateway) Restore(ctx context.Context, quizID models.ID) (models.ProgressRecord, bool) {
	key := StorageKey(quizID)
	data, err := g.repo.Get(ctx, key)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			g.logger.WarnContext(ctx, "Failed to read progress record", "key", key, "error", err)
		}
		return models.ProgressRecord{}, false
	}

	record, ok := Decode(data)
	if !ok {
		g.logger.WarnContext(ctx, "Discarding malformed progress record", "key", key, "size", len(data))
		return models.ProgressRecord{}, false
	}
	return record, true
}

func (g *Gateway) Save(ctx context.Context, quizID models.ID, record models.ProgressRecord) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}
	if err := g.repo.Save(ctx, StorageKey(quizID), data); err != nil {
		return fmt.Errorf("failed to save progress record: %w", err)
	}
	return nil
}

func (g *Gateway) Clear(ctx context.Context, quizID models.ID) error {
	if err := g.repo.Delete(ctx, StorageKey(quizID)); err != nil {
		return fmt.Errorf("failed to clear progress record: %w", err)
	}
	return nil
}
