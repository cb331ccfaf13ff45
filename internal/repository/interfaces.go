package repository

import (
	"context"

	"github.com/vytor/blundercheck/internal/models"
)

// AnalysisRepository handles analysis history data access
type AnalysisRepository interface {
	// Insert stores run and its annotations in one transaction and returns
	// the run ID, generating one when run.ID is empty.
	Insert(ctx context.Context, run models.AnalysisRun) (string, error)
	Get(ctx context.Context, id string) (*models.AnalysisRun, error)
	ListRuns(ctx context.Context, filter models.HistoryFilter) ([]models.AnalysisRun, error)
	ListAnnotations(ctx context.Context, filter models.HistoryFilter) ([]models.AnnotationWithRun, error)
	Delete(ctx context.Context, id string) error
}
