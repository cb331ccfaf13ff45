package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/blundercheck/internal/models"
)

// MockAnalysisRepository is a mock implementation of repository.AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Insert(ctx context.Context, run models.AnalysisRun) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisRepository) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisRun), args.Error(1)
}

func (m *MockAnalysisRepository) ListRuns(ctx context.Context, filter models.HistoryFilter) ([]models.AnalysisRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnalysisRun), args.Error(1)
}

func (m *MockAnalysisRepository) ListAnnotations(ctx context.Context, filter models.HistoryFilter) ([]models.AnnotationWithRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnnotationWithRun), args.Error(1)
}

func (m *MockAnalysisRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
