package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/blundercheck/internal/analysis"
)

// MockEvaluator is a mock implementation of analysis.Evaluator
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, fen string, depth int) (analysis.Score, error) {
	args := m.Called(ctx, fen, depth)
	return args.Get(0).(analysis.Score), args.Error(1)
}
