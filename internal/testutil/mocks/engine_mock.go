package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/blundercheck/internal/analysis"
)

// MockEngine is a mock implementation of services.Engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) NewGame(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEngine) Evaluate(ctx context.Context, fen string, depth int) (analysis.Score, error) {
	args := m.Called(ctx, fen, depth)
	return args.Get(0).(analysis.Score), args.Error(1)
}
