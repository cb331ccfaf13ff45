package services_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/blundercheck/internal/analysis"
	apperrors "github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
	"github.com/vytor/blundercheck/internal/models"
	"github.com/vytor/blundercheck/internal/pgn"
	"github.com/vytor/blundercheck/internal/report"
	"github.com/vytor/blundercheck/internal/services"
	"github.com/vytor/blundercheck/internal/testutil/mocks"
)

const blunderGame = `[Event "Casual"]
[White "Alice"]
[Black "Bob"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 *
`

type logisticModel struct{}

func (logisticModel) Name() string { return "test" }

func (logisticModel) WDL(cp, _ int) analysis.WDL {
	k := math.Log(85.0/15.0) / 250
	w := int(math.Round(1000 / (1 + math.Exp(-k*float64(cp)))))
	return analysis.WDL{Wins: w, Losses: 1000 - w}
}

type fixture struct {
	engine *mocks.MockEngine
	repo   *mocks.MockAnalysisRepository
	out    *bytes.Buffer
	csv    string
	plot   string
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	return &fixture{
		engine: new(mocks.MockEngine),
		repo:   new(mocks.MockAnalysisRepository),
		out:    &bytes.Buffer{},
		csv:    filepath.Join(dir, "plot.csv"),
		plot:   filepath.Join(dir, "plot.yaml"),
	}
}

func (f *fixture) service(colors services.ColorResolver, opts ...services.ServiceOption) services.AnalysisService {
	return services.NewAnalysisService(f.engine, colors, report.NewReporter(f.out), services.AnalysisConfig{
		Depth:      10,
		Model:      logisticModel{},
		Classifier: analysis.DefaultClassifier(),
		PlotCSV:    f.csv,
		PlotYAML:   f.plot,
	}, opts...)
}

func (f *fixture) expectBlunderGame() {
	f.engine.On("NewGame", mock.Anything).Return(nil).Once()
	for _, cp := range []int{0, 0, 250, -250} {
		f.engine.On("Evaluate", mock.Anything, mock.Anything, 10).Return(analysis.Centipawns(cp), nil).Once()
	}
}

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.Discard())
}

func mustParse(t *testing.T, text string) *chess.Game {
	t.Helper()
	game, err := pgn.ParseGame(text)
	require.NoError(t, err)
	return game
}

func TestAnalyzeGame_ReportsExportsAndRecords(t *testing.T) {
	f := newFixture(t)
	f.expectBlunderGame()
	f.repo.On("Insert", mock.Anything, mock.MatchedBy(func(run models.AnalysisRun) bool {
		return run.White == "Alice" &&
			run.Color == "white" &&
			run.Model == "test" &&
			run.Plies == 4 &&
			run.Blunders == 1 &&
			len(run.Annotations) == 1 &&
			run.Annotations[0].SAN == "Nf3" &&
			run.Annotations[0].Kind == "blunder" &&
			strings.HasPrefix(run.PasteURL, "https://lichess.org/paste?pgn=1.%20e4")
	})).Return("run-1", nil).Once()

	svc := f.service(pgn.NewColorResolver("white", "", nil, nil), services.WithRepository(f.repo))
	got, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.NoError(t, err)
	f.engine.AssertExpectations(t)
	f.repo.AssertExpectations(t)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "Bob", got.Headers["Black"])
	require.Len(t, got.Result.Annotations, 1)

	assert.Regexp(t, `^2\.Nf3:blunder: https://lichess\.org/analysis/\S+\?color=white\n$`, f.out.String())

	csvData, err := os.ReadFile(f.csv)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(csvData), "\n"), "header plus one row per ply")

	plotData, err := os.ReadFile(f.plot)
	require.NoError(t, err)
	assert.Contains(t, string(plotData), "title: Alice vs Bob")
	assert.Contains(t, string(plotData), "label: 2.Nf3")
}

func TestAnalyzeGame_ExportFailureKeepsReport(t *testing.T) {
	f := newFixture(t)
	f.expectBlunderGame()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	f.csv = filepath.Join(blocker, "plot.csv")

	svc := f.service(pgn.NewColorResolver("white", "", nil, nil), services.WithRepository(f.repo))
	_, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))

	assert.Regexp(t, `^2\.Nf3:blunder: https://lichess\.org/analysis/\S+\?color=white\n$`, f.out.String())
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAnalyzeGame_HistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.expectBlunderGame()
	f.repo.On("Insert", mock.Anything, mock.Anything).Return("", errors.New("disk full")).Once()

	svc := f.service(pgn.NewColorResolver("w", "", nil, nil), services.WithRepository(f.repo))
	got, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.NoError(t, err)
	assert.Empty(t, got.RunID)
	assert.NotEmpty(t, f.out.String())
}

func TestAnalyzeGame_UnresolvedColorStopsBeforeEngine(t *testing.T) {
	f := newFixture(t)

	svc := f.service(pgn.NewColorResolver("", "nobody", strings.NewReader("x\n"), nil))
	_, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
	f.engine.AssertNotCalled(t, "NewGame", mock.Anything)
	f.engine.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_EngineResetFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.On("NewGame", mock.Anything).Return(analysis.ErrEngineClosed).Once()

	svc := f.service(pgn.NewColorResolver("white", "", nil, nil))
	_, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEngine))
	assert.ErrorIs(t, err, analysis.ErrEngineClosed)
}

func TestAnalyzeGame_EvaluationFailureSkipsOutputs(t *testing.T) {
	f := newFixture(t)
	f.engine.On("NewGame", mock.Anything).Return(nil).Once()
	f.engine.On("Evaluate", mock.Anything, mock.Anything, 10).Return(analysis.Centipawns(0), nil).Once()
	f.engine.On("Evaluate", mock.Anything, mock.Anything, 10).Return(analysis.Score{}, errors.New("crashed")).Once()

	svc := f.service(pgn.NewColorResolver("white", "", nil, nil), services.WithRepository(f.repo))
	_, err := svc.AnalyzeGame(testContext(), mustParse(t, blunderGame))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEngine))

	assert.Empty(t, f.out.String())
	assert.NoFileExists(t, f.csv)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAnalyzeAll_StreamsUntilExhausted(t *testing.T) {
	f := newFixture(t)
	f.engine.On("NewGame", mock.Anything).Return(nil).Twice()
	f.engine.On("Evaluate", mock.Anything, mock.Anything, 10).Return(analysis.Centipawns(0), nil)

	stream := blunderGame + "\n" + strings.Replace(blunderGame, "2. Nf3 Nc6", "2. d4", 1)
	svc := f.service(pgn.NewColorResolver("black", "", nil, nil))

	n, err := svc.AnalyzeAll(testContext(), pgn.NewStreamSource(strings.NewReader(stream)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	f.engine.AssertNumberOfCalls(t, "NewGame", 2)
	f.engine.AssertNumberOfCalls(t, "Evaluate", 7)
	assert.Empty(t, f.out.String(), "level evaluations flag nothing")
}

func TestAnalyzeAll_StopsOnFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.On("NewGame", mock.Anything).Return(errors.New("broken pipe")).Once()

	stream := blunderGame + "\n" + blunderGame
	svc := f.service(pgn.NewColorResolver("white", "", nil, nil))

	n, err := svc.AnalyzeAll(testContext(), pgn.NewStreamSource(strings.NewReader(stream)))
	require.Error(t, err)
	assert.Zero(t, n)
	f.engine.AssertNumberOfCalls(t, "NewGame", 1)
}

func TestAnalyzeAll_PasteModeAnalyzesOneGame(t *testing.T) {
	f := newFixture(t)
	f.expectBlunderGame()

	svc := f.service(pgn.NewColorResolver("white", "", nil, nil))
	n, err := svc.AnalyzeAll(testContext(), pgn.NewPasteSource(blunderGame))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
