package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/vytor/blundercheck/internal/analysis"
	apperrors "github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
	"github.com/vytor/blundercheck/internal/models"
	"github.com/vytor/blundercheck/internal/pgn"
	"github.com/vytor/blundercheck/internal/report"
	"github.com/vytor/blundercheck/internal/repository"
)

// Engine is the evaluator shared by every game of a session.
type Engine interface {
	analysis.Evaluator
	NewGame(ctx context.Context) error
}

// ColorResolver decides which side of a game is analyzed.
type ColorResolver interface {
	Resolve(game *chess.Game) (chess.Color, error)
}

// GameReport is the outcome of one analyzed game.
type GameReport struct {
	RunID   string
	Headers map[string]string
	Result  *analysis.Result
}

// AnalysisService handles per-game analysis business logic
type AnalysisService interface {
	AnalyzeGame(ctx context.Context, game *chess.Game) (*GameReport, error)
	AnalyzeAll(ctx context.Context, source pgn.Source) (int, error)
}

type analysisService struct {
	engine   Engine
	colors   ColorResolver
	repo     repository.AnalysisRepository
	reporter *report.Reporter
	progress analysis.Progress
	config   AnalysisConfig
}

// ServiceOption configures optional collaborators of the AnalysisService.
type ServiceOption func(*analysisService)

// WithRepository records every analyzed game in repo.
func WithRepository(repo repository.AnalysisRepository) ServiceOption {
	return func(s *analysisService) {
		s.repo = repo
	}
}

// WithProgress reports per-ply progress while a game is analyzed.
func WithProgress(progress analysis.Progress) ServiceOption {
	return func(s *analysisService) {
		s.progress = progress
	}
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	engine Engine,
	colors ColorResolver,
	reporter *report.Reporter,
	config AnalysisConfig,
	opts ...ServiceOption,
) AnalysisService {
	s := &analysisService{
		engine:   engine,
		colors:   colors,
		reporter: reporter,
		config:   config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeAll analyzes games from source until it is exhausted. The first
// failing game stops the run; games already reported stay reported.
func (s *analysisService) AnalyzeAll(ctx context.Context, source pgn.Source) (int, error) {
	log := logger.FromContext(ctx).WithField("mode", source.Mode())

	analyzed := 0
	for {
		if err := ctx.Err(); err != nil {
			return analyzed, err
		}
		game, err := source.Next()
		if errors.Is(err, io.EOF) {
			log.Info("input exhausted after %d games", analyzed)
			return analyzed, nil
		}
		if err != nil {
			log.Error("failed to read game: %v", err)
			return analyzed, err
		}

		gameCtx := logger.NewContext(ctx, log.WithField("game", analyzed+1))
		if _, err := s.AnalyzeGame(gameCtx, game); err != nil {
			return analyzed, err
		}
		analyzed++
	}
}

func (s *analysisService) AnalyzeGame(ctx context.Context, game *chess.Game) (*GameReport, error) {
	log := logger.FromContext(ctx)

	headers := pgn.Headers(game)
	fields := make(map[string]any, len(headers))
	for k, v := range headers {
		fields[strings.ToLower(k)] = v
	}
	sans := analysis.MainlineSAN(game)
	pasteURL := report.PasteURL(sans)
	log.WithFields(fields).Info("game headers")
	log.Info("full game: %s", pasteURL)

	color, err := s.colors.Resolve(game)
	if err != nil {
		log.Error("cannot determine analyzed color: %v", err)
		return nil, err
	}
	log = log.WithField("color", analysis.ColorName(color))
	log.Info("analyzing as %s", analysis.ColorName(color))

	if err := s.engine.NewGame(ctx); err != nil {
		log.Error("failed to reset engine: %v", err)
		return nil, apperrors.NewEngineError("failed to start new game", err)
	}

	var opts []analysis.PipelineOption
	opts = append(opts, analysis.WithLogger(log.WithPrefix("pipeline")))
	if s.progress != nil {
		opts = append(opts, analysis.WithProgress(s.progress))
	}
	pipeline := analysis.NewPipeline(s.engine, analysis.PipelineConfig{
		Depth:      s.config.Depth,
		Model:      s.config.Model,
		Classifier: s.config.Classifier,
	}, opts...)

	result, err := pipeline.Analyze(ctx, game, color)
	if err != nil {
		return nil, err
	}

	if err := s.reporter.Write(result); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.export(ctx, headers, result); err != nil {
		return nil, err
	}

	gameReport := &GameReport{Headers: headers, Result: result}
	if s.repo != nil {
		gameReport.RunID = s.persist(ctx, headers, pasteURL, result)
	}
	return gameReport, nil
}

func (s *analysisService) export(ctx context.Context, headers map[string]string, result *analysis.Result) error {
	log := logger.FromContext(ctx)

	if s.config.PlotCSV != "" {
		if err := report.ExportCSV(s.config.PlotCSV, result.Series); err != nil {
			log.Error("failed to export csv: %v", err)
			return apperrors.NewInternalError(err)
		}
		log.Debug("wrote %d plies to %s", len(result.Series), s.config.PlotCSV)
	}
	if s.config.PlotYAML != "" {
		doc := report.NewPlotDocument(gameTitle(headers), result)
		if err := report.ExportPlot(s.config.PlotYAML, doc); err != nil {
			log.Error("failed to export plot: %v", err)
			return apperrors.NewInternalError(err)
		}
		log.Debug("wrote plot document to %s", s.config.PlotYAML)
	}
	return nil
}

// persist records the run. History is best effort: a failure is logged
// and the analysis itself still succeeds.
func (s *analysisService) persist(ctx context.Context, headers map[string]string, pasteURL string, result *analysis.Result) string {
	log := logger.FromContext(ctx)

	run := models.AnalysisRun{
		Event:    headers["Event"],
		Site:     headers["Site"],
		Date:     headers["Date"],
		White:    headers["White"],
		Black:    headers["Black"],
		Result:   headers["Result"],
		Color:    analysis.ColorName(result.Color),
		Model:    s.modelName(),
		Depth:    s.config.Depth,
		Plies:    len(result.Series),
		Blunders: len(result.Blunders()),
		Mistakes: len(result.Mistakes()),
		PasteURL: pasteURL,
	}
	for _, a := range result.Annotations {
		run.Annotations = append(run.Annotations, models.StoredAnnotation{
			Ply:            a.Ply,
			SAN:            a.SAN,
			Kind:           a.Kind.String(),
			WinProbability: a.WinProbability,
			Delta:          a.Delta,
			FEN:            a.FEN,
		})
	}

	id, err := s.repo.Insert(ctx, run)
	if err != nil {
		log.Error("failed to record analysis history: %v", err)
		return ""
	}
	log.Debug("analysis recorded: run=%s", id)
	return id
}

func (s *analysisService) modelName() string {
	if s.config.Model == nil {
		return analysis.DefaultModel
	}
	return s.config.Model.Name()
}

func gameTitle(headers map[string]string) string {
	white, black := headers["White"], headers["Black"]
	if white == "" && black == "" {
		return headers["Event"]
	}
	return fmt.Sprintf("%s vs %s", white, black)
}
