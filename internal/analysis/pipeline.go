package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
)

// Evaluator scores a position. The returned score is relative to the side
// to move in fen.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (Score, error)
}

// Progress receives one step per analyzed ply.
type Progress interface {
	Start(total int)
	Step(label string)
	Finish()
}

// Annotation marks a mistake or blunder by the analyzed player.
type Annotation struct {
	Ply            int        // half-move index of the flagged move, 0 = White's first move
	SAN            string     // the move as played, in SAN
	Kind           Assessment // AssessmentMistake or AssessmentBlunder
	WinProbability float64    // analyzed player's probability before the move
	Delta          float64    // probability change caused by the move
	FEN            string     // position the move was played from
}

// ReferencePly is the series index of the position the move was played
// from; -1 means the initial position.
func (a Annotation) ReferencePly() int {
	return a.Ply - 1
}

// Result is the outcome of analyzing one game.
type Result struct {
	Color chess.Color
	// Series holds the analyzed player's win probability after each ply.
	Series      []float64
	Annotations []Annotation
}

// Blunders returns the blunder annotations in game order.
func (r *Result) Blunders() []Annotation { return r.filter(AssessmentBlunder) }

// Mistakes returns the mistake annotations in game order.
func (r *Result) Mistakes() []Annotation { return r.filter(AssessmentMistake) }

func (r *Result) filter(kind Assessment) []Annotation {
	var out []Annotation
	for _, a := range r.Annotations {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// PipelineConfig holds the per-run analysis settings.
type PipelineConfig struct {
	Depth      int
	Model      WDLModel
	Classifier Classifier
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithProgress reports each ply to progress.
func WithProgress(progress Progress) PipelineOption {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// WithLogger overrides the pipeline logger.
func WithLogger(log *logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// Pipeline evaluates every mainline position of a game and assesses the
// analyzed player's moves. It issues one evaluation at a time.
type Pipeline struct {
	evaluator Evaluator
	cfg       PipelineConfig
	progress  Progress
	log       *logger.Logger
}

// NewPipeline creates a Pipeline. A nil model falls back to DefaultModel and
// a zero classifier to DefaultClassifier.
func NewPipeline(evaluator Evaluator, cfg PipelineConfig, opts ...PipelineOption) *Pipeline {
	if cfg.Model == nil {
		cfg.Model, _ = ModelByName(DefaultModel)
	}
	if cfg.Classifier == (Classifier{}) {
		cfg.Classifier = DefaultClassifier()
	}
	p := &Pipeline{
		evaluator: evaluator,
		cfg:       cfg,
		log:       logger.Default().WithPrefix("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze walks the mainline of game. Any evaluation failure aborts the
// whole game: a missing ply would shift every later comparison.
func (p *Pipeline) Analyze(ctx context.Context, game *chess.Game, color chess.Color) (*Result, error) {
	log := p.log.WithFields(map[string]any{
		"color": ColorName(color),
		"model": p.cfg.Model.Name(),
	})

	moves := game.Moves()
	positions := game.Positions()
	if len(positions) != len(moves)+1 {
		return nil, errors.NewInputError(
			fmt.Sprintf("game has %d positions for %d moves", len(positions), len(moves)), nil)
	}

	result := &Result{
		Color:       color,
		Series:      make([]float64, 0, len(moves)),
		Annotations: []Annotation{},
	}
	tracker := NewTurnTracker(color, p.cfg.Model, p.cfg.Classifier)

	log.Info("analyzing %d plies at depth %d", len(moves), p.cfg.Depth)
	start := time.Now()
	if p.progress != nil {
		p.progress.Start(len(moves))
		defer p.progress.Finish()
	}

	for ply, move := range moves {
		if err := ctx.Err(); err != nil {
			log.Warn("analysis cancelled at ply %d: %v", ply, err)
			return nil, err
		}

		before := positions[ply]
		after := positions[ply+1]
		san := moveSAN(before, move)
		mover := before.Turn()

		raw, err := p.evaluator.Evaluate(ctx, after.String(), p.cfg.Depth)
		if err != nil {
			log.Error("evaluation failed at ply %d (%s): %v", ply, san, err)
			return nil, errors.NewEngineError(fmt.Sprintf("evaluation failed at ply %d", ply), err)
		}

		score := PovScore{Score: raw, Perspective: after.Turn(), Ply: ply + 1}.Pov(color)
		win := WinProbability(score, color, p.cfg.Model)
		result.Series = append(result.Series, win)

		if log.Enabled(logger.DEBUG) {
			log.Debug("ply %d %s: score %s win %.3f", ply, san, score.Score, win)
		}

		if verdict, ok := tracker.Observe(mover, score); ok && verdict.Assessment != AssessmentNone {
			log.Debug("ply %d %s flagged as %s (%.3f -> %.3f)", ply, san, verdict.Assessment, verdict.Before, verdict.After)
			result.Annotations = append(result.Annotations, Annotation{
				Ply:            ply,
				SAN:            san,
				Kind:           verdict.Assessment,
				WinProbability: verdict.Before,
				Delta:          verdict.Delta,
				FEN:            before.String(),
			})
		}

		if p.progress != nil {
			p.progress.Step(san)
		}
	}

	log.Info("analysis completed in %v: %d blunders, %d mistakes",
		time.Since(start).Round(time.Millisecond), len(result.Blunders()), len(result.Mistakes()))
	return result, nil
}
