package analysis

import "github.com/corentings/chess/v2"

// Verdict is the outcome of one of the analyzed player's moves.
type Verdict struct {
	Before     float64
	After      float64
	Delta      float64
	Assessment Assessment
}

// TurnTracker follows a game ply by ply and remembers the evaluation just
// before and just after each move of the analyzed player.
type TurnTracker struct {
	analyzed   chess.Color
	model      WDLModel
	classifier Classifier

	before PovScore
	after  PovScore
}

// NewTurnTracker starts both tracked scores at a level position so the
// first move of the game is compared against an even baseline.
func NewTurnTracker(analyzed chess.Color, model WDLModel, classifier Classifier) *TurnTracker {
	neutral := PovScore{Score: Centipawns(0), Perspective: analyzed, Ply: 0}
	return &TurnTracker{
		analyzed:   analyzed,
		model:      model,
		classifier: classifier,
		before:     neutral,
		after:      neutral,
	}
}

// Observe records the evaluation reached after mover played. It returns a
// verdict, and true, only when mover is the analyzed player.
func (t *TurnTracker) Observe(mover chess.Color, score PovScore) (Verdict, bool) {
	score = score.Pov(t.analyzed)
	if mover != t.analyzed {
		t.before = score
		return Verdict{}, false
	}

	t.after = score
	before := WinProbability(t.before, t.analyzed, t.model)
	after := WinProbability(t.after, t.analyzed, t.model)
	return Verdict{
		Before:     before,
		After:      after,
		Delta:      after - before,
		Assessment: t.classifier.Classify(before, after),
	}, true
}

// Before returns the evaluation the analyzed player last faced.
func (t *TurnTracker) Before() PovScore { return t.before }

// After returns the evaluation right after the analyzed player's last move.
func (t *TurnTracker) After() PovScore { return t.after }
