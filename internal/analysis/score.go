package analysis

import (
	"fmt"

	"github.com/corentings/chess/v2"
)

type scoreKind int

const (
	cpScore scoreKind = iota
	mateScore
)

// Score is an engine evaluation from one side's point of view: either a
// centipawn value or a forced mate. The zero value is Centipawns(0).
type Score struct {
	kind scoreKind
	cp   int
	// mate distance in moves, always >= 0
	moves int
	// for mate scores: true when the point of view delivers mate
	winning bool
}

// Centipawns returns a centipawn score.
func Centipawns(cp int) Score {
	return Score{kind: cpScore, cp: cp}
}

// MateIn returns a mate score in UCI convention: positive moves means the
// point of view mates, negative or zero means it is being mated.
func MateIn(moves int) Score {
	if moves > 0 {
		return Score{kind: mateScore, moves: moves, winning: true}
	}
	return Score{kind: mateScore, moves: -moves}
}

// MateGiven is the score of a side whose opponent is already checkmated.
func MateGiven() Score {
	return Score{kind: mateScore, moves: 0, winning: true}
}

// IsMate reports whether the score is a forced mate.
func (s Score) IsMate() bool { return s.kind == mateScore }

// CP returns the centipawn value and false for mate scores.
func (s Score) CP() (int, bool) {
	if s.kind != cpScore {
		return 0, false
	}
	return s.cp, true
}

// Mate returns the signed mate distance (negative when being mated) and
// false for centipawn scores. Being checkmated already reports 0.
func (s Score) Mate() (int, bool) {
	if s.kind != mateScore {
		return 0, false
	}
	if s.winning {
		return s.moves, true
	}
	return -s.moves, true
}

// Winning reports whether a mate score favours the point of view.
func (s Score) Winning() bool {
	return s.kind == mateScore && s.winning
}

// Neg returns the same evaluation from the opponent's point of view.
func (s Score) Neg() Score {
	if s.kind == cpScore {
		return Centipawns(-s.cp)
	}
	return Score{kind: mateScore, moves: s.moves, winning: !s.winning}
}

func (s Score) String() string {
	if s.kind == cpScore {
		return fmt.Sprintf("%+d", s.cp)
	}
	if s.winning {
		return fmt.Sprintf("#+%d", s.moves)
	}
	return fmt.Sprintf("#-%d", s.moves)
}

// PovScore ties a Score to the color it is relative to and to the game ply
// (half-moves played) of the position it was computed for.
type PovScore struct {
	Score       Score
	Perspective chess.Color
	Ply         int
}

// Pov returns the score relative to color.
func (p PovScore) Pov(color chess.Color) PovScore {
	if p.Perspective == color {
		return p
	}
	return PovScore{Score: p.Score.Neg(), Perspective: color, Ply: p.Ply}
}

func (p PovScore) String() string {
	return fmt.Sprintf("%s pov=%s ply=%d", p.Score, ColorName(p.Perspective), p.Ply)
}
