package analysis

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// moveSAN encodes move in standard algebraic notation against pos, the
// position it is played from.
func moveSAN(pos *chess.Position, move *chess.Move) string {
	if move == nil || pos == nil {
		return ""
	}
	return chess.AlgebraicNotation{}.Encode(pos, move)
}

// ColorName returns "white" or "black".
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	default:
		return "none"
	}
}

// ParseColor accepts white, black, w or b in any case.
func ParseColor(s string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	default:
		return chess.NoColor, fmt.Errorf("unknown color %q, expected white, black, w or b", s)
	}
}

// ParseColorAnswer reads an interactive answer: anything starting with w
// or b picks that side.
func ParseColorAnswer(s string) (chess.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "w"):
		return chess.White, nil
	case strings.HasPrefix(v, "b"):
		return chess.Black, nil
	default:
		return chess.NoColor, fmt.Errorf("unknown color %q", s)
	}
}

// MainlineSAN returns the mainline moves of game in SAN.
func MainlineSAN(game *chess.Game) []string {
	moves := game.Moves()
	positions := game.Positions()
	sans := make([]string, 0, len(moves))
	for i, move := range moves {
		if i >= len(positions) {
			break
		}
		sans = append(sans, moveSAN(positions[i], move))
	}
	return sans
}
