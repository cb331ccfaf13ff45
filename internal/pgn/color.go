package pgn

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/vytor/blundercheck/internal/analysis"
	"github.com/vytor/blundercheck/internal/errors"
)

// ColorResolver decides which side of a game to analyze: a configured
// color wins, then a player-name match against the headers, then a prompt.
type ColorResolver struct {
	Configured string
	PlayerName string

	in  *bufio.Reader
	out io.Writer
}

// NewColorResolver prompts on out and reads answers from in. A nil in
// disables prompting.
func NewColorResolver(configured, playerName string, in io.Reader, out io.Writer) *ColorResolver {
	r := &ColorResolver{Configured: configured, PlayerName: playerName, out: out}
	if in != nil {
		r.in = bufio.NewReader(in)
	}
	return r
}

// Resolve returns the analyzed color for game. Anything other than a w/b
// answer is a CONFIG error.
func (r *ColorResolver) Resolve(game *chess.Game) (chess.Color, error) {
	if r.Configured != "" {
		c, err := analysis.ParseColor(r.Configured)
		if err != nil {
			return chess.NoColor, errors.NewConfigError("color", err.Error())
		}
		return c, nil
	}

	if name := strings.TrimSpace(r.PlayerName); name != "" {
		switch {
		case strings.EqualFold(game.GetTagPair("White"), name):
			return chess.White, nil
		case strings.EqualFold(game.GetTagPair("Black"), name):
			return chess.Black, nil
		}
	}

	return r.prompt()
}

func (r *ColorResolver) prompt() (chess.Color, error) {
	if r.in == nil {
		return chess.NoColor, errors.NewConfigError("color", "cannot determine the color to analyze")
	}
	if r.out != nil {
		fmt.Fprint(r.out, "Which color to analyze ? [w/b] ")
	}
	answer, err := r.in.ReadString('\n')
	if err != nil && answer == "" {
		return chess.NoColor, errors.NewConfigError("color", fmt.Sprintf("no answer: %v", err))
	}
	c, perr := analysis.ParseColorAnswer(answer)
	if perr != nil {
		return chess.NoColor, errors.NewConfigError("color", fmt.Sprintf("expected w or b, got %q", strings.TrimSpace(answer)))
	}
	return c, nil
}
