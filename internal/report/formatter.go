package report

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/fatih/color"
	"github.com/vytor/blundercheck/internal/analysis"
	"github.com/vytor/blundercheck/internal/logger"
)

const lichessBaseURL = "https://lichess.org"

// MoveLabel renders a move with its full-move number: "1.e4" for White's
// first move (ply 0), "1..e5" for Black's reply (ply 1).
func MoveLabel(ply int, san string) string {
	number := ply/2 + 1
	if ply%2 == 0 {
		return fmt.Sprintf("%d.%s", number, san)
	}
	return fmt.Sprintf("%d..%s", number, san)
}

// AnalysisURL links to the lichess analysis board for fen, oriented for
// the analyzed color.
func AnalysisURL(fen string, c chess.Color) string {
	orientation := "white"
	if c == chess.Black {
		orientation = "black"
	}
	return fmt.Sprintf("%s/analysis/%s?color=%s",
		lichessBaseURL, strings.ReplaceAll(strings.TrimSpace(fen), " ", "_"), orientation)
}

// Movetext joins SAN moves into numbered PGN movetext without headers.
func Movetext(sans []string) string {
	var b strings.Builder
	for i, san := range sans {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(san)
	}
	return b.String()
}

// PasteURL links to the lichess import page preloaded with the whole game.
func PasteURL(sans []string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(Movetext(sans)), "+", "%20")
	return fmt.Sprintf("%s/paste?pgn=%s", lichessBaseURL, escaped)
}

// Reporter prints the per-game annotation report.
type Reporter struct {
	w        io.Writer
	colorize bool
}

// NewReporter writes to w, coloring assessment kinds when w is a terminal.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w, colorize: logger.IsTerminal(w)}
}

var kindColors = map[analysis.Assessment]*color.Color{
	analysis.AssessmentBlunder: color.New(color.FgRed, color.Bold),
	analysis.AssessmentMistake: color.New(color.FgYellow),
}

// Line formats one annotation as "<label>:<kind>: <link>".
func (r *Reporter) Line(a analysis.Annotation, c chess.Color) string {
	kind := a.Kind.String()
	if r.colorize {
		if kc, ok := kindColors[a.Kind]; ok {
			kind = kc.Sprint(kind)
		}
	}
	return fmt.Sprintf("%s:%s: %s", MoveLabel(a.Ply, a.SAN), kind, AnalysisURL(a.FEN, c))
}

// Write prints one line per annotation, in game order.
func (r *Reporter) Write(result *analysis.Result) error {
	for _, a := range result.Annotations {
		if _, err := fmt.Fprintln(r.w, r.Line(a, result.Color)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// WriteReport prints result to w without colors.
func WriteReport(w io.Writer, result *analysis.Result) error {
	return (&Reporter{w: w}).Write(result)
}
