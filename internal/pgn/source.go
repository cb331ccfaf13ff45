package pgn

import (
	"io"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
)

// Source yields games one at a time and returns io.EOF when exhausted.
type Source interface {
	Next() (*chess.Game, error)
	Mode() string
}

// ClipboardReader returns the current clipboard text.
type ClipboardReader func() (string, error)

// SelectSource prefers a non-empty clipboard over the stdin stream. A
// clipboard that cannot be read counts as empty.
func SelectSource(readClipboard ClipboardReader, stdin io.Reader) Source {
	log := logger.Default().WithPrefix("input")
	if readClipboard != nil {
		text, err := readClipboard()
		if err != nil {
			log.Debug("clipboard unavailable: %v", err)
		} else if strings.TrimSpace(text) != "" {
			log.Info("reading game from clipboard")
			return NewPasteSource(text)
		}
	}
	log.Info("reading games from standard input")
	return NewStreamSource(stdin)
}

// PasteSource yields the single game in a pasted PGN blob.
type PasteSource struct {
	text string
	done bool
}

func NewPasteSource(text string) *PasteSource {
	return &PasteSource{text: text}
}

func (s *PasteSource) Mode() string { return "paste" }

// Next parses the pasted text once. Unparseable text is an INPUT error.
func (s *PasteSource) Next() (*chess.Game, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return ParseGame(s.text)
}

// StreamSource yields games from a PGN stream until it runs dry.
type StreamSource struct {
	scanner *chess.Scanner
	log     *logger.Logger
	count   int
}

func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{
		scanner: chess.NewScanner(r),
		log:     logger.Default().WithPrefix("input"),
	}
}

func (s *StreamSource) Mode() string { return "stream" }

// Next returns the next game. A game that fails to parse ends the stream.
func (s *StreamSource) Next() (*chess.Game, error) {
	if !s.scanner.HasNext() {
		return nil, io.EOF
	}
	game, err := s.scanner.ParseNext()
	if err != nil {
		s.log.Warn("stopping at unparseable game %d: %v", s.count+1, err)
		return nil, io.EOF
	}
	s.count++
	return game, nil
}

// ParseGame parses a single PGN game.
func ParseGame(text string) (*chess.Game, error) {
	opt, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, errors.NewInputError("failed to parse PGN", err)
	}
	return chess.NewGame(opt), nil
}

var headerKeys = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

// Headers returns the seven-tag-roster headers present on game.
func Headers(game *chess.Game) map[string]string {
	out := map[string]string{}
	for _, k := range headerKeys {
		if v := game.GetTagPair(k); v != "" {
			out[k] = v
		}
	}
	return out
}
