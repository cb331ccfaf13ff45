package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vytor/blundercheck/internal/errors"
)

// scriptedEngine answers 0cp except for the third and fourth searches,
// which make White's third ply look like a blunder.
const scriptedEngine = `#!/bin/sh
n=0
while read -r line; do
  case "$line" in
    uci) echo "id name scripted"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*)
      n=$((n+1))
      case "$n" in
        3) cp=900 ;;
        4) cp=-900 ;;
        *) cp=0 ;;
      esac
      echo "info depth 1 score cp $cp pv e2e4"
      echo "bestmove e2e4" ;;
    quit) exit 0 ;;
  esac
done
`

const blunderPGN = `[Event "Casual"]
[White "Alice"]
[Black "Bob"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 *
`

type harness struct {
	dir    string
	stdin  string
	paste  string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("scripted engine needs a POSIX shell")
	}
	dir := t.TempDir()
	t.Chdir(dir)

	enginePath := filepath.Join(dir, "stockfish")
	require.NoError(t, os.WriteFile(enginePath, []byte(scriptedEngine), 0o755))
	t.Setenv("STOCKFISH_PATH", enginePath)
	t.Setenv("ANALYZE_COLOR", "")
	t.Setenv("PLAYER_NAME", "")
	t.Setenv("DB_PATH", "")

	return &harness{dir: dir}
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	streams := Streams{
		In:            strings.NewReader(h.stdin),
		Out:           &h.stdout,
		Err:           &h.stderr,
		ReadClipboard: func() (string, error) { return h.paste, nil },
		OpenPrompt: func() (io.ReadWriteCloser, error) {
			return nil, errors.New("no terminal")
		},
	}
	cmd := newRootCommand(streams)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func TestAnalyze_StreamReportsBlunder(t *testing.T) {
	h := newHarness(t)
	h.stdin = blunderPGN

	err := h.run("--color", "white", "--csv", h.path("plot.csv"), "--plot", h.path("plot.yaml"))
	require.NoError(t, err, h.stderr.String())

	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "2.Nf3:blunder: https://lichess.org/analysis/"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "?color=white"), lines[0])

	csvData, err := os.ReadFile(h.path("plot.csv"))
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(csvData), "\n"))

	plotData, err := os.ReadFile(h.path("plot.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(plotData), "label: 2.Nf3")

	assert.Contains(t, h.stderr.String(), "lichess.org/paste?pgn=")
}

func TestAnalyze_PastePromptsOnStdin(t *testing.T) {
	h := newHarness(t)
	h.paste = blunderPGN
	h.stdin = "b\n"

	err := h.run("--csv", h.path("plot.csv"), "--db", h.path("history.db"))
	require.NoError(t, err, h.stderr.String())
	assert.Contains(t, h.stderr.String(), "Which color to analyze ? [w/b]")
	assert.Empty(t, h.stdout.String(), "black made no bad moves")

	require.NoError(t, h.run("history", "--db", h.path("history.db"), "--runs"))
	assert.Contains(t, h.stdout.String(), "Alice")
	assert.Contains(t, h.stdout.String(), "black")
}

func TestAnalyze_PlayerNamePicksColor(t *testing.T) {
	h := newHarness(t)
	h.stdin = blunderPGN

	err := h.run("--player", "alice", "--csv", h.path("plot.csv"), "--db", h.path("history.db"))
	require.NoError(t, err, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "2.Nf3:blunder:")

	require.NoError(t, h.run("history", "--db", h.path("history.db"), "--kind", "blunders"))
	assert.Contains(t, h.stdout.String(), "Alice vs Bob (white)")
	assert.Contains(t, h.stdout.String(), "  2.Nf3:blunder: https://lichess.org/analysis/")

	require.NoError(t, h.run("history", "--db", h.path("history.db"), "--kind", "mistake"))
	assert.Contains(t, h.stdout.String(), "No annotations recorded.")
}

func TestAnalyze_UnresolvedColorIsConfigError(t *testing.T) {
	h := newHarness(t)
	h.stdin = blunderPGN

	err := h.run("--csv", h.path("plot.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
	assert.NoFileExists(t, h.path("plot.csv"))
}

func TestAnalyze_EmptyStream(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("--color", "black"))
	assert.Empty(t, h.stdout.String())
}

func TestAnalyze_InvalidFlagsStopBeforeEngine(t *testing.T) {
	h := newHarness(t)
	t.Setenv("STOCKFISH_PATH", h.path("does-not-exist"))

	err := h.run("--model", "sf99", "--color", "white")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))

	err = h.run("--depth", "0", "--color", "white")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}

func TestAnalyze_MissingEngineIsEngineError(t *testing.T) {
	h := newHarness(t)
	t.Setenv("STOCKFISH_PATH", h.path("does-not-exist"))
	h.stdin = blunderPGN

	err := h.run("--color", "white")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEngine))
}

func TestHistory_RequiresDatabase(t *testing.T) {
	h := newHarness(t)

	err := h.run("history")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}

func TestHistory_RejectsUnknownKind(t *testing.T) {
	h := newHarness(t)

	err := h.run("history", "--db", h.path("history.db"), "--kind", "inaccuracy")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}
