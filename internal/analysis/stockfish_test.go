package analysis_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/blundercheck/internal/analysis"
)

// fakeEngine speaks just enough UCI for the engine wrapper.
const fakeEngine = `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo "id name fake"; echo "uciok" ;;
    isready) echo "readyok" ;;
    "position fen "*mated*) mated=1 ;;
    "position fen "*) mated=0 ;;
    go*)
      if [ "$mated" = "1" ]; then
        echo "info depth 0 score mate 0"
        echo "bestmove (none)"
      else
        echo "info depth 1 score cp 12 pv e2e4"
        echo "info depth 2 score cp 40 lowerbound"
        echo "info depth 2 score cp 31 pv e2e4"
        echo "bestmove e2e4"
      fi ;;
    quit) exit 0 ;;
  esac
done
`

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-stockfish")
	require.NoError(t, os.WriteFile(path, []byte(fakeEngine), 0o755))
	return path
}

func TestEngine_Evaluate(t *testing.T) {
	ctx := context.Background()
	cfg := analysis.EngineConfig{Path: writeFakeEngine(t), Threads: 2, EvalTimeout: 5 * time.Second}

	err := analysis.WithEngine(ctx, cfg, func(e *analysis.Engine) error {
		require.NoError(t, e.NewGame(ctx))

		score, err := e.Evaluate(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 2)
		require.NoError(t, err)
		cp, ok := score.CP()
		assert.True(t, ok)
		assert.Equal(t, 31, cp, "bound scores are ignored")

		score, err = e.Evaluate(ctx, "mated", 2)
		require.NoError(t, err)
		assert.Equal(t, analysis.MateIn(0), score)
		return nil
	})
	assert.NoError(t, err)
}

func TestEngine_ClosedEngineRejectsWork(t *testing.T) {
	ctx := context.Background()
	e, err := analysis.NewEngine(ctx, analysis.EngineConfig{Path: writeFakeEngine(t)})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.NoError(t, e.Close(), "close is idempotent")

	_, err = e.Evaluate(ctx, "8/8/8/8/8/8/8/8 w - - 0 1", 1)
	assert.ErrorIs(t, err, analysis.ErrEngineClosed)
}

func TestWithEngine_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	var captured *analysis.Engine

	err := analysis.WithEngine(ctx, analysis.EngineConfig{Path: writeFakeEngine(t)}, func(e *analysis.Engine) error {
		captured = e
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = captured.Evaluate(ctx, "8/8/8/8/8/8/8/8 w - - 0 1", 1)
	assert.ErrorIs(t, err, analysis.ErrEngineClosed)
}

func TestNewEngine_MissingBinary(t *testing.T) {
	_, err := analysis.NewEngine(context.Background(), analysis.EngineConfig{Path: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
