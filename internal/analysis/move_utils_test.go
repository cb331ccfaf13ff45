package analysis_test

import (
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/blundercheck/internal/analysis"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected chess.Color
		wantErr  bool
	}{
		{input: "white", expected: chess.White},
		{input: " Black ", expected: chess.Black},
		{input: "W", expected: chess.White},
		{input: "b", expected: chess.Black},
		{input: "blue", wantErr: true},
		{input: "whatever", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := analysis.ParseColor(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, chess.NoColor, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestParseColorAnswer_MatchesPrefix(t *testing.T) {
	c, err := analysis.ParseColorAnswer("bl\n")
	require.NoError(t, err)
	assert.Equal(t, chess.Black, c)

	c, err = analysis.ParseColorAnswer("Wh")
	require.NoError(t, err)
	assert.Equal(t, chess.White, c)

	_, err = analysis.ParseColorAnswer("x")
	require.Error(t, err)
}
