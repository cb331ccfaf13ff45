package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/blundercheck/internal/analysis"
	"github.com/vytor/blundercheck/internal/report"
)

var _ analysis.Progress = (*report.ProgressIndicator)(nil)

func TestProgressIndicator_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewProgressIndicator(&buf)

	p.Start(3)
	p.Step("e4")
	p.Step("e5")
	p.Step("Nf3")
	p.Finish()

	assert.Equal(t, "  [1/3] e4\n  [2/3] e5\n  [3/3] Nf3\n✓ Analyzed 3/3 plies\n", buf.String())
}

func TestProgressIndicator_RestartsPerGame(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewProgressIndicator(&buf)

	p.Start(1)
	p.Step("d4")
	p.Finish()
	buf.Reset()

	p.Start(2)
	p.Step("c4")
	assert.Equal(t, "  [1/2] c4\n", buf.String())
}
