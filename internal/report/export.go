package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/vytor/blundercheck/internal/analysis"
	"gopkg.in/yaml.v3"
)

// ReferenceLine is the even-game level drawn across the plot.
const ReferenceLine = 0.5

// WriteCSV writes the series as "ply,win_probability" rows under a header.
func WriteCSV(w io.Writer, series []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ply", "win_probability"}); err != nil {
		return err
	}
	for ply, win := range series {
		row := []string{strconv.Itoa(ply), strconv.FormatFloat(win, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV replaces the file at path with the series.
func ExportCSV(path string, series []float64) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, series); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return LockAndWrite(path, buf.Bytes())
}

// PlotPoint is one labeled scatter marker.
type PlotPoint struct {
	Ply            int     `yaml:"ply"`
	WinProbability float64 `yaml:"win_probability"`
	Label          string  `yaml:"label"`
}

// PlotDocument carries everything needed to draw a game's chart: the
// probability line, blunder and mistake markers, the 0.5 reference line
// and the y-axis range.
type PlotDocument struct {
	Title         string      `yaml:"title,omitempty"`
	Color         string      `yaml:"color"`
	Series        []float64   `yaml:"series,flow"`
	Blunders      []PlotPoint `yaml:"blunders"`
	Mistakes      []PlotPoint `yaml:"mistakes"`
	ReferenceLine float64     `yaml:"reference_line"`
	YRange        [2]float64  `yaml:"y_range,flow"`
}

// NewPlotDocument builds the chart for result. Markers sit at the position
// the flagged move was played from.
func NewPlotDocument(title string, result *analysis.Result) PlotDocument {
	doc := PlotDocument{
		Title:         title,
		Color:         analysis.ColorName(result.Color),
		Series:        result.Series,
		Blunders:      []PlotPoint{},
		Mistakes:      []PlotPoint{},
		ReferenceLine: ReferenceLine,
		YRange:        [2]float64{0, 1},
	}
	if doc.Series == nil {
		doc.Series = []float64{}
	}
	for _, a := range result.Annotations {
		point := PlotPoint{
			Ply:            a.ReferencePly(),
			WinProbability: a.WinProbability,
			Label:          MoveLabel(a.Ply, a.SAN),
		}
		switch a.Kind {
		case analysis.AssessmentBlunder:
			doc.Blunders = append(doc.Blunders, point)
		case analysis.AssessmentMistake:
			doc.Mistakes = append(doc.Mistakes, point)
		}
	}
	return doc
}

// ExportPlot replaces the file at path with doc encoded as YAML.
func ExportPlot(path string, doc PlotDocument) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	return LockAndWrite(path, buf.Bytes())
}
