package services

import "github.com/vytor/blundercheck/internal/analysis"

// AnalysisConfig holds the per-session analysis and export settings
type AnalysisConfig struct {
	Depth      int
	Model      analysis.WDLModel
	Classifier analysis.Classifier
	PlotCSV    string
	PlotYAML   string // empty disables the plot document
}
