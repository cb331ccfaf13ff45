package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Assessment is the verdict on a single move by the analyzed player.
type Assessment int

const (
	AssessmentNone Assessment = iota
	AssessmentMistake
	AssessmentBlunder
)

func (a Assessment) String() string {
	switch a {
	case AssessmentNone:
		return "none"
	case AssessmentMistake:
		return "mistake"
	case AssessmentBlunder:
		return "blunder"
	default:
		return fmt.Sprintf("assessment(%d)", int(a))
	}
}

// ParseAssessment is the inverse of Assessment.String.
func ParseAssessment(s string) (Assessment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return AssessmentNone, nil
	case "mistake":
		return AssessmentMistake, nil
	case "blunder":
		return AssessmentBlunder, nil
	default:
		return AssessmentNone, fmt.Errorf("unknown assessment %q", s)
	}
}

// Policy selects which probability swings are worth flagging.
type Policy int

const (
	// PolicyDirectional flags only drops in the analyzed player's probability.
	PolicyDirectional Policy = iota
	// PolicyAbsolute flags swings of either sign.
	PolicyAbsolute
)

func (p Policy) String() string {
	switch p {
	case PolicyDirectional:
		return "directional"
	case PolicyAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "directional":
		return PolicyDirectional, nil
	case "absolute":
		return PolicyAbsolute, nil
	default:
		return PolicyDirectional, fmt.Errorf("unknown assessment policy %q", s)
	}
}

const (
	DefaultMistakeThreshold = 0.1
	DefaultBlunderThreshold = 0.2
)

// Classifier turns a win-probability change into an Assessment.
// Both thresholds are exclusive.
type Classifier struct {
	MistakeThreshold float64
	BlunderThreshold float64
	Policy           Policy
}

// DefaultClassifier returns the directional classifier with 0.1/0.2 thresholds.
func DefaultClassifier() Classifier {
	return Classifier{
		MistakeThreshold: DefaultMistakeThreshold,
		BlunderThreshold: DefaultBlunderThreshold,
		Policy:           PolicyDirectional,
	}
}

// Classify assesses a move that took the analyzed player from before to after.
func (c Classifier) Classify(before, after float64) Assessment {
	return c.ClassifyDelta(after - before)
}

// ClassifyDelta assesses a probability change (after - before).
func (c Classifier) ClassifyDelta(delta float64) Assessment {
	loss := -delta
	if c.Policy == PolicyAbsolute {
		loss = math.Abs(delta)
	}

	switch {
	case loss > c.BlunderThreshold:
		return AssessmentBlunder
	case loss > c.MistakeThreshold:
		return AssessmentMistake
	default:
		return AssessmentNone
	}
}
