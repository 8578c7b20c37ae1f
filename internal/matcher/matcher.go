package matcher

import (
	"backend/internal/apperr"
	"backend/internal/models"
)

// Result is the outcome of evaluating one pattern against one piece of
// content.
type Result struct {
	Confidence       float64  // always in [0,1]
	Matched          bool     // Confidence >= pattern threshold
	DetectedKeywords []string // keywords that hit, keyword patterns only
}

// Evaluator scores content against a pattern definition. Implementations are
// registered per pattern type and must keep the confidence in [0,1].
type Evaluator interface {
	Evaluate(patternData, content string) (Result, error)
}

// Matcher dispatches to the evaluator for a pattern's type. Unknown types
// evaluate to confidence 0.0, never an error; the pattern store may hold
// types (ml_model, behavioral, metadata) with no local evaluator.
type Matcher struct {
	evaluators map[string]Evaluator
}

// New returns a Matcher with the built-in keyword and regex strategies.
func New() *Matcher {
	return &Matcher{
		evaluators: map[string]Evaluator{
			models.PatternKeyword: &KeywordEvaluator{},
			models.PatternRegex:   &RegexEvaluator{},
		},
	}
}

// Register installs a custom evaluator for a pattern type, replacing any
// built-in one.
func (m *Matcher) Register(patternType string, e Evaluator) {
	m.evaluators[patternType] = e
}

// Evaluate scores content against the pattern and applies the pattern's own
// confidence threshold. Empty content is a validation error; a pattern with
// no definition scores 0.0.
func (m *Matcher) Evaluate(pattern *models.DetectionPattern, content string) (Result, error) {
	if content == "" {
		return Result{}, apperr.Validation("content required")
	}
	if pattern.PatternData == "" {
		return Result{}, nil
	}

	eval, ok := m.evaluators[pattern.PatternType]
	if !ok {
		return Result{}, nil
	}

	res, err := eval.Evaluate(pattern.PatternData, content)
	if err != nil {
		return Result{}, err
	}
	res.Confidence = clamp(res.Confidence)
	res.Matched = res.Confidence >= pattern.Threshold()
	return res, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
