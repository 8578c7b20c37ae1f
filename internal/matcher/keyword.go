package matcher

import "strings"

// KeywordEvaluator scores content by the fraction of the pattern's
// comma-separated keywords found as case-insensitive substrings.
type KeywordEvaluator struct{}

func (e *KeywordEvaluator) Evaluate(patternData, content string) (Result, error) {
	contentLower := strings.ToLower(content)

	var keywords []string
	for _, kw := range strings.Split(patternData, ",") {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return Result{}, nil
	}

	var hits []string
	for _, kw := range keywords {
		if strings.Contains(contentLower, kw) {
			hits = append(hits, kw)
		}
	}

	return Result{
		Confidence:       float64(len(hits)) / float64(len(keywords)),
		DetectedKeywords: hits,
	}, nil
}
