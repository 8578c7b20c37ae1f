package matcher

import (
	"fmt"
	"regexp"
	"sync"

	"backend/internal/apperr"
)

// RegexEvaluator scores content against a regular expression: 1.0 on match,
// 0.0 otherwise. Compiled expressions are cached per pattern definition.
type RegexEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

func (e *RegexEvaluator) Evaluate(patternData, content string) (Result, error) {
	re, err := e.compile(patternData)
	if err != nil {
		return Result{}, fmt.Errorf("%w: invalid regex pattern: %v", apperr.ErrValidation, err)
	}
	if re.MatchString(content) {
		return Result{Confidence: 1.0}, nil
	}
	return Result{}, nil
}

func (e *RegexEvaluator) compile(patternData string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, ok := e.cache[patternData]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(patternData)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.cache == nil {
		e.cache = make(map[string]*regexp.Regexp)
	}
	e.cache[patternData] = re
	e.mu.Unlock()
	return re, nil
}
