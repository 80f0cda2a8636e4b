package rules

import (
	"regexp"
	"strings"
	"sync"
)

// String predicates are pure functions over (field value, operand), both
// sides compared case-insensitively.

// Contains reports whether value contains operand.
func Contains(value, operand string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(operand))
}

// Equals reports whether value equals operand.
func Equals(value, operand string) bool {
	return strings.EqualFold(value, operand)
}

// NotEquals reports whether value does not equal operand.
func NotEquals(value, operand string) bool {
	return !Equals(value, operand)
}

// NotContains reports whether value does not contain operand.
func NotContains(value, operand string) bool {
	return !Contains(value, operand)
}

// StartsWith reports whether value starts with operand.
func StartsWith(value, operand string) bool {
	return strings.HasPrefix(strings.ToLower(value), strings.ToLower(operand))
}

// EndsWith reports whether value ends with operand.
func EndsWith(value, operand string) bool {
	return strings.HasSuffix(strings.ToLower(value), strings.ToLower(operand))
}

// regexCache compiles case-insensitive, unanchored patterns once and reuses
// them across conditions and batch runs.
type regexCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{compiled: make(map[string]*regexp.Regexp)}
}

// get returns the compiled pattern, or an error for patterns that do not
// compile. Failed patterns are not cached; rule loads already reject most of
// them and the miss path is cold.
func (c *regexCache) get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re, nil
}
