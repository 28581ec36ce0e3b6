package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// CompilePatterns compiles field patterns case-insensitive and multi-line, keeping their order.
func CompilePatterns(exprs ...string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for i, e := range exprs {
		re, err := regexp.Compile(`(?im)` + e)
		if err != nil {
			return nil, fmt.Errorf("pattern %d %q: %w", i, e, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func MustCompilePatterns(exprs ...string) []*regexp.Regexp {
	out, err := CompilePatterns(exprs...)
	if err != nil {
		panic(err)
	}
	return out
}

// Locate returns the trimmed capture of the first pattern that matches anywhere in text.
// Order is the only tie-break: a later pattern is never consulted once an earlier one matched.
func Locate(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if v := strings.TrimSpace(group); v != "" {
				return v, true
			}
		}
		return "", false
	}
	return "", false
}
