// Package rules matches image paths against the user's regex patterns.
package rules

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MoveRule sends kept images whose proper path matches From into To.
type MoveRule struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*regexp.Regexp{}
)

// compile caches compiled patterns. Invalid patterns return nil.
func compile(pattern string) *regexp.Regexp {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if re, ok := cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Warn("Ignoring invalid pattern", "pattern", pattern, "error", err)
	}
	cache[pattern] = re
	return re
}

// Match returns the sorted names of the patterns found anywhere in s.
func Match(patterns map[string]string, s string) []string {
	var matches []string
	for name, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if re := compile(pattern); re != nil && re.MatchString(s) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

// AutoMove returns the first rule whose From pattern matches properPath.
func AutoMove(moves []MoveRule, properPath string) (MoveRule, bool) {
	for _, rule := range moves {
		if rule.From == "" || rule.To == "" {
			continue
		}
		if re := compile(escapeSeparators(rule.From)); re != nil && re.MatchString(properPath) {
			return rule, true
		}
	}
	return MoveRule{}, false
}

// BlacklistPattern builds a regex matching any path that starts with one of
// the blacklisted paths. It returns nil for an empty blacklist.
func BlacklistPattern(paths []string) *regexp.Regexp {
	quoted := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile("^(?:" + strings.Join(quoted, "|") + ")")
}

// escapeSeparators doubles backslash separators so Windows paths written in
// a pattern match literally.
func escapeSeparators(pattern string) string {
	if filepath.Separator != '\\' {
		return pattern
	}
	return strings.ReplaceAll(pattern, `\`, `\\`)
}
