// Package exposition extracts a single counter value from Prometheus text
// exposition output. Parsing is best-effort: it never fails, it only
// reports whether a value was found.
package exposition

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultPatterns match request counters in order of preference. Patterns
// are tested against the metric name with labels stripped.
var DefaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^file_requests_total$`),
	regexp.MustCompile(`^http_requests_total$`),
	regexp.MustCompile(`_requests_total$`),
}

// MetricName returns the metric name of an exposition sample line.
func MetricName(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.IndexAny(line, "{ \t"); i >= 0 {
		return line[:i]
	}
	return line
}

// FirstCounter scans text line by line and returns the value of the first
// sample whose name matches any pattern. Comment and blank lines are
// skipped. It returns false when no line matches or the matched value does
// not parse as a float.
func FirstCounter(text string, patterns []*regexp.Regexp) (float64, bool) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !matchesAny(MetricName(line), patterns) {
			continue
		}
		return sampleValue(line)
	}
	return 0, false
}

func matchesAny(name string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// sampleValue parses the trailing whitespace-delimited token of a line.
func sampleValue(line string) (float64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
