// Package highlight wraps search matches in styled markers without
// disturbing ANSI escape sequences already present in rendered output.
package highlight

import (
	"regexp"
	"strings"
)

var ansiCSI = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

type Result struct {
	Text      string
	Count     int
	LineIndex []int
}

// Apply highlights every case-insensitive occurrence of query in input,
// calling wrap around each match. Escape sequences are passed through
// untouched so existing styling survives. LineIndex records the lines that
// contain at least one match, for jump navigation.
func Apply(input, query string, wrap func(string) string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Text: input}
	}
	if wrap == nil {
		wrap = func(s string) string { return s }
	}

	var out strings.Builder
	var lineIndex []int
	total := 0

	for lineNo, line := range strings.Split(input, "\n") {
		if lineNo > 0 {
			out.WriteByte('\n')
		}
		count := highlightLine(&out, line, query, wrap)
		if count > 0 {
			lineIndex = append(lineIndex, lineNo)
			total += count
		}
	}

	return Result{Text: out.String(), Count: total, LineIndex: lineIndex}
}

// highlightLine walks the line as alternating plain/escape segments and
// highlights only the plain ones.
func highlightLine(out *strings.Builder, line, query string, wrap func(string) string) int {
	count := 0
	pos := 0
	for _, idx := range ansiCSI.FindAllStringIndex(line, -1) {
		count += highlightPlain(out, line[pos:idx[0]], query, wrap)
		out.WriteString(line[idx[0]:idx[1]])
		pos = idx[1]
	}
	count += highlightPlain(out, line[pos:], query, wrap)
	return count
}

func highlightPlain(out *strings.Builder, s, query string, wrap func(string) string) int {
	if s == "" {
		return 0
	}
	lower := strings.ToLower(s)
	q := strings.ToLower(query)

	count := 0
	start := 0
	for {
		rel := strings.Index(lower[start:], q)
		if rel < 0 {
			out.WriteString(s[start:])
			return count
		}
		idx := start + rel
		out.WriteString(s[start:idx])
		end := idx + len(query)
		out.WriteString(wrap(s[idx:end]))
		count++
		start = end
	}
}
