package bashx

import (
	"strings"

	"github.com/google/shlex"
)

// Command is a command to run.
//
// It is given either as free-form Text (possibly multi-line, possibly
// carrying the leading indentation of a source-code literal) or as an
// ordered list of Args tokens. If Args is non-empty it wins over Text.
//
// Normalize() flattens either form into one canonical string; that
// string is what every backend receives and what log lines and
// failure messages quote.
type Command struct {
	// Text is the command as free text. Multi-line text is kept
	// multi-line; only the common leading indentation is removed.
	Text string `yaml:"text"`
	// Args is the command as a token list, joined with single spaces.
	Args []string `yaml:"args"`
}

// Normalize returns the canonical command string.
//
// Token lists are joined with single spaces. Free text is dedented:
// the leading whitespace shared by all non-blank lines is stripped, so
// indented literal blocks behave as if written flush left. Normalizing
// an already-normalized string returns it unchanged.
//
// Normalization never fails; empty input yields the empty string.
// No quoting or escaping is performed, shell-safety of the result is
// the caller's concern.
func (c Command) Normalize() string {
	if len(c.Args) > 0 {
		return strings.Join(c.Args, " ")
	}
	return dedent(c.Text)
}

// dedent removes the common leading whitespace of all non-blank lines.
// Whitespace-only lines are ignored when computing the margin and come
// out empty.
func dedent(text string) string {
	lines := strings.Split(text, "\n")

	margin := ""
	found := false
	for _, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		indent := line[:len(line)-len(body)]
		if !found {
			margin = indent
			found = true
			continue
		}
		n := len(margin)
		if len(indent) < n {
			n = len(indent)
		}
		i := 0
		for i < n && margin[i] == indent[i] {
			i++
		}
		margin = margin[:i]
	}

	if margin == "" && !containsBlankPadding(lines) {
		return text
	}

	for i, line := range lines {
		if strings.TrimLeft(line, " \t") == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

// containsBlankPadding reports whether any line consists solely of
// whitespace but is not empty. Such lines are normalized to empty even
// when no common margin exists.
func containsBlankPadding(lines []string) bool {
	for _, line := range lines {
		if line != "" && strings.TrimLeft(line, " \t") == "" {
			return true
		}
	}
	return false
}

// cmdSlice converts a command string with arguments ("ls -a /usr") into
// a slice of fields (["ls", "-a", "/usr"]), preserving quoted
// substrings. For example,
//
//	"a b 'c d'" -> ["a", "b", "c d"]
func cmdSlice(s string) ([]string, error) {
	return shlex.Split(s)
}
