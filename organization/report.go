package organization

import (
	"fmt"
	"strings"
)

// Report accumulates one human-readable status line per action taken
// during an orchestration run.
type Report struct {
	lines []string
}

// Addf appends a formatted status line.
func (r *Report) Addf(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Empty reports whether no actions were recorded.
func (r *Report) Empty() bool {
	return len(r.lines) == 0
}

// String returns the newline-joined status report.
func (r *Report) String() string {
	return strings.Join(r.lines, "\n")
}
