// Package strings holds small text helpers shared by the CLI output code.
package strings

import (
	"strings"
)

// SummaryWidth is the column budget for one-line summaries such as tool
// descriptions in connect output.
const SummaryWidth = 60

const ellipsis = "..."

// Summary collapses all whitespace in s to single spaces and cuts the result
// to at most width runes, marking a cut with "...". Widths below 4 are raised
// to 4 so at least one rune survives.
func Summary(s string, width int) string {
	if width < len(ellipsis)+1 {
		width = len(ellipsis) + 1
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-len(ellipsis)]) + ellipsis
}
