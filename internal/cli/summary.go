package cli

import (
	"strings"
)

// summary collects per-plugin outcomes of a bulk command and renders them
// as an aligned table.
type summary struct {
	headers []string
	rows    [][]string
	padding int
}

func newSummary() *summary {
	return &summary{
		headers: []string{"PLUGIN", "BEFORE", "AFTER", "RESULT"},
		padding: 2,
	}
}

// add records one plugin. Missing versions render as "-".
func (s *summary) add(plugin, before, after, result string) {
	s.rows = append(s.rows, []string{plugin, orDash(before), orDash(after), result})
}

func (s *summary) empty() bool {
	return len(s.rows) == 0
}

func (s *summary) render() string {
	widths := make([]int, len(s.headers))
	for i, h := range s.headers {
		widths[i] = len(h)
	}
	for _, row := range s.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	s.writeRow(&b, s.headers, widths)

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	s.writeRow(&b, sep, widths)

	for _, row := range s.rows {
		s.writeRow(&b, row, widths)
	}
	return b.String()
}

func (s *summary) writeRow(b *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = padRight(cell, widths[i])
	}
	b.WriteString(strings.TrimRight(strings.Join(parts, strings.Repeat(" ", s.padding)), " "))
	b.WriteString("\n")
}

// padRight pads s with spaces on the right to reach width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
