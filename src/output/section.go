package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// frameWidth is the length of the rules drawn after a row's corner glyph.
const frameWidth = 61

const colorHeader = "\033[2;36m"

// Section is one framed block of build output: a titled rule, rows
// prefixed with │, and a closing rule.
type Section struct {
	w     io.Writer
	color bool
}

// NewSection writes the title rule and returns the section. A non-zero
// elapsed is shown at the right end of the rule.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	s := &Section{w: w, color: color}
	s.title(name, elapsed)
	return s
}

// Row writes one line of content.
func (s *Section) Row(format string, args ...any) {
	s.line("│ " + fmt.Sprintf(format, args...))
}

// Separator divides the rows of a section, e.g. before totals.
func (s *Section) Separator() { s.line("├" + rule(frameWidth)) }

// Close writes the closing rule.
func (s *Section) Close() { s.line("└" + rule(frameWidth)) }

// Status writes a row for one unit of work (a step, a target) ending in
// its status icon. detail is dimmed.
func (s *Section) Status(label, detail string, st Status) {
	icon := StatusIcon(st, s.color)
	if detail == "" {
		s.Row("%-24s %s", label, icon)
		return
	}
	s.Row("%-24s %s %s", label, Dimmed(detail, s.color), icon)
}

// Total writes the run's closing total with its elapsed time.
func (s *Section) Total(elapsed time.Duration, st Status) {
	s.Row("%-24s %s %s", "total", Dimmed(formatElapsed(elapsed), s.color), StatusIcon(st, s.color))
}

func (s *Section) line(text string) {
	fmt.Fprintf(s.w, "    %s\n", text)
}

// title renders: ── Name ─────────────── 1.5s ──
func (s *Section) title(name string, elapsed time.Duration) {
	left := "── " + name + " "
	right := "──"
	if elapsed > 0 {
		right = " " + formatElapsed(elapsed) + " ──"
	}
	fill := max(1, frameWidth+4-utf8.RuneCountInString(left)-utf8.RuneCountInString(right))

	fmt.Fprintln(s.w)
	s.line(colorize(left+rule(fill)+right, colorHeader, s.color))
}

func rule(n int) string { return strings.Repeat("─", n) }

// Dimmed returns dimmed text if color is enabled.
func Dimmed(text string, color bool) string {
	return colorize(text, colorGray, color)
}

// KV is a key-value pair for the context block.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints the run context (configuration, platforms, output)
// as key-value pairs, two per line, keys padded to the longest key.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	width := 0
	for _, p := range kv {
		width = max(width, len(p.Key))
	}

	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		line := fmt.Sprintf("%-*s  %-14s", width, kv[i].Key, kv[i].Value)
		if i+1 < len(kv) {
			line += fmt.Sprintf("  %-*s  %s", width, kv[i+1].Key, kv[i+1].Value)
		}
		fmt.Fprintf(w, "    %s\n", strings.TrimRight(line, " "))
	}
}

// formatElapsed formats a duration for section titles and rows.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := d / time.Minute
	return fmt.Sprintf("%dm%.1fs", m, (d - m*time.Minute).Seconds())
}
