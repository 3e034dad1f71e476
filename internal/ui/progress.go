package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Reporter renders one status line per imported file, plus a final
// summary. With styling disabled it degrades to plain text for pipes
// and logs.
type Reporter struct {
	out    io.Writer
	width  int
	styled bool
}

// NewReporter creates a reporter writing to out. styled enables color
// output; pass the result of a terminal check.
func NewReporter(out io.Writer, styled bool) *Reporter {
	return &Reporter{out: out, width: 80, styled: styled}
}

// SetWidth overrides the assumed terminal width.
func (r *Reporter) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// File prints the status line for one file.
func (r *Reporter) File(path, status string) {
	statusWidth := 12
	nameWidth := r.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}
	name := truncate(path, nameWidth)
	label := fmt.Sprintf("%12s", status)
	if r.styled {
		label = styleStatus(status).Render(label)
	}
	fmt.Fprintf(r.out, "  %s %s\n", label, name)
}

// Summary prints the closing counters of a run.
func (r *Reporter) Summary(total, failed, cached int) {
	line := fmt.Sprintf("%d file(s), %d failed, %d cached", total, failed, cached)
	if r.styled {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
		if failed > 0 {
			style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
		}
		line = style.Render(line)
	}
	fmt.Fprintln(r.out, line)
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "ok":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
