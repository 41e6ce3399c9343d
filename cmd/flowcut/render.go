package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/session"
)

var (
	labelStyle = lipgloss.NewStyle().Width(6).Bold(true)
	blankStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	clipStyles = map[flowcut.MediaType]lipgloss.Style{
		flowcut.Video:   lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("231")),
		flowcut.Audio:   lipgloss.NewStyle().Background(lipgloss.Color("28")).Foreground(lipgloss.Color("231")),
		flowcut.Image:   lipgloss.NewStyle().Background(lipgloss.Color("130")).Foreground(lipgloss.Color("231")),
		flowcut.Pattern: lipgloss.NewStyle().Background(lipgloss.Color("90")).Foreground(lipgloss.Color("231")),
	}
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

// renderTimeline draws the editable tracks top down, one row per track, the
// clips scaled to width columns.
func renderTimeline(seq *flowcut.Sequence, width int) string {
	width = max(width, 10)
	length := max(seq.Length(), 1)
	var rows []string
	for i := seq.TrackCount() - 1; i >= 0; i-- {
		t, _ := seq.Track(i)
		if t.Reserved {
			continue
		}
		label := t.Name
		if t.Mode != flowcut.Free {
			label += "*"
		}
		var b strings.Builder
		col := 0
		start := 0
		for _, c := range seq.Clips(i) {
			end := (start + c.Length()) * width / length
			w := max(end-col, 1)
			b.WriteString(block(c, w))
			col += w
			start += c.Length()
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), b.String()))
	}
	rows = append(rows, fmt.Sprintf("%d frames", seq.Length()))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func block(c flowcut.Clip, w int) string {
	if c.IsBlank() {
		return blankStyle.Render(strings.Repeat("·", w))
	}
	text := c.Name
	if len(text) > w-1 {
		text = text[:max(w-1, 0)]
	}
	return clipStyles[c.Type].Render("|" + text + strings.Repeat(" ", max(w-1-len(text), 0)))
}

func renderResults(results []session.StepResult) string {
	var lines []string
	for _, r := range results {
		status := okStyle.Render("done")
		switch {
		case r.Err != nil:
			status = errStyle.Render(r.Err.Error())
		case !r.Done:
			status = skipStyle.Render("no action")
		case r.Name != "":
			status += " " + r.Name
		}
		lines = append(lines, fmt.Sprintf("%3d %-10s %s", r.Step, r.Do, status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
