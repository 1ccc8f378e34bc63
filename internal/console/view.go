package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"signage-player/internal/media"
	"signage-player/internal/slideshow"
)

var (
	accent = lipgloss.Color("#E5A00D")
	dim    = lipgloss.Color("#6B7280")
	white  = lipgloss.Color("#F9FAFB")
	red    = lipgloss.Color("#EF4444")

	titleStyle    = lipgloss.NewStyle().Foreground(white).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	accentStyle   = lipgloss.NewStyle().Foreground(accent)
	errorStyle    = lipgloss.NewStyle().Foreground(red)
	selectedStyle = lipgloss.NewStyle().Foreground(white).Background(accent).Padding(0, 1)
	groupStyle    = lipgloss.NewStyle().Foreground(dim).Padding(0, 1)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("signage"))
	b.WriteString("\n\n")

	if len(m.snap.Groups) == 0 {
		b.WriteString(dimStyle.Render("No groups"))
	} else {
		tabs := make([]string, len(m.snap.Groups))
		for i, g := range m.snap.Groups {
			label := fmt.Sprintf("%d %s", i+1, g.Name)
			if i == m.snap.SelectedGroup {
				tabs[i] = selectedStyle.Render(label)
			} else {
				tabs[i] = groupStyle.Render(label)
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	}
	b.WriteString("\n\n")

	box := boxStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(statusLine(m.snap)))
	b.WriteString("\n")

	switch {
	case m.confirming:
		b.WriteString(errorStyle.Render(slideshow.DeletePrompt + " (y/n)"))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(accentStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

// statusLine renders "i / n : name" for the current item, or the
// placeholder for an empty group.
func statusLine(s slideshow.Snapshot) string {
	g, it, ok := s.Current()
	if !ok {
		if len(s.Groups) == 0 {
			return dimStyle.Render("Add a group to start")
		}
		return dimStyle.Render(slideshow.MsgNoMedia)
	}

	state := "⏸"
	if s.Playing {
		state = "▶"
	}
	line := fmt.Sprintf("%s %d / %d : %s", state, s.CurrentItem+1, len(g.Items), it.Name())
	switch kind := media.Classify(&it); kind {
	case media.Unsupported:
		line += "  " + errorStyle.Render(slideshow.MsgUnsupported)
	default:
		line += "  " + dimStyle.Render("["+kind.String()+"]")
	}
	return line
}

func (m Model) helpView() string {
	var parts []string
	for _, k := range m.keys.help() {
		if m.reload == nil && k.Help().Key == m.keys.Inventory.Help().Key {
			continue
		}
		h := k.Help()
		parts = append(parts, accentStyle.Render(h.Key)+" "+dimStyle.Render(h.Desc))
	}
	return strings.Join(parts, dimStyle.Render(" • "))
}
