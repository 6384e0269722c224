package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/anvil/internal/ui/style"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.targetList(),
		m.logPane(),
	)
}

func (m *Model) targetList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("TARGETS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Targets))
	start := min(m.ListOffset, end)
	for i := start; i < end; i++ {
		s.WriteString(m.renderRow(i, m.Targets[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderRow(index int, node *TargetNode) string {
	st := statusStyle(node.Status)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status == StatusPending || node.Status == StatusRunning {
			st = selectedStyle
		}
	}

	content := fmt.Sprintf("%s %s", statusIcon(node.Status), node.Name)
	if node.Status == StatusBuilt || node.Status == StatusFailed {
		content += " " + node.Elapsed.Round(time.Millisecond).String()
	}
	return cursor + st.Render(content)
}

func statusIcon(s TargetStatus) string {
	switch s {
	case StatusRunning:
		return style.Dot
	case StatusBuilt:
		return style.Check
	case StatusSkipped:
		return style.Tilde
	case StatusFailed:
		return style.Cross
	default:
		return style.Circle
	}
}

func statusStyle(s TargetStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return targetRunningStyle
	case StatusBuilt:
		return targetBuiltStyle
	case StatusSkipped:
		return targetSkippedStyle
	case StatusFailed:
		return targetFailedStyle
	default:
		return targetPendingStyle
	}
}

func (m *Model) logPane() string {
	if m.ActiveTarget == "" {
		return logStyle.Render(titleStyle.Render("LOGS (Waiting...)"))
	}

	mode := " (Following)"
	if !m.FollowMode {
		mode = " (Manual)"
	}

	title := titleStyle
	node, ok := m.TargetMap[m.ActiveTarget]
	if ok && node.Status == StatusFailed {
		title = failureTitleStyle
	}
	header := title.Render("LOGS: " + m.ActiveTarget + mode)

	var lines []string
	if ok {
		lines = node.Logs.Tail(max(m.LogHeight-1, 0))
	}
	if m.LogWidth > 0 {
		for i, line := range lines {
			if lipgloss.Width(line) > m.LogWidth {
				lines[i] = truncate(line, m.LogWidth)
			}
		}
	}

	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return string(r)
}
