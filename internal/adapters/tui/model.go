// Package tui provides an interactive terminal renderer for build sessions.
package tui

import (
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/anvil/internal/adapters/telemetry"
	"go.trai.ch/anvil/internal/ui/output"
)

const (
	targetListWidthRatio = 0.3
	logPaneBorderWidth   = 4
)

// TargetStatus is the display state of a target.
type TargetStatus string

const (
	StatusPending TargetStatus = "Pending"
	StatusRunning TargetStatus = "Running"
	StatusBuilt   TargetStatus = "Built"
	StatusSkipped TargetStatus = "Skipped"
	StatusFailed  TargetStatus = "Failed"
)

// TargetNode is one row of the target list.
type TargetNode struct {
	Name      string
	Status    TargetStatus
	Logs      *LogBuffer
	StartTime time.Time
	Elapsed   time.Duration
}

// Model is the bubbletea model of a build session.
type Model struct {
	Targets   []*TargetNode
	TargetMap map[string]*TargetNode
	SpanMap   map[string]*TargetNode

	ActiveTarget string
	SelectedIdx  int
	ListOffset   int
	ListHeight   int
	LogWidth     int
	LogHeight    int
	// FollowMode moves the selection to whichever target started last.
	FollowMode bool
	// Interrupted is set when the user asked to abort the build.
	Interrupted bool
}

// NewModel creates a model rendering with the colour profile of w.
func NewModel(w io.Writer) Model {
	if w == nil {
		w = os.Stderr
	}
	lipgloss.SetColorProfile(output.New(w).Profile)

	return Model{
		TargetMap:  make(map[string]*TargetNode),
		SpanMap:    make(map[string]*TargetNode),
		FollowMode: true,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) selected() *TargetNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Targets) {
		return m.Targets[m.SelectedIdx]
	}
	return nil
}

func (m *Model) selectIndex(i int) {
	m.SelectedIdx = i
	m.ensureVisible()
	if node := m.selected(); node != nil {
		m.ActiveTarget = node.Name
	}
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Interrupted = true
			return m, tea.Quit
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.FollowMode = false
				m.selectIndex(m.SelectedIdx - 1)
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Targets)-1 {
				m.FollowMode = false
				m.selectIndex(m.SelectedIdx + 1)
			}
		case "esc":
			m.FollowMode = true
			for i, t := range m.Targets {
				if t.Status == StatusRunning {
					m.selectIndex(i)
					break
				}
			}
		}

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * targetListWidthRatio)
		m.LogWidth = msg.Width - listWidth - logPaneBorderWidth
		m.LogHeight = msg.Height - lipgloss.Height(titleStyle.Render("LOGS"))
		m.ListHeight = msg.Height - lipgloss.Height(titleStyle.Render("TARGETS")+"\n\n")
		m.ensureVisible()

	case telemetry.MsgInitTargets:
		m.Targets = make([]*TargetNode, len(msg.Targets))
		m.TargetMap = make(map[string]*TargetNode, len(msg.Targets))
		m.SpanMap = make(map[string]*TargetNode)
		for i, name := range msg.Targets {
			m.Targets[i] = &TargetNode{Name: name, Status: StatusPending, Logs: NewLogBuffer(0)}
			m.TargetMap[name] = m.Targets[i]
		}
		m.SelectedIdx, m.ListOffset, m.ActiveTarget = 0, 0, ""

	case telemetry.MsgTargetStart:
		node, ok := m.TargetMap[msg.Name]
		if !ok {
			break
		}
		node.Status = StatusRunning
		node.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			for i, t := range m.Targets {
				if t == node {
					m.selectIndex(i)
					break
				}
			}
		}

	case telemetry.MsgTargetLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Logs.Write(msg.Data)
		}

	case telemetry.MsgTargetComplete:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			break
		}
		node.Elapsed = msg.EndTime.Sub(node.StartTime)
		switch {
		case msg.Err != nil:
			node.Status = StatusFailed
			_, _ = node.Logs.Write([]byte("\n" + msg.Err.Error() + "\n"))
		case msg.Skipped:
			node.Status = StatusSkipped
		default:
			node.Status = StatusBuilt
		}
	}

	return m, nil
}
