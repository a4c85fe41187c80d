package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/michaelzixizhou/codag/pkg/pipeline"
)

// List styles
var (
	listNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// WatchModel - Live layout status view
// =============================================================================

// layoutUpdateMsg delivers an applied live update to the model.
type layoutUpdateMsg struct {
	update pipeline.Update
}

// watchErrMsg delivers a snapshot read or pipeline failure to the model.
type watchErrMsg struct {
	err error
}

// WatchModel is the bubbletea model for watch mode. It shows the most
// recently applied layout and how it was applied.
type WatchModel struct {
	Path string

	last      *pipeline.Update
	lastErr   error
	updatedAt time.Time
	runs      int
}

// NewWatchModel creates a watch model for the given snapshot file.
func NewWatchModel(path string) WatchModel {
	return WatchModel{Path: path}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case layoutUpdateMsg:
		m.last = &msg.update
		m.lastErr = nil
		m.updatedAt = time.Now()
		m.runs++
	case watchErrMsg:
		m.lastErr = msg.err
		m.updatedAt = time.Now()
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("codag watch"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.Path))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	if m.lastErr != nil {
		b.WriteString(styleIconError.Render(iconError))
		b.WriteString(" ")
		b.WriteString(StyleWarning.Render(m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	if m.last == nil {
		b.WriteString(listDimStyle.Render("Waiting for the first layout..."))
		b.WriteString("\n")
		return b.String()
	}

	res := m.last.Result
	mode := StyleSuccess.Render(m.last.Mode)
	if m.last.Mode == pipeline.ModeDestructive {
		mode = StyleWarning.Render(m.last.Mode)
	}

	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		styleIconSuccess.Render(iconSuccess),
		listNormalStyle.Render(fmt.Sprintf("run %d", m.runs)),
		mode))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %d nodes · %d edges · canvas %.0fx%.0f",
		m.updatedAt.Format("15:04:05"),
		res.Stats.NodeCount,
		res.Stats.EdgeCount,
		res.Layout.Width,
		res.Layout.Height)))
	b.WriteString("\n\n")

	b.WriteString(m.groupTable())
	b.WriteString("\n")

	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range res.Warnings {
			b.WriteString(styleIconWarning.Render(iconWarning))
			b.WriteString(" ")
			b.WriteString(StyleWarning.Render(w.String()))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// groupTable renders one row per rendered workflow group.
func (m WatchModel) groupTable() string {
	res := m.last.Result

	rows := [][]string{}
	for _, g := range res.Layout.Groups {
		name := g.Name
		if name == "" {
			name = g.ID
		}
		size, origin := "—", "—"
		if g.Bounds != nil {
			size = fmt.Sprintf("%.0fx%.0f", g.Bounds.Width, g.Bounds.Height)
			origin = fmt.Sprintf("%.0f,%.0f", g.Bounds.X, g.Bounds.Y)
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", len(g.Nodes)), size, origin})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Workflow", "Nodes", "Size", "Origin").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return listNormalStyle
			}
			return listDimStyle
		})

	return t.Render()
}
