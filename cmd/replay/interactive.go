package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-replay/runtime"
)

const (
	headerHeight = 3
	footerHeight = 2
)

type inspectModel struct {
	report   *runtime.LinkReport
	viewport viewport.Model
	filter   textinput.Model
	selected int
	ready    bool
}

func newInspectModel(report *runtime.LinkReport) *inspectModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.Width = 40

	return &inspectModel{
		report: report,
		filter: ti,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - headerHeight - footerHeight
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "esc":
				m.filter.SetValue("")
				m.filter.Blur()
			case "enter":
				m.filter.Blur()
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.refresh()
				return m, cmd
			}
			m.refresh()
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "right", "l", "tab":
			m.selected = (m.selected + 1) % len(m.report.Steps)
			m.refresh()
			return m, nil
		case "left", "h", "shift+tab":
			m.selected = (m.selected + len(m.report.Steps) - 1) % len(m.report.Steps)
			m.refresh()
			return m, nil
		case "/":
			m.filter.Focus()
			return m, textinput.Blink
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// content returns the selected step's lines that match the filter.
func (m *inspectModel) content() string {
	step := m.report.Steps[m.selected]
	query := strings.ToLower(m.filter.Value())

	var b strings.Builder
	for _, line := range stepLines(step, m.report.Entry) {
		if query != "" && !strings.Contains(strings.ToLower(line), query) {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *inspectModel) refresh() {
	if m.ready {
		m.viewport.SetContent(m.content())
		m.viewport.GotoTop()
	}
}

func (m *inspectModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("replay inspect"))
	b.WriteString("\n")
	for i, s := range m.report.Steps {
		label := fmt.Sprintf(" %d. %s ", i+1, s.Role)
		if i == m.selected {
			b.WriteString(selectedStyle.Render(label))
		} else {
			b.WriteString(label)
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.filter.Focused() || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
	} else if err := m.report.Err(); err != nil {
		b.WriteString(errorStyle.Render(err.Error()))
	} else {
		b.WriteString(okStyle.Render("all imports resolve"))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("←/→ module • ↑/↓ scroll • / filter • q quit"))
	return b.String()
}

func runInteractive(report *runtime.LinkReport) error {
	p := tea.NewProgram(newInspectModel(report), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
