package loading

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/codeflow/tui/internal/ui"
)

// Model is the full-screen spinner shown until the first session response.
type Model struct {
	spinner spinner.Model
	label   string
	width   int
	height  int
}

// New creates a spinner with label.
func New(label string) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = ui.StyleAccent
	return Model{spinner: s, label: label}
}

// Tick starts the animation.
func (m Model) Tick() tea.Msg {
	return m.spinner.Tick()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the spinner centered.
func (m Model) View() string {
	content := m.spinner.View() + " " + ui.StyleDim.Render(m.label)
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
