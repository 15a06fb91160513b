package login

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// SubmitMsg carries the entered access token to the parent.
type SubmitMsg struct {
	Token string
}

// Model is the access token form shown while the session needs a login.
type Model struct {
	input   textinput.Model
	from    routes.Location
	err     string
	pending bool
	width   int
}

// New creates a new login view model.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "token: "
	ti.Placeholder = "paste your access token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 512
	return Model{input: ti}
}

// Show mounts the form for loc and focuses it.
func (m *Model) Show(loc routes.Location) tea.Cmd {
	m.from = loc
	m.pending = false
	return m.input.Focus()
}

// From returns the location to return to after logging in.
func (m *Model) From() routes.Location {
	return m.from
}

// SetError shows why the last attempt failed and re-enables the form.
func (m *Model) SetError(msg string) {
	m.err = msg
	m.pending = false
}

// Done clears the form after a successful login.
func (m *Model) Done() {
	m.input.SetValue("")
	m.err = ""
	m.pending = false
}

// Focused reports whether the token input takes keys.
func (m *Model) Focused() bool {
	return m.input.Focused()
}

// Pending reports whether a login is being verified.
func (m *Model) Pending() bool {
	return m.pending
}

// SetSize updates the view width.
func (m *Model) SetSize(w, _ int) {
	m.width = w
	m.input.SetWidth(w - 12)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == "enter" {
		token := strings.TrimSpace(m.input.Value())
		if token == "" {
			m.err = "access token is required"
			return m, nil
		}
		m.err = ""
		m.pending = true
		return m, func() tea.Msg { return SubmitMsg{Token: token} }
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(ui.StyleHeader.Render(" Sign in") + "\n\n")
	b.WriteString(ui.StyleDim.Render(" Generate an access token in the web app and paste it below.") + "\n\n")
	b.WriteString(" " + m.input.View() + "\n\n")

	switch {
	case m.pending:
		b.WriteString(ui.StyleDim.Render(" Signing in…"))
	case m.err != "":
		b.WriteString(ui.StyleError.Render(" " + m.err))
	default:
		if from := m.from.ReturnPath(); from != routes.RootPath {
			b.WriteString(ui.StyleDim.Render(" You will return to " + from + " after signing in."))
		} else {
			b.WriteString(ui.StyleDim.Render(" enter sign in  ctrl+c quit"))
		}
	}
	return b.String()
}
