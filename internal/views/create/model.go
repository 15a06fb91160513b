package create

import (
	"errors"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// SubmitMsg asks the parent to create a project.
type SubmitMsg struct {
	Input backend.CreateProjectInput
}

const (
	fieldName = iota
	fieldGitURL
	fieldCount
)

// Model is the project creation form.
type Model struct {
	inputs     [fieldCount]textinput.Model
	focus      int
	bookmarked bool
	busy       bool
	err        error
	width      int
}

// New creates an empty form.
func New() Model {
	name := textinput.New()
	name.Prompt = "name        "
	name.Placeholder = "checkout-service"
	name.CharLimit = 128

	git := textinput.New()
	git.Prompt = "repository  "
	git.Placeholder = "git@github.com:acme/checkout-service.git"
	git.CharLimit = 256

	return Model{
		inputs:     [fieldCount]textinput.Model{name, git},
		bookmarked: true,
	}
}

// Focus focuses the first field.
func (m *Model) Focus() tea.Cmd {
	m.focus = fieldName
	m.inputs[fieldGitURL].Blur()
	return m.inputs[fieldName].Focus()
}

// Reset clears the form after a successful create.
func (m *Model) Reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.busy = false
	m.err = nil
	m.bookmarked = true
}

// SetResult ends a submission. A nil err resets the form.
func (m *Model) SetResult(err error) {
	if err == nil {
		m.Reset()
		return
	}
	m.busy = false
	m.err = err
}

// Busy reports whether a submission is in flight.
func (m *Model) Busy() bool {
	return m.busy
}

// SetSize updates the view width.
func (m *Model) SetSize(w, _ int) {
	m.width = w
	for i := range m.inputs {
		m.inputs[i].SetWidth(w - 16)
	}
}

// Validate returns the input or why it cannot be submitted.
func (m *Model) Validate() (backend.CreateProjectInput, error) {
	name := strings.TrimSpace(m.inputs[fieldName].Value())
	git := strings.TrimSpace(m.inputs[fieldGitURL].Value())
	var errs []error
	if name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if git == "" {
		errs = append(errs, errors.New("repository is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return backend.CreateProjectInput{}, err
	}
	return backend.CreateProjectInput{
		Name:        name,
		GitURL:      git,
		GitProtocol: backend.GitProtocol(git),
		Bookmarked:  m.bookmarked,
	}, nil
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	if m.busy {
		return m, nil
	}

	switch k.String() {
	case "tab", "down":
		return m, m.move(1)
	case "shift+tab", "up":
		return m, m.move(-1)
	case "ctrl+b":
		m.bookmarked = !m.bookmarked
		return m, nil
	case "enter":
		if m.focus < fieldCount-1 {
			return m, m.move(1)
		}
		in, err := m.Validate()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.busy = true
		return m, func() tea.Msg { return SubmitMsg{Input: in} }
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) move(dir int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + dir + fieldCount) % fieldCount
	return m.inputs[m.focus].Focus()
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(ui.StyleHeader.Render(" Create project") + "\n\n")
	for i := range m.inputs {
		b.WriteString(" " + m.inputs[i].View() + "\n")
	}

	mark := "[ ]"
	if m.bookmarked {
		mark = "[x]"
	}
	b.WriteString(" " + ui.StyleDim.Render("bookmark    ") + mark + "\n")
	if git := strings.TrimSpace(m.inputs[fieldGitURL].Value()); git != "" {
		b.WriteString(" " + ui.StyleDim.Render("protocol    ") + backend.GitProtocol(git) + "\n")
	}
	b.WriteByte('\n')

	switch {
	case m.busy:
		b.WriteString(ui.StyleDim.Render(" Creating…"))
	case m.err != nil:
		b.WriteString(ui.StyleError.Render(" " + strings.ReplaceAll(m.err.Error(), "\n", "; ")))
	default:
		b.WriteString(ui.StyleDim.Render(" tab next field  ctrl+b toggle bookmark  enter create"))
	}
	return b.String()
}
