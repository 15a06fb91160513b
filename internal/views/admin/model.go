package admin

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// Permission required to see the admin area.
const Permission = "admin"

// Model is the admin area mounted for /admin and everything under it.
type Model struct {
	viewport viewport.Model
	user     *backend.User
	projects *backend.ProjectList
	section  string
}

// New creates a new admin view model.
func New() Model {
	return Model{
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.viewport.SetWidth(w - 2)
	m.viewport.SetHeight(h)
}

// Show mounts the view for path with the session's user and projects.
func (m *Model) Show(path string, user *backend.User, projects *backend.ProjectList) {
	m.user = user
	m.projects = projects
	m.section = strings.Trim(strings.TrimPrefix(path, routes.AdminPath), "/")
	m.setContent()
}

// Allowed reports whether the mounted user may use the admin area.
func (m *Model) Allowed() bool {
	return m.user.Can(Permission)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the admin area.
func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) setContent() {
	var b strings.Builder

	title := "Admin"
	if m.section != "" {
		title += " / " + m.section
	}
	b.WriteString(ui.StyleHeader.Render(title) + "\n\n")

	if m.user != nil {
		b.WriteString(ui.StyleDim.Render("Signed in as ") + m.user.Email + ui.StyleDim.Render("  ("+m.user.ID+")") + "\n")
		perms := append([]string(nil), m.user.Permissions...)
		sort.Strings(perms)
		if len(perms) == 0 {
			perms = []string{"(none)"}
		}
		b.WriteString(ui.StyleDim.Render("Permissions: ") + strings.Join(perms, ", ") + "\n\n")
	}

	if !m.Allowed() {
		b.WriteString(ui.StyleError.Render("You do not have access to the admin area."))
		m.viewport.SetContent(b.String())
		return
	}

	count := 0
	if m.projects != nil {
		count = m.projects.Count
	}
	b.WriteString(ui.StyleAccent.Render("Overview") + "\n")
	b.WriteString(fmt.Sprintf("  bookmarked projects  %d\n", count))
	if m.projects != nil {
		envs := map[string]int{}
		for _, p := range m.projects.Entries {
			for _, e := range p.Environments {
				envs[e.Name]++
			}
		}
		names := make([]string, 0, len(envs))
		for name := range envs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %-20s %d\n", name, envs[name]))
		}
	}
	m.viewport.SetContent(b.String())
}
