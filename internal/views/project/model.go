package project

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// Model is the project detail view, optionally scoped to one environment.
type Model struct {
	viewport    viewport.Model
	slug        string
	environment string
	project     *backend.Project
	width       int
	height      int
}

// New creates a new project view model.
func New() Model {
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(24))
	return Model{
		viewport: vp,
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.SetWidth(w - 2)
	m.viewport.SetHeight(h)
}

// Show mounts the view for slug and environment. p is nil when the slug is
// unknown.
func (m *Model) Show(slug, environment string, p *backend.Project) {
	sameProject := slug == m.slug
	m.slug = slug
	m.environment = environment
	m.project = p
	m.setContent()
	if !sameProject {
		m.viewport.GotoTop()
	}
}

// Slug returns the mounted project slug.
func (m *Model) Slug() string {
	return m.slug
}

// Environment returns the environment scope, "" for all.
func (m *Model) Environment() string {
	return m.environment
}

// Update handles messages. tab and shift+tab cycle the environment scope by
// navigating to the neighbouring environment path.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && m.project != nil {
		switch k.String() {
		case "tab":
			return m, routes.Navigate(routes.ProjectPath(m.slug, m.cycle(1)))
		case "shift+tab":
			return m, routes.Navigate(routes.ProjectPath(m.slug, m.cycle(-1)))
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the project view.
func (m Model) View() string {
	return m.viewport.View()
}

// cycle returns the environment dir steps away. The ring is
// ["", env0, env1, ...] so cycling passes through the unscoped view.
func (m *Model) cycle(dir int) string {
	ring := make([]string, 0, len(m.project.Environments)+1)
	ring = append(ring, "")
	for _, e := range m.project.Environments {
		ring = append(ring, e.Name)
	}
	idx := 0
	for i, name := range ring {
		if name == m.environment {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(ring)) % len(ring)
	return ring[idx]
}

func (m *Model) setContent() {
	var b strings.Builder

	if m.project == nil {
		b.WriteString(ui.StyleError.Render("Project not found: "+m.slug) + "\n\n")
		b.WriteString(ui.StyleDim.Render("It may have been removed, or you may not have access to it."))
		m.viewport.SetContent(b.String())
		return
	}

	p := m.project
	b.WriteString(ui.StyleAccent.Render(p.Name))
	b.WriteString("  " + ui.StyleDim.Render(p.Slug) + "\n")
	b.WriteString(ui.StyleDim.Render("────────────────────────────────────────") + "\n\n")

	tabs := []string{m.tab("all", m.environment == "", "")}
	for _, e := range p.Environments {
		tabs = append(tabs, m.tab(e.Name, e.Name == m.environment, e.Color))
	}
	b.WriteString(strings.Join(tabs, " ") + "\n\n")

	if m.environment == "" {
		if len(p.Environments) == 0 {
			b.WriteString(ui.StyleDim.Render("(no environments)"))
		}
		for _, e := range p.Environments {
			b.WriteString(ui.EnvBadge(e.Name, e.Color) + "  " + ui.StyleDim.Render(e.ID) + "\n")
		}
	} else if e, ok := p.Environment(m.environment); ok {
		b.WriteString(ui.StyleDim.Render("Environment: ") + e.Name + "\n")
		b.WriteString(ui.StyleDim.Render("ID:          ") + e.ID + "\n")
		if e.Color != "" {
			b.WriteString(ui.StyleDim.Render("Color:       ") + e.Color + "\n")
		}
	} else {
		b.WriteString(ui.StyleError.Render("Unknown environment: " + m.environment))
	}

	b.WriteString("\n\n" + ui.StyleDim.Render("tab next environment  shift+tab previous"))
	m.viewport.SetContent(b.String())
}

func (m *Model) tab(name string, active bool, color string) string {
	if active {
		return ui.EnvBadge(name, color)
	}
	return ui.StyleDim.Render(" " + name + " ")
}
