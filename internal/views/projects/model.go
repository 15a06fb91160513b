package projects

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// Model lists every project the user can see, with an optional filter.
type Model struct {
	table      table.Model
	filter     textinput.Model
	filtering  bool
	all        []backend.Project
	shown      []backend.Project
	bookmarked map[string]bool
	loading    bool
	err        error
	width      int
	height     int
}

// New creates a new projects view model.
func New() Model {
	cols := []table.Column{
		{Title: " ", Width: 2},
		{Title: "project", Width: 24},
		{Title: "slug", Width: 24},
		{Title: "environments", Width: 30},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(ui.TableStyles())

	fi := textinput.New()
	fi.Prompt = "filter: "
	fi.Placeholder = "name or slug"
	fi.CharLimit = 64

	return Model{
		table:  t,
		filter: fi,
	}
}

// SetLoading marks a fetch in flight. Existing rows stay visible.
func (m *Model) SetLoading() {
	m.loading = true
}

// SetProjects stores a fetch result. bookmarked marks the rows that are
// also on the dashboard.
func (m *Model) SetProjects(list *backend.ProjectList, bookmarked *backend.ProjectList, err error) {
	m.loading = false
	m.err = err
	if err != nil {
		return
	}
	m.all = nil
	if list != nil {
		m.all = list.Entries
	}
	m.bookmarked = map[string]bool{}
	for _, slug := range bookmarked.Slugs() {
		m.bookmarked[slug] = true
	}
	m.applyFilter()
}

// Slugs returns every known project slug.
func (m *Model) Slugs() []string {
	out := make([]string, len(m.all))
	for i, p := range m.all {
		out[i] = p.Slug
	}
	return out
}

// Find returns a project by slug.
func (m *Model) Find(slug string) *backend.Project {
	for i := range m.all {
		if m.all[i].Slug == slug {
			return &m.all[i]
		}
	}
	return nil
}

// Filtering reports whether the filter input has focus.
func (m *Model) Filtering() bool {
	return m.filtering
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w)
	m.table.SetHeight(h - 2)
	m.filter.SetWidth(w - 10)

	envW := w - 2 - 24 - 24 - 8
	if envW < 12 {
		envW = 12
	}
	cols := m.table.Columns()
	if len(cols) == 4 {
		cols[3].Width = envW
		m.table.SetColumns(cols)
	}
}

// Selected returns the project under the cursor, if any.
func (m *Model) Selected() *backend.Project {
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(m.shown) {
		return &m.shown[idx]
	}
	return nil
}

// Update handles messages for the projects view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		if m.filtering {
			switch k.String() {
			case "esc":
				m.filtering = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.applyFilter()
				return m, nil
			case "enter":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch k.String() {
		case "f":
			m.filtering = true
			return m, m.filter.Focus()
		case "enter":
			if p := m.Selected(); p != nil {
				return m, routes.Navigate(routes.ProjectPath(p.Slug, ""))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the projects view.
func (m Model) View() string {
	var b strings.Builder

	header := ui.StyleHeader.Render(fmt.Sprintf(" All projects (%d)", len(m.all)))
	if m.loading {
		header += ui.StyleDim.Render("  refreshing…")
	}
	b.WriteString(header + "\n")

	switch {
	case m.err != nil:
		b.WriteString(ui.StyleError.Render(" Could not load projects: " + m.err.Error()))
	case m.filtering || m.filter.Value() != "":
		b.WriteString(" " + m.filter.View())
	default:
		b.WriteString(ui.StyleDim.Render(" ★ bookmarked  f filter  enter open"))
	}
	b.WriteByte('\n')

	if len(m.shown) == 0 && !m.loading && m.err == nil {
		b.WriteString(ui.StyleDim.Render(" No projects match."))
		return b.String()
	}
	b.WriteString(m.table.View())
	return b.String()
}

func (m *Model) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	var shown []backend.Project
	for _, p := range m.all {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Slug), q) {
			shown = append(shown, p)
		}
	}
	m.shown = shown

	rows := make([]table.Row, len(m.shown))
	for i, p := range m.shown {
		mark := ""
		if m.bookmarked[p.Slug] {
			mark = "★"
		}
		envs := make([]string, len(p.Environments))
		for j, e := range p.Environments {
			envs[j] = e.Name
		}
		rows[i] = table.Row{mark, p.Name, p.Slug, strings.Join(envs, ", ")}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}
