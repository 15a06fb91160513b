package dashboard

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

const (
	previewWidthFrac = 0.4
	minPreviewWidth  = 30
)

// Model is the dashboard: bookmarked projects with a preview pane.
type Model struct {
	table    table.Model
	preview  viewport.Model
	projects []backend.Project
	width    int
	height   int
}

// New creates a new dashboard view model.
func New() Model {
	cols := []table.Column{
		{Title: "project", Width: 24},
		{Title: "slug", Width: 24},
		{Title: "envs", Width: 5},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(ui.TableStyles())

	vp := viewport.New(viewport.WithWidth(40), viewport.WithHeight(10))

	return Model{
		table:   t,
		preview: vp,
	}
}

// SetProjects replaces the bookmarked projects and rebuilds the rows.
func (m *Model) SetProjects(projects []backend.Project) {
	m.projects = projects
	rows := make([]table.Row, len(projects))
	for i, p := range projects {
		rows[i] = table.Row{
			p.Name,
			p.Slug,
			fmt.Sprintf("%d", len(p.Environments)),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
	m.renderPreview()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	previewW := m.previewWidth()
	tableW := w - previewW - 3

	m.table.SetWidth(tableW)
	m.table.SetHeight(h)
	m.preview.SetWidth(previewW)
	m.preview.SetHeight(h)

	nameW := tableW - 24 - 5 - 4
	if nameW < 10 {
		nameW = 10
	}
	cols := m.table.Columns()
	if len(cols) == 3 {
		cols[0].Width = nameW
		m.table.SetColumns(cols)
	}
}

// Selected returns the project under the cursor, if any.
func (m *Model) Selected() *backend.Project {
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(m.projects) {
		return &m.projects[idx]
	}
	return nil
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == "enter" {
		if p := m.Selected(); p != nil {
			return m, routes.Navigate(routes.ProjectPath(p.Slug, ""))
		}
		return m, nil
	}
	prev := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != prev {
		m.renderPreview()
	}
	return m, cmd
}

// View renders the table and preview side by side.
func (m Model) View() string {
	if len(m.projects) == 0 {
		return ui.StyleDim.Render(" No bookmarked projects yet. Press : and type /projects to browse, or /create to add one.")
	}
	previewView := ui.StylePreviewBorder.
		Width(m.previewWidth()).
		Height(m.height).
		Render(m.preview.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), previewView)
}

func (m *Model) previewWidth() int {
	pw := int(float64(m.width) * previewWidthFrac)
	if pw < minPreviewWidth {
		pw = minPreviewWidth
	}
	return pw
}

func (m *Model) renderPreview() {
	p := m.Selected()
	if p == nil {
		m.preview.SetContent(ui.StyleDim.Render("No project selected"))
		return
	}

	var b strings.Builder
	b.WriteString(ui.StyleAccent.Render("Project: ") + p.Name + "\n")
	b.WriteString(ui.StyleDim.Render("Slug:    ") + p.Slug + "\n")
	b.WriteString(ui.StyleDim.Render("ID:      ") + p.ID + "\n\n")
	if len(p.Environments) == 0 {
		b.WriteString(ui.StyleDim.Render("(no environments)"))
	} else {
		badges := make([]string, len(p.Environments))
		for i, e := range p.Environments {
			badges[i] = ui.EnvBadge(e.Name, e.Color)
		}
		b.WriteString(strings.Join(badges, " "))
	}
	b.WriteString("\n\n" + ui.StyleDim.Render("enter open"))
	m.preview.SetContent(b.String())
	m.preview.GotoTop()
}
