package app

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/codeflow/tui/internal/channel"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/session"
	"github.com/olivoil/codeflow/tui/internal/ui"
	"github.com/olivoil/codeflow/tui/internal/views/servererror"
)

const leftNavWidth = 18

type navEntry struct {
	key   string
	label string
	path  string
	kind  routes.Kind
}

var navEntries = []navEntry{
	{"1", "Dashboard", routes.RootPath, routes.Dashboard},
	{"2", "Projects", routes.ProjectsPath, routes.ProjectList},
	{"3", "Create", routes.CreatePath, routes.Create},
	{"4", "Admin", routes.AdminPath, routes.Admin},
}

// View renders the stored session state; it never reconciles.
func (m model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if !m.ready {
		v.SetContent("Loading...")
		return v
	}

	if m.showHelp {
		v.SetContent(m.renderHelpOverlay())
		return v
	}

	st := m.machine.State()
	switch st.Kind {
	case session.Loading:
		v.SetContent(m.loadingView.View())
		return v
	case session.LoginRedirect:
		var b strings.Builder
		b.WriteString(m.renderHeader(st))
		b.WriteString("\n\n")
		b.WriteString(m.loginView.View())
		v.SetContent(b.String())
		return v
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(st))
	b.WriteByte('\n')

	snack := m.renderSnackbar()
	w, h := m.contentSize(snack)
	m.resizeContent(w, h)

	var content string
	switch {
	case m.commandView.ViewResult() != "":
		content = m.commandView.ViewResult()
	case st.Kind == session.ServerError:
		content = servererror.View(m.supportEmail, w, h)
	default:
		content = m.renderRoute()
	}
	content = lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(content)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderLeftNav(h), content))

	if snack != "" {
		b.WriteByte('\n')
		b.WriteString(snack)
	}

	b.WriteByte('\n')
	if m.commandView.Focused() {
		b.WriteString(m.commandView.ViewInput())
	} else {
		b.WriteString(m.renderHelpLine())
	}

	v.SetContent(b.String())
	return v
}

func (m *model) renderRoute() string {
	switch m.route.Kind {
	case routes.Dashboard:
		return m.dashboardView.View()
	case routes.ProjectList:
		return m.projectsView.View()
	case routes.ProjectDetail:
		return m.projectView.View()
	case routes.Create:
		return m.createView.View()
	case routes.Admin:
		return m.adminView.View()
	}
	return ui.StyleError.Render(" Nothing here: "+m.route.Path) + "\n\n" +
		ui.StyleDim.Render(" Press 1 for the dashboard or : to go somewhere else.")
}

func (m *model) renderHeader(st session.State) string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s ", AppName))
	sep := ui.StyleDim.Render("   ")

	parts := []string{title}
	if st.User != nil {
		parts = append(parts, sep, ui.StyleAccent.Render(st.User.Email))
	}
	if st.Projects != nil {
		parts = append(parts, sep, ui.StyleDim.Render(fmt.Sprintf("bookmarked: %d", st.Projects.Count)))
	}
	parts = append(parts, sep, m.renderConnection())

	header := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	bar := ui.StyleDim.Render(strings.Repeat("━", max(m.width, 0)))
	if banner := ui.Banner(m.status.ConnectionHeader(), m.width); banner != "" {
		return header + "\n" + banner + "\n" + bar
	}
	return header + "\n" + bar
}

func (m *model) renderConnection() string {
	switch m.adapter.Status() {
	case channel.Connected, channel.Idle:
		if m.conn != nil && !m.conn.IsOpen() {
			return ui.StyleDim.Render("○ offline")
		}
		return ui.StyleActive.Render("● live")
	case channel.Reconnecting:
		return lipgloss.NewStyle().Foreground(ui.ColorYellow).Render("◌ reconnecting")
	case channel.ReconnectFailed:
		return ui.StyleInactive.Render("○ disconnected")
	}
	return ""
}

func (m *model) renderLeftNav(h int) string {
	var rows []string
	for _, e := range navEntries {
		label := fmt.Sprintf("%s %s", e.key, e.label)
		if e.kind == m.route.Kind {
			rows = append(rows, ui.StyleNavActive.Render(label))
		} else {
			rows = append(rows, ui.StyleNavItem.Render(label))
		}
	}
	return lipgloss.NewStyle().
		Width(leftNavWidth).
		Height(h).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(ui.ColorBorder).
		Render(strings.Join(rows, "\n"))
}

func (m *model) renderSnackbar() string {
	msg, ok := m.status.Snackbar()
	if !ok {
		return ""
	}
	return ui.Snackbar(msg) + ui.StyleDim.Render("  x close")
}

func (m *model) renderHelpLine() string {
	var parts []string
	switch m.route.Kind {
	case routes.Dashboard:
		parts = []string{"↑↓ navigate", "enter open"}
	case routes.ProjectList:
		parts = []string{"↑↓ navigate", "enter open", "f filter"}
	case routes.ProjectDetail:
		parts = []string{"tab environment", "j/k scroll"}
	case routes.Create:
		parts = []string{"tab next field", "enter create", "esc back"}
	}
	parts = append(parts, "1-4 navigate", ": go to", "ctrl+l refetch", "? help", "q quit")
	return ui.StyleDim.Render(" " + strings.Join(parts, "  │  "))
}

func (m *model) renderHelpOverlay() string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s help ", AppName))
	help := `
  Navigation
    1 2 3 4         Dashboard, projects, create, admin
    ↑/↓, j/k        Navigate list
    enter           Open project
    tab             Next environment (project view)
    esc             Back
    q, ctrl+c       Quit

  Go to
    : or /          Open the prompt
    /projects/x     Go to a location
    project x env   Open project x in environment env
    refetch         Reload the session
    logout          Forget the access token

  Other
    ctrl+l          Refetch the session
    ctrl+o          Log out
    x               Dismiss notification
    ?               Toggle this help

  ` + ui.StyleDim.Render("Press ? to close")
	return title + "\n" + help
}

// contentSize returns the routed view's area given the rendered snackbar.
func (m *model) contentSize(snack string) (int, int) {
	headerLines := 2
	if !m.status.ConnectionHeader().Empty() {
		headerLines++
	}
	bottomLines := 1 + m.commandView.MenuHeight()
	if snack != "" {
		bottomLines += lipgloss.Height(snack)
	}
	w := m.width - leftNavWidth - 1
	h := m.height - headerLines - bottomLines
	return max(w, 20), max(h, 5)
}

func (m *model) resizeContent(w, h int) {
	m.dashboardView.SetSize(w, h)
	m.projectsView.SetSize(w, h)
	m.projectView.SetSize(w, h)
	m.createView.SetSize(w, h)
	m.adminView.SetSize(w, h)
	m.commandView.SetSize(m.width, h)
}

func (m *model) layoutViews() {
	w, h := m.contentSize("")
	m.resizeContent(w, h)
	m.loginView.SetSize(m.width, m.height)
	m.loadingView.SetSize(m.width, m.height)
}
