package command

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/codeflow/tui/internal/routes"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		input string
		kind  RouteKind
		args  []string
	}{
		{"", RouteUnknown, nil},
		{"/projects/checkout", RoutePath, []string{"/projects/checkout"}},
		{"  /admin  ", RoutePath, []string{"/admin"}},
		{"refetch", RouteCommand, []string{"refetch"}},
		{"project checkout staging", RouteCommand, []string{"project", "checkout", "staging"}},
		{"project a b c", RouteUnknown, []string{"project", "a", "b", "c"}},
		{"deploy now", RouteUnknown, []string{"deploy", "now"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := ParseRoute(tt.input)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.args, r.Args)
		})
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter()
	c.SetProjects(map[string][]string{
		"checkout": {"staging", "production"},
		"billing":  {"qa"},
	})

	values := func(cs []Candidate) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Value)
		}
		return out
	}

	assert.Equal(t, []string{"goto", "help", "logout", "project", "quit", "refetch"}, values(c.Complete("")))
	assert.Equal(t, []string{"refetch"}, values(c.Complete("re")))
	assert.Equal(t, []string{"/projects", "/projects/billing", "/projects/checkout"}, values(c.Complete("/pro")))
	assert.Equal(t, []string{"billing", "checkout"}, values(c.Complete("project ")))
	assert.Equal(t, []string{"checkout"}, values(c.Complete("project ch")))
	assert.Equal(t, []string{"staging", "production"}, values(c.Complete("project checkout ")))
	assert.Equal(t, []string{"/admin"}, values(c.Complete("goto /a")))
	assert.Empty(t, c.Complete("refetch "))
}

func TestModel_SubmitPath(t *testing.T) {
	m := New()
	m.SetSize(100, 20)
	m.Focus()
	require.True(t, m.Focused())

	for _, r := range "/admin" {
		m, _ = m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.Focused())
	assert.Equal(t, routes.NavigateMsg{Path: "/admin"}, cmd())
}

func TestModel_UnknownCommand(t *testing.T) {
	m := New()
	m.SetSize(100, 20)
	m.Focus()
	for _, r := range "deploy" {
		m, _ = m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.Focused())
	assert.Contains(t, m.ViewResult(), `unknown command "deploy"`)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, m.Focused())
	assert.Empty(t, m.ViewResult())
}
