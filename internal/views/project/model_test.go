package project

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/routes"
)

var checkout = &backend.Project{
	ID: "p1", Name: "Checkout", Slug: "checkout",
	Environments: []backend.Environment{{ID: "e1", Name: "staging"}, {ID: "e2", Name: "production", Color: "#ff0000"}},
}

func navigateTo(t *testing.T, cmd tea.Cmd) string {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(routes.NavigateMsg)
	require.True(t, ok)
	return msg.Path
}

func TestModel_CycleEnvironments(t *testing.T) {
	m := New()
	m.SetSize(100, 30)
	m.Show("checkout", "", checkout)

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, "/projects/checkout/staging", navigateTo(t, cmd))

	m.Show("checkout", "production", checkout)
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, "/projects/checkout", navigateTo(t, cmd), "wraps through the unscoped view")

	m.Show("checkout", "", checkout)
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	assert.Equal(t, "/projects/checkout/production", navigateTo(t, cmd))
}

func TestModel_View(t *testing.T) {
	m := New()
	m.SetSize(100, 30)

	m.Show("checkout", "staging", checkout)
	assert.Equal(t, "checkout", m.Slug())
	assert.Equal(t, "staging", m.Environment())
	assert.Contains(t, m.View(), "Environment: ")

	m.Show("checkout", "qa", checkout)
	assert.Contains(t, m.View(), "Unknown environment: qa")

	m.Show("gone", "", nil)
	assert.Contains(t, m.View(), "Project not found: gone")
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Nil(t, cmd, "nothing to cycle without a project")
}
