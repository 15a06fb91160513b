package create

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/codeflow/tui/internal/backend"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	return m
}

func TestModel_Validate(t *testing.T) {
	m := New()
	_, err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "repository is required")
}

func TestModel_Submit(t *testing.T) {
	m := New()
	m.SetSize(100, 20)
	m.Focus()

	m = typeText(m, "payments")
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m = typeText(m, "https://github.com/acme/payments.git")
	m, _ = m.Update(tea.KeyPressMsg{Code: 'b', Mod: tea.ModCtrl})

	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())
	assert.Equal(t, SubmitMsg{Input: backend.CreateProjectInput{
		Name:        "payments",
		GitURL:      "https://github.com/acme/payments.git",
		GitProtocol: backend.GitProtocol("https://github.com/acme/payments.git"),
		Bookmarked:  false,
	}}, cmd())

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd, "no double submit while busy")

	m.SetResult(nil)
	assert.False(t, m.Busy())
	_, err := m.Validate()
	assert.Error(t, err, "form is cleared after success")
}

func TestModel_SubmitInvalid(t *testing.T) {
	m := New()
	m.Focus()
	m = typeText(m, "payments")
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Busy())
	assert.Contains(t, m.View(), "repository is required")
}
