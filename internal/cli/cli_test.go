package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/codeflow/tui/internal/app"
	"github.com/olivoil/codeflow/tui/internal/backend"
)

// isolate points every config and state path at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CODEFLOW_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("SENTRY_DSN", "")
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func graphQLServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

const sessionBody = `{"data": {
	"user": {"id": "u1", "email": "dev@example.com", "permissions": []},
	"projects": {"count": 2, "entries": [
		{"id": "p1", "name": "Checkout", "slug": "checkout", "environments": [{"id": "e1", "name": "staging"}, {"id": "e2", "name": "production"}]},
		{"id": "p2", "name": "Billing", "slug": "billing", "environments": []}
	]}
}}`

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, app.AppName+" tui "+app.AppVersion+"\n", out)
}

func TestLoginLogout(t *testing.T) {
	dir := isolate(t)
	tokenFile := filepath.Join(dir, "token")

	out, err := run(t, "", "login", "--token", "abc", "--token-file", tokenFile, "--state-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Token saved to "+tokenFile)
	got, err := backend.NewTokenStore(tokenFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = run(t, "from-stdin\n", "login", "--token-file", tokenFile, "--state-dir", dir)
	require.NoError(t, err)
	got, _ = backend.NewTokenStore(tokenFile).Load()
	assert.Equal(t, "from-stdin", got)

	out, err = run(t, "", "logout", "--token-file", tokenFile, "--state-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))

	_, err = run(t, "", "login", "--token-file", tokenFile, "--state-dir", dir)
	assert.Error(t, err, "empty token is rejected")
}

func TestStatusCommand(t *testing.T) {
	dir := isolate(t)
	ts := graphQLServer(t, sessionBody)

	out, err := run(t, "", "status", "--graphql-url", ts.URL, "--state-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "session: authenticated")
	assert.Contains(t, out, "user:    dev@example.com")
	assert.Contains(t, out, "bookmarked projects: 2")
}

func TestStatusCommand_Login(t *testing.T) {
	dir := isolate(t)
	ts := graphQLServer(t, `{"data": {"user": null, "projects": null},
		"errors": [{"message": "invalid access token"}]}`)

	out, err := run(t, "", "status", "--graphql-url", ts.URL, "--state-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "session: login-redirect")
}

func TestStatusCommand_ServerError(t *testing.T) {
	dir := isolate(t)
	ts := graphQLServer(t, `{"data": null, "errors": [{"message": "database is down"}]}`)

	out, err := run(t, "", "status", "--graphql-url", ts.URL, "--state-dir", dir)
	require.ErrorIs(t, err, ErrServerProblem)
	assert.Contains(t, out, "session: server-error")
	assert.Contains(t, out, "database is down")
}

func TestProjectsCommand(t *testing.T) {
	dir := isolate(t)
	ts := graphQLServer(t, sessionBody)

	out, err := run(t, "", "projects", "--graphql-url", ts.URL, "--state-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Checkout")
	assert.Contains(t, out, "staging, production")
	assert.Contains(t, out, "(2 projects)")

	out, err = run(t, "", "projects", "-o", "json", "--graphql-url", ts.URL, "--state-dir", dir)
	require.NoError(t, err)
	var projects []backend.Project
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "billing", projects[1].Slug)

	_, err = run(t, "", "projects", "-o", "yaml", "--graphql-url", ts.URL, "--state-dir", dir)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestInvalidConfig(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, "", "status", "--channel-url", "http://example.com", "--state-dir", dir)
	assert.Error(t, err)
}
