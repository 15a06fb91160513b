package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Load() (string, error) { return string(s), nil }

type recordedRequest struct {
	Header http.Header
	Body   gqlRequest
}

func newGraphQLServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Header = r.Header.Clone()
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &rec.Body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(ts.Close)
	return ts, rec
}

func TestClient_UserProjects(t *testing.T) {
	ts, rec := newGraphQLServer(t, http.StatusOK, `{
		"data": {
			"user": {"id": "u1", "email": "dev@example.com", "permissions": ["projects/read"]},
			"projects": {"count": 1, "entries": [
				{"id": "p1", "name": "Checkout", "slug": "acme/checkout",
				 "environments": [{"id": "e1", "name": "production", "color": "red"}]}
			]}
		}
	}`)

	c := NewClient(ts.URL, staticTokens("tok-123"))
	got, err := c.UserProjects(context.Background(), BookmarkedSearch())
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "dev@example.com", got.User.Email)
	require.NotNil(t, got.Projects)
	assert.Equal(t, 1, got.Projects.Count)
	assert.Equal(t, "production", got.Projects.Entries[0].Environments[0].Name)

	assert.Equal(t, "Bearer tok-123", rec.Header.Get("Authorization"))
	assert.Equal(t, "no-cache", rec.Header.Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header.Get("X-Request-ID"))
	assert.Equal(t, "UserProjects", rec.Body.OperationName)
	search, ok := rec.Body.Variables["projectSearch"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "", search["repository"])
	assert.Equal(t, true, search["bookmarked"])
}

func TestClient_UserProjectsPartialDataWithErrors(t *testing.T) {
	ts, _ := newGraphQLServer(t, http.StatusOK, `{
		"data": {"user": null, "projects": {"count": 0, "entries": []}},
		"errors": [
			{"message": "invalid access token", "extensions": {"code": "UNAUTHENTICATED"}},
			{"message": "second"}
		]
	}`)

	got, err := NewClient(ts.URL, nil).UserProjects(context.Background(), BookmarkedSearch())
	require.Error(t, err)
	require.NotNil(t, got, "partial data is returned alongside errors")
	assert.Nil(t, got.User)
	require.NotNil(t, got.Projects)

	var gerr *GraphQLError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "UNAUTHENTICATED", gerr.Code)
	assert.Equal(t, []string{"invalid access token", "second"}, gerr.Messages)
	assert.Contains(t, err.Error(), "invalid access token")
}

func TestClient_UserProjectsHTTPError(t *testing.T) {
	ts, _ := newGraphQLServer(t, http.StatusUnauthorized, "invalid access token\n")

	got, err := NewClient(ts.URL, nil).UserProjects(context.Background(), BookmarkedSearch())
	assert.Nil(t, got)
	var herr *HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusUnauthorized, herr.StatusCode)
	assert.Contains(t, err.Error(), "invalid access token")
}

func TestClient_UserProjectsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	got, err := NewClient(url, nil).UserProjects(context.Background(), BookmarkedSearch())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}

func TestClient_NoTokenNoAuthorizationHeader(t *testing.T) {
	ts, rec := newGraphQLServer(t, http.StatusOK, `{"data": {"user": null, "projects": null}}`)
	_, err := NewClient(ts.URL, staticTokens("")).UserProjects(context.Background(), BookmarkedSearch())
	require.NoError(t, err)
	assert.Empty(t, rec.Header.Get("Authorization"))
}

func TestClient_AllProjects(t *testing.T) {
	ts, rec := newGraphQLServer(t, http.StatusOK, `{"data": {"projects": {"count": 2, "entries": [
		{"id": "p1", "name": "A", "slug": "a"}, {"id": "p2", "name": "B", "slug": "b"}
	]}}}`)

	got, err := NewClient(ts.URL, nil).AllProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Slugs())
	search := rec.Body.Variables["projectSearch"].(map[string]any)
	assert.Equal(t, false, search["bookmarked"])
}

func TestClient_CreateProject(t *testing.T) {
	ts, rec := newGraphQLServer(t, http.StatusOK, `{"data": {"createProject":
		{"id": "p9", "name": "api", "slug": "acme/api", "environments": []}}}`)

	p, err := NewClient(ts.URL, nil).CreateProject(context.Background(), CreateProjectInput{
		Name:   "api",
		GitURL: "git@github.com:acme/api.git",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme/api", p.Slug)

	in := rec.Body.Variables["project"].(map[string]any)
	assert.Equal(t, "SSH", in["gitProtocol"])
}

func TestClient_CreateProjectError(t *testing.T) {
	ts, _ := newGraphQLServer(t, http.StatusOK, `{"data": null, "errors": [{"message": "name taken"}]}`)
	_, err := NewClient(ts.URL, nil).CreateProject(context.Background(), CreateProjectInput{Name: "api"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name taken")
}

func TestGitProtocol(t *testing.T) {
	assert.Equal(t, "SSH", GitProtocol("git@github.com:acme/api.git"))
	assert.Equal(t, "SSH", GitProtocol("ssh://git@github.com/acme/api.git"))
	assert.Equal(t, "HTTPS", GitProtocol("https://github.com/acme/api.git"))
}

func TestUser_Can(t *testing.T) {
	var nobody *User
	assert.False(t, nobody.Can("admin"))

	u := &User{Permissions: []string{"projects/read"}}
	assert.True(t, u.Can("Projects/Read"))
	assert.False(t, u.Can("admin"))

	admin := &User{Permissions: []string{"admin"}}
	assert.True(t, admin.Can("projects/write"))
}

func TestProjectList_Find(t *testing.T) {
	var none *ProjectList
	_, ok := none.Find("x")
	assert.False(t, ok)
	assert.Nil(t, none.Slugs())

	l := &ProjectList{Entries: []Project{{Slug: "a", Environments: []Environment{{Name: "staging"}}}}}
	p, ok := l.Find("a")
	require.True(t, ok)
	_, ok = p.Environment("staging")
	assert.True(t, ok)
	_, ok = p.Environment("production")
	assert.False(t, ok)
}
