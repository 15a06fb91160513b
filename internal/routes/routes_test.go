package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"/", Route{Kind: Dashboard, Path: "/"}},
		{"", Route{Kind: Dashboard, Path: "/"}},
		{"/projects", Route{Kind: ProjectList, Path: "/projects"}},
		{"projects/", Route{Kind: ProjectList, Path: "/projects"}},
		{"/create", Route{Kind: Create, Path: "/create"}},
		{"/admin", Route{Kind: Admin, Path: "/admin"}},
		{"/admin/users/42", Route{Kind: Admin, Path: "/admin/users/42"}},
		{"/login", Route{Kind: Login, Path: "/login"}},
		{"/projects/checkout", Route{Kind: ProjectDetail, Path: "/projects/checkout", Slug: "checkout"}},
		{"/projects/checkout/staging", Route{Kind: ProjectDetail, Path: "/projects/checkout/staging", Slug: "checkout", Environment: "staging"}},
		{"/projects/acme%2Fcheckout/production", Route{Kind: ProjectDetail, Path: "/projects/acme%2Fcheckout/production", Slug: "acme/checkout", Environment: "production"}},
		{"/projects/checkout/staging/extra", Route{Kind: ProjectDetail, Path: "/projects/checkout/staging/extra", Slug: "checkout", Environment: "staging"}},
		{"/projects/checkout/staging/a/b", Route{Kind: ProjectDetail, Path: "/projects/checkout/staging/a/b", Slug: "checkout", Environment: "staging"}},
		{"/nope", Route{Kind: NotFound, Path: "/nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.path))
		})
	}
}

func TestProjectPath_RoundTrip(t *testing.T) {
	p := ProjectPath("acme/checkout", "")
	assert.Equal(t, "/projects/acme%2Fcheckout", p)
	r := Match(p)
	assert.Equal(t, ProjectDetail, r.Kind)
	assert.Equal(t, "acme/checkout", r.Slug)
	assert.Empty(t, r.Environment)

	r = Match(ProjectPath("acme/checkout", "production"))
	assert.Equal(t, "production", r.Environment)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "/", Clean("//"))
	assert.Equal(t, "/create", Clean("  create  "))
	assert.Equal(t, "/projects", Clean("/projects///"))
}

func TestLoginRedirect(t *testing.T) {
	loc := LoginRedirect("/projects/checkout")
	assert.Equal(t, LoginPath, loc.Path)
	assert.Equal(t, "/projects/checkout", loc.ReturnPath())

	assert.Equal(t, RootPath, LoginRedirect("/login").ReturnPath(), "never return to login itself")
	assert.Equal(t, RootPath, Location{Path: LoginPath}.ReturnPath())
}

func TestNavigate(t *testing.T) {
	cmd := Navigate("/create")
	require.NotNil(t, cmd)
	assert.Equal(t, NavigateMsg{Path: "/create"}, cmd())
}

func TestHistory(t *testing.T) {
	h := NewHistory("/")
	_, ok := h.Back()
	assert.False(t, ok)

	h.Push("/projects")
	h.Push("/projects")
	h.Push("/projects/a")
	assert.Equal(t, "/projects/a", h.Current())

	h.Replace("/projects/a/staging")
	assert.Equal(t, "/projects/a/staging", h.Current())

	prev, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/projects", prev)
	prev, ok = h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/", prev)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "dashboard", Dashboard.String())
	assert.Equal(t, "project", ProjectDetail.String())
	assert.Equal(t, "not-found", NotFound.String())
}
