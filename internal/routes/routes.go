// Package routes maps in-app locations to views using chi's route tree.
package routes

import (
	"net/http"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/go-chi/chi/v5"
)

// Kind identifies the view mounted for a location.
type Kind int

const (
	NotFound Kind = iota
	Dashboard
	ProjectList
	Create
	Admin
	ProjectDetail
	Login
)

func (k Kind) String() string {
	switch k {
	case Dashboard:
		return "dashboard"
	case ProjectList:
		return "projects"
	case Create:
		return "create"
	case Admin:
		return "admin"
	case ProjectDetail:
		return "project"
	case Login:
		return "login"
	}
	return "not-found"
}

// Paths.
const (
	RootPath     = "/"
	ProjectsPath = "/projects"
	CreatePath   = "/create"
	AdminPath    = "/admin"
	LoginPath    = "/login"
)

// Route is a matched location.
type Route struct {
	Kind        Kind
	Path        string
	Slug        string
	Environment string
}

// ProjectPath builds /projects/:slug[/:environment]. Slugs may contain a
// slash (org/name); it is escaped so the route tree sees one segment.
func ProjectPath(slug, environment string) string {
	p := ProjectsPath + "/" + escapeSegment(slug)
	if environment != "" {
		p += "/" + escapeSegment(environment)
	}
	return p
}

var patterns = map[string]Kind{
	"/":                              Dashboard,
	"/projects":                      ProjectList,
	"/create":                        Create,
	"/admin":                         Admin,
	"/admin/*":                       Admin,
	"/projects/{slug}":               ProjectDetail,
	"/projects/{slug}/{environment}": ProjectDetail,
	// Trailing segments below an environment still open the project.
	"/projects/{slug}/{environment}/*": ProjectDetail,
	"/login":                           Login,
}

var tree = func() *chi.Mux {
	mux := chi.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	for p := range patterns {
		mux.Get(p, noop)
	}
	return mux
}()

// Match resolves path. Unknown paths resolve to NotFound.
func Match(path string) Route {
	path = Clean(path)
	rctx := chi.NewRouteContext()
	pattern := tree.Find(rctx, http.MethodGet, path)
	kind, ok := patterns[pattern]
	if !ok {
		return Route{Kind: NotFound, Path: path}
	}
	r := Route{Kind: kind, Path: path}
	if kind == ProjectDetail {
		r.Slug = unescapeSegment(rctx.URLParam("slug"))
		r.Environment = unescapeSegment(rctx.URLParam("environment"))
	}
	return r
}

// Clean normalizes a typed path: leading slash, no trailing slash.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = RootPath
	}
	return path
}

func escapeSegment(s string) string {
	return strings.ReplaceAll(s, "/", "%2F")
}

func unescapeSegment(s string) string {
	return strings.ReplaceAll(s, "%2F", "/")
}

// Location is a navigation target. From is set on the login redirect so the
// user returns where they were after logging in.
type Location struct {
	Path string
	From string
}

// LoginRedirect builds the login location carrying from.
func LoginRedirect(from string) Location {
	from = Clean(from)
	if from == LoginPath {
		from = RootPath
	}
	return Location{Path: LoginPath, From: from}
}

// ReturnPath is where to go after a successful login.
func (l Location) ReturnPath() string {
	if l.From == "" || l.From == LoginPath {
		return RootPath
	}
	return l.From
}

// NavigateMsg asks the root model to change location.
type NavigateMsg struct {
	Path string
}

// Navigate returns a command emitting NavigateMsg.
func Navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// History is a back stack of visited paths.
type History struct {
	stack []string
}

// NewHistory starts at path.
func NewHistory(path string) *History {
	return &History{stack: []string{Clean(path)}}
}

// Current returns the current path.
func (h *History) Current() string {
	return h.stack[len(h.stack)-1]
}

// Push visits path. Visiting the current path again is a no-op.
func (h *History) Push(path string) {
	path = Clean(path)
	if path == h.Current() {
		return
	}
	h.stack = append(h.stack, path)
}

// Replace swaps the current path without growing the stack.
func (h *History) Replace(path string) {
	h.stack[len(h.stack)-1] = Clean(path)
}

// Back pops the current path; the first entry is never popped.
func (h *History) Back() (string, bool) {
	if len(h.stack) < 2 {
		return h.Current(), false
	}
	h.stack = h.stack[:len(h.stack)-1]
	return h.Current(), true
}
