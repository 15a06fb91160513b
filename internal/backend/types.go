package backend

import "strings"

// User is the authenticated user returned by the session query.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// Can reports whether the user holds permission p.
// Permissions are matched case-insensitively; "admin" implies every other one.
func (u *User) Can(p string) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Permissions {
		if strings.EqualFold(have, p) || strings.EqualFold(have, "admin") {
			return true
		}
	}
	return false
}

// Environment is a deploy target of a project.
type Environment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Project is a project entry.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Slug         string        `json:"slug"`
	Environments []Environment `json:"environments"`
}

// Environment returns the environment with the given name, if any.
func (p Project) Environment(name string) (Environment, bool) {
	for _, e := range p.Environments {
		if e.Name == name {
			return e, true
		}
	}
	return Environment{}, false
}

// ProjectList is a page of projects.
type ProjectList struct {
	Count   int       `json:"count"`
	Entries []Project `json:"entries"`
}

// Find returns the project with the given slug, if any.
func (l *ProjectList) Find(slug string) (Project, bool) {
	if l == nil {
		return Project{}, false
	}
	for _, p := range l.Entries {
		if p.Slug == slug {
			return p, true
		}
	}
	return Project{}, false
}

// All returns the entries; nil-safe.
func (l *ProjectList) All() []Project {
	if l == nil {
		return nil
	}
	return l.Entries
}

// Slugs returns the slug of every entry, in order.
func (l *ProjectList) Slugs() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.Entries))
	for i, p := range l.Entries {
		out[i] = p.Slug
	}
	return out
}

// ProjectSearch is the ProjectSearchInput query variable.
type ProjectSearch struct {
	Repository string `json:"repository"`
	Bookmarked bool   `json:"bookmarked"`
}

// BookmarkedSearch is the search the session query always uses.
func BookmarkedSearch() ProjectSearch {
	return ProjectSearch{Repository: "", Bookmarked: true}
}

// UserProjects is the data of the session query. Either field may be nil when
// the server returned partial data alongside errors.
type UserProjects struct {
	User     *User        `json:"user"`
	Projects *ProjectList `json:"projects"`
}

// CreateProjectInput is the input of the createProject mutation.
type CreateProjectInput struct {
	Name        string `json:"name"`
	GitURL      string `json:"gitUrl"`
	GitProtocol string `json:"gitProtocol"`
	Bookmarked  bool   `json:"bookmarked"`
}

// GitProtocol infers "SSH" or "HTTPS" from a repository URL.
func GitProtocol(url string) string {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://") {
		return "SSH"
	}
	return "HTTPS"
}
