package command

import (
	"sort"
	"strings"

	"github.com/olivoil/codeflow/tui/internal/routes"
)

// Candidate is a completion option with a description.
type Candidate struct {
	Value string // the text to insert
	Desc  string // short description
}

// Completer provides live completion for the command line.
type Completer struct {
	slugs []string
	envs  map[string][]string
}

// NewCompleter creates a completer.
func NewCompleter() *Completer {
	return &Completer{envs: map[string][]string{}}
}

// SetProjects updates the known project slugs and their environments.
func (c *Completer) SetProjects(envs map[string][]string) {
	c.envs = envs
	c.slugs = c.slugs[:0]
	for slug := range envs {
		c.slugs = append(c.slugs, slug)
	}
	sort.Strings(c.slugs)
}

type cmdEntry struct {
	desc string
}

var commands = map[string]cmdEntry{
	"goto":    {desc: "Go to a location"},
	"project": {desc: "Open a project [environment]"},
	"refetch": {desc: "Reload the session"},
	"logout":  {desc: "Forget the access token"},
	"help":    {desc: "Show help"},
	"quit":    {desc: "Quit"},
}

var locations = []Candidate{
	{routes.RootPath, "dashboard"},
	{routes.ProjectsPath, "all projects"},
	{routes.CreatePath, "create a project"},
	{routes.AdminPath, "admin area"},
}

// Complete returns candidates for the current input.
func (c *Completer) Complete(input string) []Candidate {
	parts := strings.Fields(input)
	trailing := strings.HasSuffix(input, " ")

	if len(parts) == 0 {
		return c.topLevelCandidates("")
	}
	if len(parts) == 1 && !trailing {
		if strings.HasPrefix(parts[0], "/") {
			return c.pathCandidates(parts[0])
		}
		return c.topLevelCandidates(parts[0])
	}

	// prefix is the word being typed, n its position (1-based after the command).
	prefix := ""
	n := len(parts)
	if !trailing {
		prefix = parts[len(parts)-1]
		n--
	}

	switch parts[0] {
	case "goto":
		if n == 1 {
			return c.pathCandidates(prefix)
		}
	case "project":
		switch n {
		case 1:
			return c.dynamicCandidates(c.slugs, prefix, "project")
		case 2:
			return c.dynamicCandidates(c.envs[parts[1]], prefix, "environment")
		}
	}
	return nil
}

func (c *Completer) topLevelCandidates(prefix string) []Candidate {
	keys := make([]string, 0, len(commands))
	for k := range commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []Candidate
	for _, k := range keys {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			result = append(result, Candidate{Value: k, Desc: commands[k].desc})
		}
	}
	return result
}

func (c *Completer) pathCandidates(prefix string) []Candidate {
	var result []Candidate
	for _, l := range locations {
		if prefix == "" || strings.HasPrefix(l.Value, prefix) {
			result = append(result, l)
		}
	}
	for _, slug := range c.slugs {
		p := routes.ProjectPath(slug, "")
		if prefix != "" && strings.HasPrefix(p, prefix) {
			result = append(result, Candidate{Value: p, Desc: "project"})
		}
	}
	return result
}

func (c *Completer) dynamicCandidates(items []string, prefix, kind string) []Candidate {
	var result []Candidate
	for _, item := range items {
		if prefix == "" || strings.HasPrefix(item, prefix) {
			result = append(result, Candidate{Value: item, Desc: kind})
		}
	}
	return result
}
