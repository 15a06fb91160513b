package command

import "strings"

// RouteKind identifies how an input line is handled.
type RouteKind int

const (
	RouteUnknown RouteKind = iota
	RoutePath              // a location such as /projects/checkout
	RouteCommand           // a known command such as "goto" or "refetch"
)

// Route represents a parsed command input.
type Route struct {
	Kind RouteKind
	Args []string
	Raw  string
}

// known commands and how many arguments they take at most.
var commandTree = map[string]int{
	"goto":    1,
	"project": 2,
	"refetch": 0,
	"logout":  0,
	"help":    0,
	"quit":    0,
}

// ParseRoute decides whether input is a path, a command or neither.
func ParseRoute(input string) Route {
	input = strings.TrimSpace(input)
	if input == "" {
		return Route{Kind: RouteUnknown, Raw: input}
	}

	if strings.HasPrefix(input, "/") {
		return Route{Kind: RoutePath, Args: []string{input}, Raw: input}
	}

	parts := strings.Fields(input)
	maxArgs, ok := commandTree[parts[0]]
	if !ok || len(parts)-1 > maxArgs {
		return Route{Kind: RouteUnknown, Args: parts, Raw: input}
	}
	return Route{Kind: RouteCommand, Args: parts, Raw: input}
}
