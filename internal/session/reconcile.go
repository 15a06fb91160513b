package session

import (
	"fmt"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/channel"
)

// NetworkStatus mirrors the query collaborator's request status codes.
type NetworkStatus int

const (
	NetworkLoading      NetworkStatus = 1
	NetworkSetVariables NetworkStatus = 2
	NetworkFetchMore    NetworkStatus = 3
	NetworkRefetch      NetworkStatus = 4
	NetworkPoll         NetworkStatus = 6
	NetworkReady        NetworkStatus = 7
	// NetworkError is the "errored/exhausted" sentinel.
	NetworkError NetworkStatus = 8
)

// QueryResult is the outcome of the one outstanding session query.
type QueryResult struct {
	Loading       bool
	NetworkStatus NetworkStatus
	Err           *ErrorInfo
	User          *backend.User
	Projects      *backend.ProjectList
}

// Pending is the result before the first response arrives.
func Pending() QueryResult {
	return QueryResult{Loading: true, NetworkStatus: NetworkLoading}
}

// ResultFrom builds a QueryResult from a UserProjects response. A nil data
// with an error is a network failure; data with an error is a partial result.
func ResultFrom(data *backend.UserProjects, err error) QueryResult {
	q := QueryResult{NetworkStatus: NetworkReady, Err: ErrorInfoFrom(err)}
	if data == nil {
		if err != nil {
			q.NetworkStatus = NetworkError
		}
		return q
	}
	q.User = data.User
	q.Projects = data.Projects
	return q
}

// Kind is the top-level view to render.
type Kind int

const (
	ServerError Kind = iota
	Loading
	LoginRedirect
	Authenticated
)

func (k Kind) String() string {
	switch k {
	case ServerError:
		return "server-error"
	case Loading:
		return "loading"
	case LoginRedirect:
		return "login-redirect"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the derived session state. User and Projects are set only for
// Authenticated.
type State struct {
	Kind     Kind
	User     *backend.User
	Projects *backend.ProjectList
}

// Reconcile picks exactly one state; first match wins:
//
//  1. an error classified as ServerProblem
//  2. the NetworkError sentinel, unless the error was classified recoverable
//  3. loading
//  4. the redirect-to-login flag
//  5. no user
//  6. authenticated
//
// The connection status never changes the outcome: channel faults only touch
// the status banner.
func Reconcile(q QueryResult, _ channel.Status, redirectToLogin bool) State {
	recoverable := false
	if q.Err != nil {
		kind := Classify(*q.Err)
		if !kind.Recoverable() {
			return State{Kind: ServerError}
		}
		recoverable = true
	}
	if q.NetworkStatus == NetworkError && !recoverable {
		return State{Kind: ServerError}
	}
	if q.Loading {
		return State{Kind: Loading}
	}
	if redirectToLogin || q.User == nil {
		return State{Kind: LoginRedirect}
	}
	return State{Kind: Authenticated, User: q.User, Projects: q.Projects}
}
