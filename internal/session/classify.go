// Package session derives which top-level view to show from the outcome of
// the session query, the connection status and the login redirect flag.
package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/olivoil/codeflow/tui/internal/backend"
)

// Markers the server puts in error text when it has no structured code.
const (
	invalidAccessTokenMarker = "invalid access token"
	recordNotFoundMarker     = "record not found"
)

// ErrorKind is the closed set of query failure classes.
type ErrorKind int

const (
	// ServerProblem is a backend or network fault that must be shown.
	ServerProblem ErrorKind = iota
	// AuthProblem means the credential is stale or invalid.
	AuthProblem
	// RecordNotFound is handled like AuthProblem.
	RecordNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ServerProblem:
		return "server problem"
	case AuthProblem:
		return "auth problem"
	case RecordNotFound:
		return "record not found"
	}
	return "unknown"
}

// Recoverable reports whether the error is fixed by sending the user to login.
func (k ErrorKind) Recoverable() bool {
	return k == AuthProblem || k == RecordNotFound
}

// ErrorInfo is a query error as seen by the reconciler.
type ErrorInfo struct {
	// Code is the server's structured error code, if any.
	Code    string
	Message string
}

func (e ErrorInfo) Error() string { return e.Message }

// String is the text the classifier falls back to.
func (e ErrorInfo) String() string { return e.Message }

var codeKinds = map[string]ErrorKind{
	"UNAUTHENTICATED":      AuthProblem,
	"INVALID_ACCESS_TOKEN": AuthProblem,
	"NOT_FOUND":            RecordNotFound,
	"RECORD_NOT_FOUND":     RecordNotFound,
}

// Classify maps an error to its kind. A known structured code wins; otherwise
// the text is searched for the auth marker, then the not-found marker.
// Anything else is a ServerProblem.
func Classify(e ErrorInfo) ErrorKind {
	if k, ok := codeKinds[strings.ToUpper(e.Code)]; ok {
		return k
	}
	text := e.String()
	switch {
	case strings.Contains(text, invalidAccessTokenMarker):
		return AuthProblem
	case strings.Contains(text, recordNotFoundMarker):
		return RecordNotFound
	}
	return ServerProblem
}

// ErrorInfoFrom converts a query collaborator error. HTTP 401 responses carry
// the UNAUTHENTICATED code.
func ErrorInfoFrom(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Message: err.Error()}

	var gerr *backend.GraphQLError
	var herr *backend.HTTPError
	switch {
	case errors.As(err, &gerr):
		info.Code = gerr.Code
	case errors.As(err, &herr):
		if herr.StatusCode == http.StatusUnauthorized {
			info.Code = "UNAUTHENTICATED"
		}
	}
	return info
}
