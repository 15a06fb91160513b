package app

import (
	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/session"
)

// SessionLoadedMsg is sent when a session query returns. Seq is the tag from
// the Sequencer; stale responses are dropped.
type SessionLoadedMsg struct {
	Seq    uint64
	Result session.QueryResult
}

// ProjectsLoadedMsg is sent when the all-projects list is fetched.
type ProjectsLoadedMsg struct {
	Projects *backend.ProjectList
	Err      error
}

// ProjectCreatedMsg is sent when a create mutation completes.
type ProjectCreatedMsg struct {
	Project *backend.Project
	Err     error
}

// TokenSavedMsg is sent after the login form's token was written.
type TokenSavedMsg struct {
	Err error
}

// LoggedOutMsg is sent after the token was cleared.
type LoggedOutMsg struct {
	Err error
}

// SnackbarExpiredMsg hides the snackbar with ID if it is still showing.
type SnackbarExpiredMsg struct {
	ID uint64
}

// channelOpenedMsg reports the result of opening the realtime channel.
type channelOpenedMsg struct {
	Err error
}

// channelClosedMsg is sent once the channel is closed on logout.
type channelClosedMsg struct{}
