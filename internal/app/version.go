package app

// Set at build time with -ldflags "-X github.com/olivoil/codeflow/tui/internal/app.AppVersion=...".
var (
	AppName    = "codeflow"
	AppVersion = "dev"
)
