// Package config loads codeflow-tui settings from defaults, the TOML config
// file, CODEFLOW_* environment variables and command-line flags.
package config

import "time"

// Config is the resolved configuration.
type Config struct {
	StateDir string `koanf:"state_dir"`

	Server struct {
		GraphQLURL string `koanf:"graphql_url"`
		ChannelURL string `koanf:"channel_url"`
	} `koanf:"server"`

	Auth struct {
		TokenFile string `koanf:"token_file"`
	} `koanf:"auth"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Channel struct {
		ReconnectAttempts int           `koanf:"reconnect_attempts"`
		ReconnectDelay    time.Duration `koanf:"reconnect_delay"`
		ReconnectDelayMax time.Duration `koanf:"reconnect_delay_max"`
	} `koanf:"channel"`

	Notify struct {
		SnackbarDuration time.Duration `koanf:"snackbar_duration"`
	} `koanf:"notify"`

	Telemetry struct {
		SentryDSN   string `koanf:"sentry_dsn"`
		Environment string `koanf:"environment"`
	} `koanf:"telemetry"`

	Metrics struct {
		Addr string `koanf:"addr"`
	} `koanf:"metrics"`

	Support struct {
		Email string `koanf:"email"`
	} `koanf:"support"`

	Theme struct {
		File string `koanf:"file"`
	} `koanf:"theme"`
}
