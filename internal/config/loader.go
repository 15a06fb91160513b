package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// AppName names the config and state directories.
const AppName = "codeflow"

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: CODEFLOW_SERVER__GRAPHQL_URL -> server.graphql_url.
const EnvPrefix = "CODEFLOW_"

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"graphql-url": "server.graphql_url",
	"channel-url": "server.channel_url",
	"token-file":  "auth.token_file",
	"log-level":   "log.level",
	"log-file":    "log.file",
	"metrics":     "metrics.addr",
	"state-dir":   "state_dir",
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if p := os.Getenv("CODEFLOW_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), AppName, "config.toml")
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return dir
}

func defaultStateDir() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, AppName)
}

func defaults() map[string]any {
	return map[string]any{
		"state_dir":                   defaultStateDir(),
		"server.graphql_url":          "http://localhost:3001/graphql",
		"server.channel_url":          "ws://localhost:3003/ws",
		"auth.token_file":             filepath.Join(configDir(), AppName, "token"),
		"log.level":                   "info",
		"log.file":                    "",
		"channel.reconnect_attempts":  0,
		"channel.reconnect_delay":     "1s",
		"channel.reconnect_delay_max": "5s",
		"notify.snackbar_duration":    "2700ms",
		"telemetry.sentry_dsn":        "",
		"telemetry.environment":       "development",
		"metrics.addr":                "",
		"support.email":               "devops@checkr.com",
		"theme.file":                  filepath.Join(configDir(), AppName, "theme.toml"),
	}
}

// Load resolves the configuration. Precedence, highest first: flags that were
// set, environment, config file, defaults. A missing config file is only an
// error when cfgFile was given explicitly.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", fmt.Errorf("load defaults: %w", err)
	}

	used := cfgFile
	if used == "" {
		used = DefaultConfigPath()
	}
	if _, err := os.Stat(used); err == nil {
		if err := k.Load(file.Provider(used), TOMLParser()); err != nil {
			return nil, "", fmt.Errorf("read config file %s: %w", used, err)
		}
	} else if cfgFile != "" || !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("read config file %s: %w", used, err)
	} else {
		used = ""
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("load env: %w", err)
	}
	// The conventional Sentry variable is honoured when the config has no DSN.
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" && k.String("telemetry.sentry_dsn") == "" {
		if err := k.Set("telemetry.sentry_dsn", dsn); err != nil {
			return nil, "", err
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	cfg.StateDir = expandHome(cfg.StateDir)
	cfg.Auth.TokenFile = expandHome(cfg.Auth.TokenFile)
	cfg.Theme.File = expandHome(cfg.Theme.File)
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.StateDir, AppName+"-tui.log")
	}
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.GraphQLURL == "" {
		errs = append(errs, errors.New("server.graphql_url is required"))
	}
	if c.Server.ChannelURL == "" {
		errs = append(errs, errors.New("server.channel_url is required"))
	} else if !strings.HasPrefix(c.Server.ChannelURL, "ws://") && !strings.HasPrefix(c.Server.ChannelURL, "wss://") {
		errs = append(errs, fmt.Errorf("server.channel_url must be a ws:// or wss:// URL, got %q", c.Server.ChannelURL))
	}
	if c.Channel.ReconnectAttempts < 0 {
		errs = append(errs, errors.New("channel.reconnect_attempts must be >= 0"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// tomlParser adapts BurntSushi/toml to koanf's Parser interface.
type tomlParser struct{}

// TOMLParser returns a koanf parser for TOML documents.
func TOMLParser() koanf.Parser { return tomlParser{} }

func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if _, err := toml.Decode(string(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(m); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
