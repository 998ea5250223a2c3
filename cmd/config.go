package cmd

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jsphweid/chordscroll/autoscroll"
	"github.com/jsphweid/chordscroll/clock"
	"github.com/jsphweid/chordscroll/constants"
	"github.com/jsphweid/chordscroll/session"
)

// ServerConfig tunes the serve command. Every field has a working default,
// so a config file is optional.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ContextRatio   float64  `yaml:"context_ratio"`
	ScrollSeconds  float64  `yaml:"scroll_seconds"`
	DebounceMs     int      `yaml:"debounce_ms"`
}

var serverConfig = defaultServerConfig()

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:          constants.GetAddr(),
		ContextRatio:  constants.DefaultContextRatio,
		ScrollSeconds: constants.DefaultScrollSeconds,
		DebounceMs:    int(constants.DefaultDebounce / time.Millisecond),
	}
}

// LoadConfig overlays the yaml file named by CHORDSCROLL_CONFIG, if any, on
// top of the defaults.
func LoadConfig() {
	path := constants.GetConfigPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic("Could not read config file: " + err.Error())
	}
	cfg := defaultServerConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic("Could not parse config file: " + err.Error())
	}
	serverConfig = cfg
}

func newSessionConfig(view autoscroll.Viewport, unlock clock.UnlockFunc) session.Config {
	return session.Config{
		Viewport:      view,
		Unlock:        unlock,
		ContextRatio:  serverConfig.ContextRatio,
		ScrollSeconds: serverConfig.ScrollSeconds,
		Debounce:      time.Duration(serverConfig.DebounceMs) * time.Millisecond,
	}
}
