// Package config holds trove's runtime settings.
//
// Settings are layered: defaults, then a JSON file named by -c/-config, then
// command-line flags. Later sources take precedence over earlier ones.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zackbart/trove/internal/classify"
)

// Config holds runtime settings.
//
// Fields:
//   - Addr: loopback host:port for the sandbox host (port 0 picks one).
//   - OpenBrowser: launch the system browser when a surface is presented.
//   - Autoplay: start audio playback when an audio file is opened.
//   - WatchDir: drop folder whose new files are imported automatically.
//   - CodeExtensions: extensions treated as plain code.
//   - ToastDuration: how long mute/volume confirmations stay visible.
//   - FrameInterval: redraw interval of the audio visualisation.
//   - SlideInterval: image slideshow step while playing.
type Config struct {
	Addr           string
	OpenBrowser    bool
	Autoplay       bool
	WatchDir       string
	CodeExtensions []string
	HighlightStyle string
	MarkdownStyle  string
	ToastDuration  time.Duration
	FrameInterval  time.Duration
	SlideInterval  time.Duration
	LogFile        string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Addr = "127.0.0.1:0"
	c.OpenBrowser = true
	c.Autoplay = true
	c.WatchDir = ""
	c.CodeExtensions = append([]string(nil), classify.DefaultCodeExtensions...)
	c.HighlightStyle = "nord"
	c.MarkdownStyle = "dark"
	c.ToastDuration = 800 * time.Millisecond
	c.FrameInterval = time.Second / 30
	c.SlideInterval = 3 * time.Second
	c.LogFile = filepath.Join(os.TempDir(), "trove.log")
	c.LogLevel = "info"
}

// Load constructs a Config from args (without the program name) and returns
// the remaining positional arguments, which are paths to import.
func Load(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, jsonConfigPath(args)); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

var ErrInvalid = errors.New("invalid config")

// Validate rejects settings the UI cannot run with. Timer intervals must be
// positive: a zero interval would reschedule ticks back to back.
func (c *Config) Validate() error {
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"toast_duration", c.ToastDuration},
		{"frame_interval", c.FrameInterval},
		{"slide_interval", c.SlideInterval},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, d.name, d.v)
		}
	}
	return nil
}
