package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Duration accepts either a Go duration string ("800ms") or integer
// nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		d.Duration = time.Duration(val)
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// JSONConfig is the on-disk shape. Pointer fields distinguish "absent" from
// zero values so a partial file only overrides what it names.
type JSONConfig struct {
	Addr           *string   `json:"addr"`
	OpenBrowser    *bool     `json:"open_browser"`
	Autoplay       *bool     `json:"autoplay"`
	WatchDir       *string   `json:"watch_dir"`
	CodeExtensions []string  `json:"code_extensions"`
	HighlightStyle *string   `json:"highlight_style"`
	MarkdownStyle  *string   `json:"markdown_style"`
	ToastDuration  *Duration `json:"toast_duration"`
	FrameInterval  *Duration `json:"frame_interval"`
	SlideInterval  *Duration `json:"slide_interval"`
	LogFile        *string   `json:"log_file"`
	LogLevel       *string   `json:"log_level"`
}

// jsonConfigPath finds -c/-config (also with "--" and "=") in args.
func jsonConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if k, v, ok := strings.Cut(name, "="); ok {
			if k == "c" || k == "config" {
				return v
			}
			continue
		}
		if (name == "c" || name == "config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// parseJSON overlays cfg with values from the JSON file at path. An empty
// path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Addr, jc.Addr)
	setString(&cfg.WatchDir, jc.WatchDir)
	setString(&cfg.HighlightStyle, jc.HighlightStyle)
	setString(&cfg.MarkdownStyle, jc.MarkdownStyle)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.OpenBrowser != nil {
		cfg.OpenBrowser = *jc.OpenBrowser
	}
	if jc.Autoplay != nil {
		cfg.Autoplay = *jc.Autoplay
	}
	if jc.CodeExtensions != nil {
		cfg.CodeExtensions = jc.CodeExtensions
	}
	setDuration(&cfg.ToastDuration, jc.ToastDuration)
	setDuration(&cfg.FrameInterval, jc.FrameInterval)
	setDuration(&cfg.SlideInterval, jc.SlideInterval)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
