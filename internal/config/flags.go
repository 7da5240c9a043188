package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// parseFlags populates cfg from command-line flags and returns the
// positional arguments.
//
// Supported flags:
//
//	-c string          JSON config file (read by parseJSON)
//	-addr string       sandbox host listen address
//	-open-browser      launch the browser for run surfaces
//	-autoplay          start audio on open
//	-watch string      drop folder to import from
//	-code-ext string   comma-separated plain-code extensions
//	-style string      chroma highlight style
//	-log string        log file path
//	-log-level string  debug, info, warn or error
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("trove", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	fs.StringVar(&configPath, "c", "", "JSON config file")
	fs.StringVar(&configPath, "config", "", "JSON config file")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "sandbox host listen address")
	fs.BoolVar(&cfg.OpenBrowser, "open-browser", cfg.OpenBrowser, "open run surfaces in the system browser")
	fs.BoolVar(&cfg.Autoplay, "autoplay", cfg.Autoplay, "start audio playback on open")
	fs.StringVar(&cfg.WatchDir, "watch", cfg.WatchDir, "drop folder to import new files from")
	codeExt := fs.String("code-ext", strings.Join(cfg.CodeExtensions, ","), "comma-separated plain-code extensions")
	fs.StringVar(&cfg.HighlightStyle, "style", cfg.HighlightStyle, "syntax highlight style")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.CodeExtensions = splitList(*codeExt)
	return fs.Args(), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
