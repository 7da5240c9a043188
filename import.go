package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zackbart/trove/internal/archive"
)

// importedMsg carries files read from disk for the collection.
type importedMsg struct {
	files []*archive.File
	err   error
}

// importPaths reads each path. Directories contribute their regular,
// non-hidden files; subdirectories are not descended.
func importPaths(paths []string) ([]*archive.File, error) {
	var (
		files []*archive.File
		errs  []error
	)
	for _, p := range paths {
		p = expandHome(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.IsDir() {
			f, err := archive.FromPath(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			files = append(files, f)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			f, err := archive.FromPath(filepath.Join(p, e.Name()))
			if err != nil {
				continue
			}
			files = append(files, f)
		}
	}
	return files, errors.Join(errs...)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func importCmd(paths ...string) tea.Cmd {
	return func() tea.Msg {
		files, err := importPaths(paths)
		return importedMsg{files: files, err: err}
	}
}
