package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zackbart/trove/internal/archive"
	"github.com/zackbart/trove/internal/classify"
	"github.com/zackbart/trove/internal/config"
	"github.com/zackbart/trove/internal/content"
	"github.com/zackbart/trove/internal/lifecycle"
	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
	"github.com/zackbart/trove/internal/sandbox"
	"github.com/zackbart/trove/internal/viewer"
	"github.com/zackbart/trove/internal/visual"
)

const shutdownTimeout = 2 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, paths, err := config.Load(args)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host, err := sandbox.Listen(cfg.Addr, log)
	if err != nil {
		return err
	}
	reg := objref.NewRegistry(host.BaseURL())
	host.Serve(reg)

	cls := classify.New(cfg.CodeExtensions)
	session := viewer.New(viewer.Options{
		Loader:     content.NewLoader(reg),
		Slots:      lifecycle.NewManager(reg, log),
		Classifier: cls,
		Host:       host,
		Engine:     &visual.Engine{},
		Log:        log,
		Autoplay:   cfg.Autoplay,
	})

	coll := archive.NewCollection(cls)
	files, err := importPaths(paths)
	if err != nil {
		log.Warn(ctx, "import failed", "err", err)
	}
	for _, f := range files {
		coll.Add(f)
	}

	p := tea.NewProgram(newModel(cfg, log, host.BaseURL(), coll, session),
		tea.WithAltScreen(), tea.WithMouseCellMotion())

	if cfg.WatchDir != "" {
		go func() {
			err := archive.Watch(ctx, cfg.WatchDir,
				func(f *archive.File) { p.Send(importedMsg{files: []*archive.File{f}}) },
				func(err error) { log.Warn(ctx, "watch error", "dir", cfg.WatchDir, "err", err) })
			if err != nil {
				log.Error(ctx, "watch failed", "dir", cfg.WatchDir, "err", err)
				p.Send(importedMsg{err: err})
			}
		}()
	}

	_, runErr := p.Run()

	session.Shutdown()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := host.Close(shutdownCtx); err != nil {
		log.Warn(ctx, "sandbox host shutdown", "err", err)
	}
	st := reg.Stats()
	log.Info(ctx, "session ended", "created", st.Created, "revoked", st.Revoked, "live", st.Live)

	return runErr
}
