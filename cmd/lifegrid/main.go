// Command lifegrid runs the grid ecosystem in the terminal, headless, or
// behind the HTTP observer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/lifegrid/internal/api"
	"github.com/talgya/lifegrid/internal/config"
	"github.com/talgya/lifegrid/internal/engine"
	"github.com/talgya/lifegrid/internal/entropy"
	"github.com/talgya/lifegrid/internal/persistence"
	"github.com/talgya/lifegrid/internal/snapshot"
	"github.com/talgya/lifegrid/internal/species"
	"github.com/talgya/lifegrid/internal/tui"
	"github.com/talgya/lifegrid/internal/world"
)

func main() {
	if err := run(); err != nil {
		slog.Error("lifegrid failed", "error", err)
		fmt.Fprintln(os.Stderr, "lifegrid:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "lifegrid.toml", "Path to the TOML config file")
	mode := flag.String("mode", "tui", "Run mode: tui, headless or serve")
	turns := flag.Int("turns", 100, "Turns to run in headless and serve modes (0 = until interrupted)")
	load := flag.String("load", "", `Resume from "db", "latest" (newest snapshot) or a snapshot path`)
	save := flag.String("save", "", `Write a snapshot on exit: "auto" or a file path`)
	flag.Parse()

	switch *mode {
	case "tui", "headless", "serve":
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg.Logging, *mode == "tui")
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── World ─────────────────────────────────────────────────────────
	catalog, population, err := species.Load(cfg.Species.File)
	if err != nil {
		return err
	}
	seed := cfg.World.Seed
	if seed == 0 {
		seed = entropy.RandomSeed()
	}
	w, err := world.New(cfg.WorldConfig(seed, population), catalog)
	if err != nil {
		return err
	}
	w.AddSink(world.SlogSink{})
	if err := w.GenerateOrganisms(); err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DB), 0o755); err != nil {
			return err
		}
		db, err = persistence.Open(ctx, cfg.Storage.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Storage.DB)
	}

	eng := engine.New(w)
	if db != nil {
		eng.Saver = db
		eng.AutosaveEvery = cfg.Storage.AutosaveEvery
	}

	if *load != "" {
		st, from, err := loadState(ctx, *load, db, cfg.Storage.SnapshotDir)
		if err != nil {
			return err
		}
		if err := eng.Restore(st); err != nil {
			return fmt.Errorf("restore from %s: %w", from, err)
		}
		slog.Info("world restored", "from", from, "run_id", st.ID, "turn", st.Turn, "organisms", len(st.Organisms))
	}

	slog.Info("world ready",
		"run_id", w.ID(),
		"seed", w.Seed(),
		"size", fmt.Sprintf("%dx%d", w.Width(), w.Height()),
		"organisms", w.Count(),
	)

	// ── Run ───────────────────────────────────────────────────────────
	switch *mode {
	case "tui":
		err = tui.Run(tui.New(eng, cfg.Storage.SnapshotDir, entropy.RandomSeed))
	case "headless":
		err = eng.Run(ctx, *turns)
		if err == nil {
			printSummary(eng)
		}
	case "serve":
		err = serve(ctx, cfg, eng, db, *turns)
	}
	if err != nil {
		return err
	}

	// ── Shutdown ──────────────────────────────────────────────────────
	// Signals are done with; the final saves must not see a cancelled context.
	stop()
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if db != nil {
		if err := eng.Save(saveCtx); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
		slog.Info("world saved", "path", cfg.Storage.DB, "turn", eng.Turn())
	}
	if *save != "" {
		if err := writeSnapshot(eng, *save, cfg.Storage.SnapshotDir); err != nil {
			return err
		}
	}
	return nil
}

// setupLogging installs the process logger. The TUI owns the terminal, so
// without a log file its logs are discarded.
func setupLogging(c config.LoggingConfig, tuiMode bool) (func(), error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	var out io.Writer = os.Stderr
	closer := func() {}
	switch {
	case c.File != "":
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, func() { f.Close() }
	case tuiMode:
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if c.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(h))
	return closer, nil
}

// loadState resolves the -load flag.
func loadState(ctx context.Context, from string, db *persistence.DB, snapDir string) (world.State, string, error) {
	switch from {
	case "db":
		if db == nil {
			return world.State{}, "", errors.New("-load db: no database configured")
		}
		st, err := db.LoadWorld(ctx)
		return st, "database", err
	case "latest":
		entry, ok, err := snapshot.Latest(snapDir)
		if err != nil {
			return world.State{}, "", err
		}
		if !ok {
			return world.State{}, "", fmt.Errorf("no snapshots in %s", snapDir)
		}
		from = entry.Path
	}
	st, err := snapshot.Read(from)
	return st, from, err
}

func writeSnapshot(eng *engine.Engine, path, snapDir string) error {
	st, err := eng.State()
	if err != nil {
		return err
	}
	if path == "auto" {
		path = snapshot.Path(snapDir, st.ID, st.Turn)
	}
	if err := snapshot.Write(path, st); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	size := "?"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Printf("Snapshot written: %s (%s, turn %d)\n", path, size, st.Turn)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, eng *engine.Engine, db *persistence.DB, turns int) error {
	if cfg.API.AdminKey == "" {
		slog.Warn(config.AdminKeyEnv + " not set, admin POST endpoints will be disabled")
	}
	srv := &api.Server{
		Eng:         eng,
		Port:        cfg.API.Port,
		AdminKey:    cfg.API.AdminKey,
		SnapshotDir: cfg.Storage.SnapshotDir,
	}
	if db != nil {
		srv.Events = db
	}
	srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown", "error", err)
		}
	}()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Interval = cfg.World.TurnInterval
	if err := eng.Run(ctx, turns); err != nil {
		return err
	}
	printSummary(eng)
	return nil
}

func printSummary(eng *engine.Engine) {
	eng.Do(func(w *world.World) error {
		fmt.Printf("\nRun %s: turn %s, %s organisms on %s tiles\n",
			w.ID(), humanize.Comma(int64(w.Turn())), humanize.Comma(int64(w.Count())), humanize.Comma(int64(w.TileCount())))
		for _, c := range engine.SortedCensus(engine.Census(w)) {
			fmt.Printf("  %-12s %s\n", c.Species, humanize.Comma(int64(c.Count)))
		}
		if p, ok := w.Player(); ok {
			fmt.Printf("The human survives at %s with power %d.\n", p.Tile(), p.Power)
		} else {
			fmt.Println("The human did not survive.")
		}
		return nil
	})
}
