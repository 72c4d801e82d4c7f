// Command navquery loads a space layout, streams its navmeshes in and answers
// a path query between two world points.
//
// Usage:
//
//	navquery -from 12,0,5 -to 340,0,88 [-girth 0.5] [-full] [-stats]
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
	"strconv"
	"strings"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/udisondev/chunknav/internal/config"
	"github.com/udisondev/chunknav/internal/db"
	"github.com/udisondev/chunknav/internal/navigator"
	"github.com/udisondev/chunknav/internal/navmesh"
	"github.com/udisondev/chunknav/internal/resource"
	"github.com/udisondev/chunknav/internal/space"
)

const (
	ConfigPath = "config/chunknav.yaml"
	LayoutPath = "config/layout.yaml"
)

type options struct {
	from, to mgl32.Vec3
	girth    float32
	query    bool
	full     bool
	stats    bool
	block    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var (
		opts     options
		from, to string
		girth    float64
	)
	fs := flag.NewFlagSet("navquery", flag.ContinueOnError)
	fs.StringVar(&from, "from", "", "source point x,y,z")
	fs.StringVar(&to, "to", "", "destination point x,y,z")
	fs.Float64Var(&girth, "girth", 0.5, "entity girth")
	fs.BoolVar(&opts.full, "full", false, "print every point of the path")
	fs.BoolVar(&opts.stats, "stats", false, "print chunk and waypoint set counts")
	fs.BoolVar(&opts.block, "block-non-permissive", false, "refuse to pass non-permissive portals")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.girth = float32(girth)

	if from == "" && to == "" {
		if !opts.stats {
			return opts, errors.New("either -from and -to or -stats is required")
		}
		return opts, nil
	}
	opts.query = true
	var err error
	if opts.from, err = parsePoint(from); err != nil {
		return opts, fmt.Errorf("-from: %w", err)
	}
	if opts.to, err = parsePoint(to); err != nil {
		return opts, fmt.Errorf("-to: %w", err)
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfgPath := ConfigPath
	if p := os.Getenv("CHUNKNAV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadNavigation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	closeLog := setupLogging(cfg)
	defer closeLog()

	layoutPath := LayoutPath
	if p := os.Getenv("CHUNKNAV_LAYOUT"); p != "" {
		layoutPath = p
	}
	layout, err := config.LoadSpaceLayout(layoutPath, cfg.GridResolution)
	if err != nil {
		return fmt.Errorf("loading layout: %w", err)
	}

	loader, closeLoader, err := openLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	mgr := navmesh.NewManager(loader, navmesh.Options{
		GirthGrids:  cfg.GirthGrids,
		LoadWorkers: cfg.LoadWorkers,
	})
	sp, err := mgr.LoadSpace(ctx, layout)
	if err != nil {
		return err
	}
	slog.Info("space loaded",
		"chunks", len(sp.Chunks()),
		"navmeshes", mgr.Population().Len(),
		"backend", cfg.ResourceBackend)

	if opts.stats {
		printStats(out, sp)
	}
	if !opts.query {
		return nil
	}

	return query(out, navigator.New(cfg.SearchNodeLimit), sp, opts, cfg.MaxSearchDistance)
}

func query(out io.Writer, nav *navigator.Navigator, sp *space.Space, opts options, maxDistance float32) error {
	src := navmesh.NewNavLoc(sp, opts.from, opts.girth)
	if !src.Resolved() {
		return fmt.Errorf("no navmesh of girth %g at %v", opts.girth, opts.from)
	}
	dst := navmesh.NewNavLoc(sp, opts.to, opts.girth)
	if !dst.Resolved() {
		return fmt.Errorf("no navmesh of girth %g at %v", opts.girth, opts.to)
	}

	if opts.full {
		points, ok := nav.FindFullPath(src, dst, maxDistance, opts.block)
		if !ok {
			return pathError(nav, src, dst)
		}
		for _, p := range points {
			fmt.Fprintf(out, "%s\n", formatPoint(p))
		}
		return nil
	}

	next, passedActivated, ok := nav.FindPath(src, dst, maxDistance, opts.block)
	if !ok {
		return pathError(nav, src, dst)
	}
	fmt.Fprintf(out, "next %s in %s (activated portal: %t)\n",
		formatPoint(next.Point()), next.Chunk(), passedActivated)
	for _, p := range nav.CachedPath() {
		fmt.Fprintf(out, "  %s\n", formatPoint(p))
	}
	return nil
}

func pathError(nav *navigator.Navigator, src, dst navmesh.NavLoc) error {
	if nav.InfiniteLoopProblem() {
		return fmt.Errorf("search from %s to %s hit the node limit", src, dst)
	}
	return fmt.Errorf("no path from %s to %s", src, dst)
}

func printStats(out io.Writer, sp *space.Space) {
	var chunks, sets, waypoints, connections int
	for _, c := range sp.Chunks() {
		nav := navmesh.NavigatorOf(c)
		if nav == nil {
			continue
		}
		chunks++
		for _, s := range nav.Sets() {
			sets++
			waypoints += s.NumWaypoints()
			connections += s.NumConnections()
		}
	}
	fmt.Fprintf(out, "chunks with navmesh: %d\nwaypoint sets: %d\nwaypoints: %d\nconnections: %d\n",
		chunks, sets, waypoints, connections)
}

// openLoader returns the resource backend named by the config.
func openLoader(ctx context.Context, cfg config.Navigation) (resource.Loader, func(), error) {
	switch cfg.ResourceBackend {
	case config.BackendPostgres:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database connected")
		return db.NewNavmeshStore(database.Pool()), database.Close, nil
	default:
		return resource.NewDir(cfg.ResourceRoot), func() {}, nil
	}
}

// setupLogging installs the default logger. With log_file set, output goes
// to stdout and a rotating file.
func setupLogging(cfg config.Navigation) func() {
	var w io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		w = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	return closeFn
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parsePoint(s string) (mgl32.Vec3, error) {
	var p mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return p, fmt.Errorf("point %q: want x,y,z", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return p, fmt.Errorf("point %q: %w", s, err)
		}
		p[i] = float32(v)
	}
	return p, nil
}

func formatPoint(p mgl32.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X(), p.Y(), p.Z())
}
