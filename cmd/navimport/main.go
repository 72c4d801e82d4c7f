// Command navimport copies baked navmesh files from a directory tree into the
// PostgreSQL blob store. Files whose digest matches the stored blob are skipped.
//
// Usage:
//
//	navimport -dir res [-ext .navmesh] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/udisondev/chunknav/internal/config"
	"github.com/udisondev/chunknav/internal/db"
	"github.com/udisondev/chunknav/internal/navmesh"
	"github.com/udisondev/chunknav/internal/resource"
)

const ConfigPath = "config/chunknav.yaml"

// blobStore is the part of db.NavmeshStore the importer writes through.
type blobStore interface {
	Digest(ctx context.Context, name string) (string, error)
	Store(ctx context.Context, name string, data []byte) (bool, error)
}

type importStats struct {
	stored, unchanged, invalid int
}

func main() {
	dir := flag.String("dir", "res", "root directory of baked navmesh files")
	ext := flag.String("ext", ".navmesh", "file extension to import")
	dryRun := flag.Bool("dry-run", false, "report changes without writing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dir, *ext, *dryRun); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir, ext string, dryRun bool) error {
	cfgPath := ConfigPath
	if p := os.Getenv("CHUNKNAV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadNavigation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := importDir(ctx, db.NewNavmeshStore(database.Pool()), dir, ext, dryRun)
	if err != nil {
		return err
	}
	slog.Info("import finished",
		"stored", stats.stored,
		"unchanged", stats.unchanged,
		"invalid", stats.invalid,
		"dry_run", dryRun)
	return nil
}

// importDir walks dir and stores every file with extension ext under its
// slash-separated path relative to dir. Files that do not parse as navmeshes
// are logged and skipped.
func importDir(ctx context.Context, store blobStore, dir, ext string, dryRun bool) (importStats, error) {
	var stats importStats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := resource.Resolve(filepath.ToSlash(rel))

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := navmesh.ReadWaypointSets(data); err != nil {
			slog.Warn("skipping malformed navmesh", "path", name, "err", err)
			stats.invalid++
			return nil
		}

		digest := resource.Digest(data)
		stored, err := store.Digest(ctx, name)
		if err != nil {
			return err
		}
		if stored == digest {
			stats.unchanged++
			return nil
		}
		if dryRun {
			slog.Info("would store navmesh", "path", name, "digest", digest)
			stats.stored++
			return nil
		}
		if _, err := store.Store(ctx, name, data); err != nil {
			return err
		}
		slog.Debug("navmesh stored", "path", name, "bytes", len(data))
		stats.stored++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("importing %s: %w", dir, err)
	}
	return stats, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
