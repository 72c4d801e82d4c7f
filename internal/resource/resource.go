// Package resource reads baked binary resources (navmeshes) by path from a
// pluggable backend.
package resource

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when a resource does not exist in the backend.
var ErrNotFound = errors.New("resource not found")

// Loader reads a resource's bytes by its resolved path.
type Loader interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Resolve normalises a resource path so every spelling of the same resource
// maps to one cache key: forward slashes, no dot segments, no leading slash.
func Resolve(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// Digest returns the hex BLAKE2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Dir serves resources from a directory tree.
type Dir struct {
	root string
}

// NewDir creates a loader rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Read returns the file contents of name under the root.
func (d *Dir) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(Resolve(name))))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading resource %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("reading resource %s: %w", name, err)
	}
	return data, nil
}

// Shared collapses concurrent reads of the same resource into one backend read.
type Shared struct {
	loader Loader
	group  singleflight.Group
}

// NewShared wraps loader.
func NewShared(loader Loader) *Shared {
	return &Shared{loader: loader}
}

// Read returns the resource bytes, joining an in-flight read of the same name.
// A caller that gives up does not cancel the read for the others.
// Callers must not modify the returned slice.
func (s *Shared) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := Resolve(name)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.loader.Read(context.WithoutCancel(ctx), key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}
