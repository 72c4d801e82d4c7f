package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/udisondev/chunknav/internal/resource"
)

// ErrSimulated is a sentinel error for testing error handling paths.
var ErrSimulated = errors.New("simulated error for testing")

// MemLoader is an in-memory resource.Loader that counts reads.
type MemLoader struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  map[string]error
	reads map[string]int
}

var _ resource.Loader = (*MemLoader)(nil)

func NewMemLoader() *MemLoader {
	return &MemLoader{
		blobs: make(map[string][]byte),
		fail:  make(map[string]error),
		reads: make(map[string]int),
	}
}

// Put stores data under name.
func (l *MemLoader) Put(name string, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blobs[resource.Resolve(name)] = data
}

// Fail makes reads of name return err.
func (l *MemLoader) Fail(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail[resource.Resolve(name)] = err
}

func (l *MemLoader) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := resource.Resolve(name)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads[key]++
	if err, ok := l.fail[key]; ok {
		return nil, err
	}
	data, ok := l.blobs[key]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return data, nil
}

// Reads returns how many times name was read.
func (l *MemLoader) Reads(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads[resource.Resolve(name)]
}
