package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/chunknav/internal/resource"
)

// NavmeshStore keeps navmesh blobs keyed by resolved resource path.
type NavmeshStore struct {
	pool *pgxpool.Pool
}

// Compile-time check.
var _ resource.Loader = (*NavmeshStore)(nil)

// NewNavmeshStore creates a store over pool.
func NewNavmeshStore(pool *pgxpool.Pool) *NavmeshStore {
	return &NavmeshStore{pool: pool}
}

// NavmeshInfo describes one stored blob without its data.
type NavmeshInfo struct {
	Path      string
	Digest    string
	Size      int
	UpdatedAt time.Time
}

// Read returns the blob stored under name.
func (s *NavmeshStore) Read(ctx context.Context, name string) ([]byte, error) {
	path := resource.Resolve(name)
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM navmesh_blobs WHERE path = $1`, path,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reading navmesh %s: %w", path, resource.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading navmesh %s: %w", path, err)
	}
	return data, nil
}

// Store inserts or replaces the blob under name. It reports whether anything
// changed; a blob with the same digest is left untouched.
func (s *NavmeshStore) Store(ctx context.Context, name string, data []byte) (bool, error) {
	path := resource.Resolve(name)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO navmesh_blobs (path, data, digest, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (path) DO UPDATE
		 SET data = EXCLUDED.data, digest = EXCLUDED.digest, updated_at = EXCLUDED.updated_at
		 WHERE navmesh_blobs.digest <> EXCLUDED.digest`,
		path, data, resource.Digest(data))
	if err != nil {
		return false, fmt.Errorf("storing navmesh %s: %w", path, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Digest returns the stored digest of name, or "" if it is absent.
func (s *NavmeshStore) Digest(ctx context.Context, name string) (string, error) {
	path := resource.Resolve(name)
	var digest string
	err := s.pool.QueryRow(ctx,
		`SELECT digest FROM navmesh_blobs WHERE path = $1`, path,
	).Scan(&digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying digest of %s: %w", path, err)
	}
	return digest, nil
}

// Delete removes the blob under name.
func (s *NavmeshStore) Delete(ctx context.Context, name string) error {
	path := resource.Resolve(name)
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM navmesh_blobs WHERE path = $1`, path); err != nil {
		return fmt.Errorf("deleting navmesh %s: %w", path, err)
	}
	return nil
}

// List returns every stored blob ordered by path.
func (s *NavmeshStore) List(ctx context.Context) ([]NavmeshInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT path, digest, octet_length(data), updated_at FROM navmesh_blobs ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query navmesh blobs: %w", err)
	}
	defer rows.Close()

	var result []NavmeshInfo
	for rows.Next() {
		var info NavmeshInfo
		if err := rows.Scan(&info.Path, &info.Digest, &info.Size, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan navmesh row: %w", err)
		}
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate navmesh rows: %w", err)
	}
	return result, nil
}
