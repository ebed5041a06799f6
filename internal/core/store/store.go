package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/osudump/osudump/internal/config"
)

const (
	sqlDriver   = "libsql"
	memoryPath  = ":memory:"
	tokenParam  = "authToken"
	redactedTok = "REDACTED"
)

// Store holds saved most-played snapshots.
type Store struct {
	DB *sql.DB
}

// Open connects to the snapshot history. A remote URL wins over the local
// path; the local database file and its directory are created on demand.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	dsn, err := snapshotDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot history: %w", err)
	}
	if dsn == memoryPath {
		// each connection would see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to snapshot history %s: %w", describeTarget(cfg), err)
	}

	return &Store{DB: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RedactURL hides any auth token carried in a store URL so it can be shown.
func RedactURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "(invalid url)"
	}

	query := parsed.Query()
	if query.Has(tokenParam) {
		query.Set(tokenParam, redactedTok)
		parsed.RawQuery = query.Encode()
	}
	if parsed.User != nil {
		parsed.User = url.User(redactedTok)
	}
	return parsed.String()
}

func snapshotDSN(cfg config.StoreConfig) (string, error) {
	if remote := strings.TrimSpace(cfg.URL); remote != "" {
		return remoteDSN(remote, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	switch path {
	case "":
		return "", errors.New("snapshot history needs store.path or store.url")
	case memoryPath:
		return memoryPath, nil
	}

	path = filepath.Clean(path)
	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create snapshot history directory: %w", err)
	}
	return "file:" + path, nil
}

// remoteDSN adds the auth token unless the URL already carries one.
func remoteDSN(remote, token string) (string, error) {
	parsed, err := url.Parse(remote)
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid store url %q: scheme and host are required", remote)
	}

	token = strings.TrimSpace(token)
	query := parsed.Query()
	if token != "" && query.Get(tokenParam) == "" {
		query.Set(tokenParam, token)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func describeTarget(cfg config.StoreConfig) string {
	if strings.TrimSpace(cfg.URL) != "" {
		return RedactURL(cfg.URL)
	}
	return cfg.Path
}
