package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"streamvault/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
	streamerColumns         = "id, name, channel_id, created_at"
)

// Streamer is a tracked YouTube channel.
type Streamer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages streamer persistence backed by SQLite.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the registry database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("registry: config is required")
	}
	return OpenPath(cfg.Paths.StorePath)
}

// OpenPath initializes or connects to the registry database at path.
func OpenPath(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("registry: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure registry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Writes are serialized by Store.mu; one connection keeps WAL readers and
	// the writer from contending inside the process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add registers a streamer. It returns ErrAlreadyExists when channelID is
// already tracked; the registry is left unchanged in that case.
func (s *Store) Add(ctx context.Context, name, channelID string) (Streamer, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	channelID = strings.TrimSpace(channelID)
	if name == "" || channelID == "" {
		return Streamer{}, errors.New("registry: name and channel id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(ctx, channelID)
	if err != nil {
		return Streamer{}, err
	}
	if existing != nil {
		return Streamer{}, fmt.Errorf("%w: %s", ErrAlreadyExists, channelID)
	}

	created := s.now().UTC()
	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			"INSERT INTO streamers (name, channel_id, created_at) VALUES (?, ?, ?)",
			name, channelID, created.Format(timeLayout))
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Streamer{}, fmt.Errorf("%w: %s", ErrAlreadyExists, channelID)
		}
		return Streamer{}, fmt.Errorf("insert streamer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Streamer{}, fmt.Errorf("read streamer id: %w", err)
	}
	return Streamer{ID: id, Name: name, ChannelID: channelID, CreatedAt: created}, nil
}

// Remove deletes the streamer with channelID and reports whether a row was
// removed.
func (s *Store) Remove(ctx context.Context, channelID string) (bool, error) {
	ctx = ensureContext(ctx)
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM streamers WHERE channel_id = ?", channelID)
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("delete streamer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	return affected > 0, nil
}

// List returns a snapshot of every tracked streamer ordered by id.
func (s *Store) List(ctx context.Context) ([]Streamer, error) {
	ctx = ensureContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+streamerColumns+" FROM streamers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list streamers: %w", err)
	}
	defer rows.Close()

	var out []Streamer
	for rows.Next() {
		streamer, err := scanStreamer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *streamer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streamers: %w", err)
	}
	return out, nil
}

// Get returns the streamer with channelID, or nil when it is not tracked.
func (s *Store) Get(ctx context.Context, channelID string) (*Streamer, error) {
	ctx = ensureContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, strings.TrimSpace(channelID))
}

func (s *Store) getLocked(ctx context.Context, channelID string) (*Streamer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+streamerColumns+" FROM streamers WHERE channel_id = ?", channelID)
	streamer, err := scanStreamer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return streamer, nil
}

func scanStreamer(scanner interface{ Scan(dest ...any) error }) (*Streamer, error) {
	var (
		streamer   Streamer
		createdRaw string
	)
	if err := scanner.Scan(&streamer.ID, &streamer.Name, &streamer.ChannelID, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan streamer: %w", err)
	}
	if created, err := time.Parse(timeLayout, createdRaw); err == nil {
		streamer.CreatedAt = created
	}
	return &streamer, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
