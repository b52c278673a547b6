package costledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Options controls Core initialization.
type Options struct {
	DBPath string
	Logger *slog.Logger
	// Levels overrides the consolidation hierarchy. Defaults to
	// DefaultLevels. Fixed for the lifetime of the Core.
	Levels []Level
}

// Core provides access to Cost Ledger business logic and storage: the batch
// store, the WAC engine, holdings snapshots, and the AI review feature.
type Core struct {
	db     *sql.DB
	logger *slog.Logger
	levels []Level
	cache  *ledgerCache
	dbPath string
}

// Open initializes a Core using the provided database path and the default
// consolidation levels.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	levels := opts.Levels
	if len(levels) == 0 {
		levels = DefaultLevels()
	}
	if err := validateLevels(levels); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Warn("pragma foreign_keys failed", "err", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	return &Core{
		db:     db,
		logger: logger,
		levels: levels,
		cache:  newLedgerCache(),
		dbPath: cleanPath,
	}, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Levels returns the configured consolidation levels.
func (c *Core) Levels() []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}
