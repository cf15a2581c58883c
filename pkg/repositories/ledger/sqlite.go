package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/pkg/db/migrations"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// OpenSQLite opens the database at dbPath, creating its directory if needed.
// ":memory:" opens a private in-memory database.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// A single connection keeps a :memory: database shared between queries
	db.SetMaxOpenConns(1)

	return db, nil
}

// Migrate applies the ledger schema migrations to db
func Migrate(ctx context.Context, db *sql.DB, logger *logging.Logger) (int, error) {
	return migrations.NewMigrator(db, migrationFiles, "sql", logger).MigrateUp(ctx)
}

// NewSQLiteRepository opens dbPath and brings its schema up to date
func NewSQLiteRepository(ctx context.Context, dbPath string, logger *logging.Logger) (*SQLiteRepository, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logging.OrDefault(logger)}, nil
}

// GetLedger retrieves a ledger by player ID
func (r *SQLiteRepository) GetLedger(ctx context.Context, playerID string) (*entities.PlayerLedger, error) {
	query := `SELECT player_id, balance, last_accrual_time FROM ledgers WHERE player_id = ?`

	var ledger entities.PlayerLedger
	var lastAccrual string

	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&ledger.PlayerID,
		&ledger.Balance,
		&lastAccrual,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("error getting ledger: %w", err)
	}

	ledger.LastAccrualTime, err = time.Parse(time.RFC3339Nano, lastAccrual)
	if err != nil {
		r.logger.Warn("[LEDGER_REPO] Unreadable timestamp %q for player %s, treating as new", lastAccrual, playerID)
		return nil, ErrLedgerNotFound
	}
	ledger.LastAccrualTime = ledger.LastAccrualTime.UTC()

	return &ledger, nil
}

// SaveLedger creates or replaces a ledger
func (r *SQLiteRepository) SaveLedger(ctx context.Context, ledger *entities.PlayerLedger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO ledgers (player_id, balance, last_accrual_time, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(player_id) DO UPDATE SET
			balance = excluded.balance,
			last_accrual_time = excluded.last_accrual_time,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query,
		ledger.PlayerID,
		ledger.Balance,
		ledger.LastAccrualTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("[LEDGER_REPO] Error saving ledger for player %s: %v", ledger.PlayerID, err)
		return fmt.Errorf("error saving ledger: %w", err)
	}

	return nil
}

// ListPlayerIDs returns the IDs of every stored ledger in sorted order
func (r *SQLiteRepository) ListPlayerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT player_id FROM ledgers ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing ledgers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning ledger row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return ids, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
