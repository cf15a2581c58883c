package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/fadedpez/playtimeshop/pkg/storage/file"
)

const (
	filePrefix = "PlayerData_"
	fileSuffix = ".json"
)

var safePlayerID = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)

// ledgerRecord is the on-disk layout of one player file
type ledgerRecord struct {
	Balance        int64     `json:"balance"`
	LoginTimestamp time.Time `json:"loginTimestamp"`
}

// FileRepository stores one JSON document per player in a directory
type FileRepository struct {
	dir    string
	logger *logging.Logger
}

// NewFileRepository creates a file repository rooted at dir, creating it if needed
func NewFileRepository(dir string, logger *logging.Logger) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	return &FileRepository{
		dir:    dir,
		logger: logging.OrDefault(logger),
	}, nil
}

func (r *FileRepository) path(playerID string) (string, error) {
	if !safePlayerID.MatchString(playerID) || playerID == "." || playerID == ".." {
		return "", types.NewShopError(types.ErrInvalidArgument, fmt.Sprintf("unsupported player id %q", playerID))
	}
	return filepath.Join(r.dir, filePrefix+playerID+fileSuffix), nil
}

// GetLedger retrieves a ledger by player ID
func (r *FileRepository) GetLedger(ctx context.Context, playerID string) (*entities.PlayerLedger, error) {
	path, err := r.path(playerID)
	if err != nil {
		return nil, err
	}

	var record ledgerRecord
	if err := file.ReadJSON(path, &record); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLedgerNotFound
		}
		// The file exists but could not be read, so it must not be replaced
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read ledger for player %s: %w", playerID, err)
		}
		r.logger.Warn("[LEDGER_REPO] Malformed ledger for player %s, treating as new: %v", playerID, err)
		return nil, ErrLedgerNotFound
	}

	ledger := &entities.PlayerLedger{
		PlayerID:        playerID,
		Balance:         record.Balance,
		LastAccrualTime: record.LoginTimestamp.UTC(),
	}
	if err := ledger.Validate(); err != nil || record.LoginTimestamp.IsZero() {
		r.logger.Warn("[LEDGER_REPO] Invalid ledger for player %s, treating as new: balance=%d timestamp=%s",
			playerID, record.Balance, record.LoginTimestamp)
		return nil, ErrLedgerNotFound
	}

	return ledger, nil
}

// SaveLedger writes the ledger through a temp file and rename
func (r *FileRepository) SaveLedger(ctx context.Context, ledger *entities.PlayerLedger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}

	path, err := r.path(ledger.PlayerID)
	if err != nil {
		return err
	}

	record := ledgerRecord{
		Balance:        ledger.Balance,
		LoginTimestamp: ledger.LastAccrualTime.UTC(),
	}
	if err := file.WriteJSON(path, record); err != nil {
		r.logger.Error("[LEDGER_REPO] Error saving ledger for player %s: %v", ledger.PlayerID, err)
		return fmt.Errorf("error saving ledger: %w", err)
	}

	return nil
}

// ListPlayerIDs returns the IDs of every ledger file in sorted order
func (r *FileRepository) ListPlayerIDs(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("error listing ledgers: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if safePlayerID.MatchString(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

// Close is a no-op for the file repository
func (r *FileRepository) Close() error {
	return nil
}
