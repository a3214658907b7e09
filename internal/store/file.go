package store

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nconklindev/leadbook/internal/converter"
	"github.com/nconklindev/leadbook/internal/types"
)

const (
	BackupDirName = "backups"
	backupPrefix  = "leads-"
	backupExt     = ".xlsx"
)

// FileStore keeps the collection in <dir>/leads_database.xlsx and a dated
// copy per day in <dir>/backups.
type FileStore struct {
	dir       string
	exportDir string
	logger    *slog.Logger
	now       func() time.Time

	// ioMu orders reads and writes of the database file so the remembered
	// digest always describes the last write.
	ioMu sync.Mutex

	mu         sync.Mutex
	lastBackup string
	digest     [sha256.Size]byte
	skipped    []string
}

// NewFileStore creates dir if needed. The day of the most recent backup
// already on disk seeds the once-per-day backup check.
func NewFileStore(dir, exportDir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data folder: %w", err)
	}

	s := &FileStore{
		dir:       dir,
		exportDir: exportDir,
		logger:    logger,
		now:       time.Now,
	}

	last, err := latestBackupDay(s.BackupDir())
	if err != nil {
		return nil, err
	}
	s.lastBackup = last
	return s, nil
}

func (s *FileStore) Dir() string       { return s.dir }
func (s *FileStore) Path() string      { return filepath.Join(s.dir, converter.DatabaseFile) }
func (s *FileStore) BackupDir() string { return filepath.Join(s.dir, BackupDirName) }
func (s *FileStore) Location() string  { return s.Path() }

// LastBackup returns the day (YYYY-MM-DD) of the latest backup, or "".
func (s *FileStore) LastBackup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBackup
}

// Skipped returns the row errors of the rows the last Load left out.
// Those rows are gone from the file after the next Save.
func (s *FileStore) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.skipped)
}

// Load reads the database workbook. A missing file is an empty collection.
// Rows that fail validation are logged, skipped and reported by Skipped;
// if no row survives, Load fails with converter.ErrNoValidLeads.
func (s *FileStore) Load() ([]types.Lead, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("No database yet", slog.String("path", s.Path()))
		s.setSkipped(nil)
		return []types.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path(), err)
	}

	res, err := converter.Import(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.Path(), err)
	}
	for _, rowErr := range res.Errors {
		s.logger.Warn("Skipped invalid row", slog.String("path", s.Path()), slog.String("error", rowErr))
	}
	s.setSkipped(res.Errors)
	if err := converter.Verify(res); err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.Path(), err)
	}

	s.remember(data)
	s.logger.Info("Loaded leads", slog.String("path", s.Path()), slog.Int("count", len(res.Leads)))
	return res.Leads, nil
}

// Save atomically replaces the database workbook. The first save of each
// day with data present also writes backups/leads-YYYY-MM-DD.xlsx. A failed
// backup is logged and does not fail the save.
func (s *FileStore) Save(leads []types.Lead) (*SaveResult, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	art, err := converter.Export(leads)
	if err != nil {
		return nil, fmt.Errorf("building workbook: %w", err)
	}
	if err := writeAtomic(s.Path(), art.Data); err != nil {
		return nil, err
	}
	s.remember(art.Data)

	result := &SaveResult{Path: s.Path()}
	if len(leads) == 0 {
		return result, nil
	}

	today := s.now().UTC().Format(time.DateOnly)
	s.mu.Lock()
	due := s.lastBackup != today
	s.mu.Unlock()

	if due {
		backup := filepath.Join(s.BackupDir(), backupPrefix+today+backupExt)
		if err := os.MkdirAll(s.BackupDir(), 0o755); err != nil {
			s.logger.Warn("Failed to create backup folder", slog.String("path", s.BackupDir()), slog.String("error", err.Error()))
		} else if err := writeAtomic(backup, art.Data); err != nil {
			s.logger.Warn("Failed to write backup", slog.String("path", backup), slog.String("error", err.Error()))
		} else {
			s.mu.Lock()
			s.lastBackup = today
			s.mu.Unlock()
			result.BackupPath = backup
		}
	}

	s.logger.Info("Saved leads",
		slog.String("path", result.Path),
		slog.String("backup", result.BackupPath),
		slog.Int("count", len(leads)))
	return result, nil
}

// Export writes a dated copy of leads to the export folder.
func (s *FileStore) Export(leads []types.Lead) (string, error) {
	art, err := converter.ExportCopy(leads)
	if err != nil {
		return "", err
	}
	return WriteArtifact(s.exportDir, art)
}

// Changed reports whether the database file on disk differs from what
// this store last read or wrote.
func (s *FileStore) Changed() (bool, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.digest, nil
}

func (s *FileStore) remember(data []byte) {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	s.digest = sum
	s.mu.Unlock()
}

func (s *FileStore) setSkipped(rows []string) {
	s.mu.Lock()
	s.skipped = rows
	s.mu.Unlock()
}

func latestBackupDay(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading backups: %w", err)
	}

	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupExt) {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupExt)
		if _, err := time.Parse(time.DateOnly, day); err == nil {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return "", nil
	}
	sort.Strings(days)
	return days[len(days)-1], nil
}
