package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/logging"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

// Store reads and writes records under a packages directory.
type Store struct {
	packagesDir string
	logger      logging.Logger
}

// NewStore creates a store rooted at packagesDir.
func NewStore(packagesDir string, logger logging.Logger) *Store {
	return &Store{
		packagesDir: packagesDir,
		logger:      logging.OrNop(logger),
	}
}

// PackagesDir returns the root of all package directories.
func (s *Store) PackagesDir() string {
	return s.packagesDir
}

// PackageDir returns the install directory for name.
func (s *Store) PackageDir(name string) string {
	return filepath.Join(s.packagesDir, name)
}

func (s *Store) recordPath(name string) string {
	return filepath.Join(s.PackageDir(name), RecordFileName)
}

// Write persists rec atomically inside its package directory, which must
// already exist.
func (s *Store) Write(rec *Record) error {
	if err := ValidateName(rec.Name); err != nil {
		return err
	}
	if err := rec.validate(); err != nil {
		return err
	}
	if _, err := os.Stat(s.PackageDir(rec.Name)); err != nil {
		return fmt.Errorf("write record for %s: %w", rec.Name, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := transaction.WriteFileAtomic(s.recordPath(rec.Name), data, 0644); err != nil {
		return fmt.Errorf("write record for %s: %w", rec.Name, err)
	}
	return nil
}

// Read returns the record for name. A missing or unreadable record is
// ErrNoRecord.
func (s *Store) Read(name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
		}
		return nil, fmt.Errorf("read record for %s: %w", name, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoRecord, name, err)
	}
	if rec.Name == "" {
		rec.Name = name
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecord, err)
	}
	return &rec, nil
}

// IsInstalled reports whether name has a valid record.
func (s *Store) IsInstalled(name string) bool {
	_, err := s.Read(name)
	return err == nil
}

// List returns every valid record, sorted by name. Directories without a
// valid record are orphans and are skipped.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.packagesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read packages directory: %w", err)
	}

	var records []*Record
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		rec, err := s.Read(e.Name())
		if err != nil {
			s.logger.Debug("skipping package directory without record", "package", e.Name(), "error", err)
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Orphans returns package directories that have no valid record.
func (s *Store) Orphans() ([]string, error) {
	entries, err := os.ReadDir(s.packagesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read packages directory: %w", err)
	}

	var orphans []string
	for _, e := range entries {
		if e.IsDir() && !hidden(e.Name()) && !s.IsInstalled(e.Name()) {
			orphans = append(orphans, e.Name())
		}
	}
	return orphans, nil
}

// DeleteRecord removes the record for name and syncs the directory, so the
// package reads as not installed before any of its files go away.
func (s *Store) DeleteRecord(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete record for %s: %w", name, err)
	}
	return transaction.SyncDir(s.PackageDir(name))
}

// RemoveDir deletes the package directory.
func (s *Store) RemoveDir(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.RemoveAll(s.PackageDir(name)); err != nil {
		return fmt.Errorf("remove package directory %s: %w", name, err)
	}
	return nil
}

// Remove deletes the record first and then the rest of the directory.
func (s *Store) Remove(name string) error {
	if err := s.DeleteRecord(name); err != nil {
		return err
	}
	return s.RemoveDir(name)
}

// hidden entries of the packages directory are staging areas, never packages.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
