// Package transaction keeps package-directory changes crash safe: an
// advisory lock serializes mutating commands, installs are staged in a
// scratch directory and committed with one rename, and a journal records
// in-flight operations so the next run can sweep what an interrupted one
// left behind.
package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State represents the current state of a journaled operation.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Operation is the kind of package change being journaled or locked for.
type Operation string

const (
	OperationInstall Operation = "install"
	OperationRemove  Operation = "remove"
	// OperationNuke only ever appears in lock files.
	OperationNuke Operation = "nuke"
)

const journalPrefix = "txn-"

// Journal records one in-flight package operation.
type Journal struct {
	Version   int       `json:"version"` // Schema version for future evolution
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Package   string    `json:"package"`
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
	StageDir  string    `json:"stage_dir,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a pending journal for op on pkg.
func New(op Operation, pkg string) *Journal {
	return &Journal{
		Version:   1,
		ID:        uuid.New().String(),
		Operation: op,
		Package:   pkg,
		Timestamp: time.Now().UTC(),
		State:     StatePending,
	}
}

// Filename returns the journal's file name inside its directory.
func (j *Journal) Filename() string {
	return fmt.Sprintf("%s%s-%s.json", journalPrefix, j.Operation, j.ID)
}

// Save writes the journal to dir atomically.
func (j *Journal) Save(dir string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	if err := WriteFileAtomic(filepath.Join(dir, j.Filename()), data, 0600); err != nil {
		return fmt.Errorf("save journal: %w", err)
	}
	return nil
}

// Update sets the journal state and error, then saves it.
func (j *Journal) Update(dir string, state State, opErr error) error {
	j.State = state
	if opErr != nil {
		j.LastError = opErr.Error()
	} else {
		j.LastError = ""
	}
	return j.Save(dir)
}

// Done removes the journal from dir. A missing file is not an error.
func (j *Journal) Done(dir string) error {
	if err := os.Remove(filepath.Join(dir, j.Filename())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove journal: %w", err)
	}
	return nil
}

// Load reads a journal from disk.
func Load(path string) (*Journal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}

	return &j, nil
}

// Pending returns the journals left in dir, oldest first.
func Pending(dir string) ([]*Journal, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal directory: %w", err)
	}

	var journals []*Journal
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, journalPrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		j, err := Load(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		journals = append(journals, j)
	}

	sort.Slice(journals, func(a, b int) bool {
		return journals[a].Timestamp.Before(journals[b].Timestamp)
	})
	return journals, nil
}

// Recover sweeps dir after an interrupted run: it removes the staging
// directories of unfinished journals and any unreferenced stage directory
// under stageRoot, then deletes the journals. The swept journals are
// returned for reporting. Callers must hold the lock.
func Recover(dir, stageRoot string) ([]*Journal, error) {
	journals, err := Pending(dir)
	if err != nil {
		return nil, err
	}

	for _, j := range journals {
		if j.StageDir != "" {
			if err := os.RemoveAll(j.StageDir); err != nil {
				return journals, fmt.Errorf("remove stage for %s: %w", j.Package, err)
			}
		}
		if err := j.Done(dir); err != nil {
			return journals, err
		}
	}

	entries, err := os.ReadDir(stageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return journals, nil
		}
		return journals, fmt.Errorf("read stage directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && IsStageDir(e.Name()) {
			if err := os.RemoveAll(filepath.Join(stageRoot, e.Name())); err != nil {
				return journals, fmt.Errorf("remove orphan stage: %w", err)
			}
		}
	}

	return journals, nil
}
