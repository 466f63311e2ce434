package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute

	// LockFileName is the advisory lock taken by mutating commands.
	LockFileName = "leaf.lock"
)

// ErrLockExists is matched by *LockedError.
var ErrLockExists = errors.New("another leaf operation is in progress")

// Holder is what a lock file records about the process holding it.
type Holder struct {
	PID       int       `json:"pid"`
	Operation string    `json:"operation"`
	Package   string    `json:"package,omitempty"`
	Acquired  time.Time `json:"acquired"`
}

// LockedError reports a fresh lock held by someone else. Holder is nil when
// the lock file could not be decoded.
type LockedError struct {
	Path   string
	Holder *Holder
}

func (e *LockedError) Error() string {
	if e.Holder == nil {
		return ErrLockExists.Error()
	}
	h := e.Holder
	what := h.Operation
	if h.Package != "" {
		what += " " + h.Package
	}
	return fmt.Sprintf("%s (pid %d: %s, since %s)", ErrLockExists, h.PID, what, h.Acquired.Local().Format(time.Kitchen))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLockExists
}

// Lock is the advisory lock on the install root.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the lock in dir on behalf of operation on pkg (pkg may
// be empty). A lock older than StaleLockThreshold is replaced once; a fresh
// one fails with *LockedError.
func AcquireLock(ctx context.Context, dir, operation, pkg string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !isLockStale(lockPath) {
			return nil, &LockedError{Path: lockPath, Holder: readHolder(lockPath)}
		}
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			// Someone else replaced the stale lock first.
			return nil, &LockedError{Path: lockPath, Holder: readHolder(lockPath)}
		}
	}

	holder := Holder{
		PID:       os.Getpid(),
		Operation: operation,
		Package:   pkg,
		Acquired:  time.Now().UTC(),
	}
	data, _ := json.Marshal(holder)
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Release releases the lock. Calling it more than once is harmless.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path == "" {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	l.path = ""
	return nil
}

func isLockStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > StaleLockThreshold
}

func readHolder(lockPath string) *Holder {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil || h.PID == 0 {
		return nil
	}
	return &h
}
