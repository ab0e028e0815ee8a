package docfile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LockInfo records an in-flight migration so an interrupted run can be
// recovered from the last backup.
type LockInfo struct {
	Path       string    `json:"path"`
	BackupPath string    `json:"backup_path,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

// LockManager guards one document with a sibling lockfile.
type LockManager struct {
	lockPath string
}

// NewLockManager creates a lock manager for the document at path.
func NewLockManager(path string) *LockManager {
	return &LockManager{lockPath: path + ".migrate.lock"}
}

// Acquire writes the lockfile. It fails when a lock is already held.
func (l *LockManager) Acquire(info LockInfo) error {
	if l.IsLocked() {
		held, _ := l.Info()
		if held != nil {
			return fmt.Errorf("document is locked by pid %d since %s", held.PID, held.StartTime.Format(time.RFC3339))
		}
		return fmt.Errorf("document is locked")
	}

	info.StartTime = time.Now()
	info.PID = os.Getpid()

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lock info: %w", err)
	}
	if err := os.WriteFile(l.lockPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// Release removes the lockfile. Releasing an unheld lock is a no-op.
func (l *LockManager) Release() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// IsLocked reports whether the lockfile exists.
func (l *LockManager) IsLocked() bool {
	_, err := os.Stat(l.lockPath)
	return err == nil
}

// Info reads the held lock, or returns nil when the document is unlocked.
func (l *LockManager) Info() (*LockInfo, error) {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode lockfile: %w", err)
	}
	return &info, nil
}
