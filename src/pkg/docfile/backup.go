package docfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupTimeFormat = "20060102_150405"
	// DefaultKeepBackups caps how many backups are retained per document.
	DefaultKeepBackups = 5
)

// BackupManager creates and restores timestamped sibling backups of one
// document file.
type BackupManager struct {
	path string
	keep int
}

// NewBackupManager creates a backup manager for the document at path.
func NewBackupManager(path string) *BackupManager {
	return &BackupManager{path: path, keep: DefaultKeepBackups}
}

// Create copies the document to a timestamped sibling and returns its path.
// A document that does not exist yet needs no backup; that returns "".
func (b *BackupManager) Create() (string, error) {
	if _, err := os.Stat(b.path); os.IsNotExist(err) {
		return "", nil
	}

	backupPath := fmt.Sprintf("%s.backup_%s", b.path, time.Now().Format(backupTimeFormat))
	if err := copyFile(b.path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	// Pruning failures never block the migration itself.
	_ = b.prune()

	return backupPath, nil
}

// Restore replaces the document with the given backup.
func (b *BackupManager) Restore(backupPath string) error {
	if backupPath == "" {
		return fmt.Errorf("backup path is empty")
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", backupPath)
	}
	if err := copyFile(backupPath, b.path); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

// List returns the document's backups, newest first.
func (b *BackupManager) List() ([]string, error) {
	dir := filepath.Dir(b.path)
	prefix := filepath.Base(b.path) + ".backup_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}
	// The timestamp suffix sorts lexically, newest first when reversed.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// Latest returns the newest backup, or "" when none exist.
func (b *BackupManager) Latest() (string, error) {
	backups, err := b.List()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", nil
	}
	return backups[0], nil
}

func (b *BackupManager) prune() error {
	backups, err := b.List()
	if err != nil {
		return err
	}
	for _, old := range backups[min(len(backups), b.keep):] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", old, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return err
	}
	return dstFile.Sync()
}
