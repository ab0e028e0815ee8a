// Package docfile migrates version-carrying JSON and YAML documents on disk.
// It layers format detection, version sniffing, timestamped backups, a
// crash-recovery lockfile and atomic rewrites on top of an in-memory
// migration engine.
package docfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/vermigrate/vermigrate/src/pkg/migrate"
)

// Format is a supported document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultVersionField is the top-level key holding the document version.
const DefaultVersionField = "version"

// File is one migratable document on disk.
type File struct {
	path         string
	format       Format
	versionField string
	backups      *BackupManager
	lock         *LockManager
	logger       logrus.FieldLogger
}

// Report describes the outcome of one file migration.
type Report struct {
	Path       string
	Format     Format
	From       migrate.Version
	To         migrate.Version
	Changed    bool
	BackupPath string
}

// Option configures a File.
type Option func(*File)

// WithVersionField overrides DefaultVersionField.
func WithVersionField(field string) Option {
	return func(f *File) {
		f.versionField = field
	}
}

// WithLogger replaces the default component logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *File) {
		f.logger = logger
	}
}

// New creates a File for the document at path. The format comes from the
// file extension: .json, .yml or .yaml.
func New(path string, opts ...Option) (*File, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	f := &File{
		path:         path,
		format:       format,
		versionField: DefaultVersionField,
		backups:      NewBackupManager(path),
		lock:         NewLockManager(path),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logrus.WithField("component", "docfile")
	}
	f.logger = f.logger.WithField("path", path)
	return f, nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document extension: %s", path)
	}
}

// Path returns the document path.
func (f *File) Path() string {
	return f.path
}

// Version reads the document and returns its current version.
func (f *File) Version() (migrate.Version, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return f.sniffVersion(data)
}

// sniffVersion extracts the version field without decoding the whole
// document. Integral numbers normalize to int so they match int-keyed
// registries regardless of the on-disk encoding.
func (f *File) sniffVersion(data []byte) (migrate.Version, error) {
	switch f.format {
	case FormatJSON:
		v := gjson.GetBytes(data, f.versionField)
		if !v.Exists() {
			return nil, fmt.Errorf("document has no %q field", f.versionField)
		}
		switch v.Type {
		case gjson.Number:
			if n := v.Num; n == float64(int(n)) {
				return int(n), nil
			}
			return v.Num, nil
		case gjson.String:
			return v.String(), nil
		default:
			return nil, fmt.Errorf("document %q field is %s, want number or string", f.versionField, v.Type)
		}
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		raw, ok := doc[f.versionField]
		if !ok {
			return nil, fmt.Errorf("document has no %q field", f.versionField)
		}
		switch v := raw.(type) {
		case int:
			return v, nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
			return v, nil
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("document %q field is %T, want number or string", f.versionField, raw)
		}
	}
	return nil, fmt.Errorf("unknown format %q", f.format)
}

// Recover checks for a lockfile left behind by an interrupted migration and,
// when one names a backup, restores the document from it. It reports whether
// a recovery happened.
func (f *File) Recover() (bool, error) {
	if !f.lock.IsLocked() {
		return false, nil
	}
	info, err := f.lock.Info()
	if err != nil {
		return false, err
	}
	f.logger.WithFields(logrus.Fields{
		"pid":    info.PID,
		"backup": info.BackupPath,
	}).Warn("found stale migration lock, recovering")

	if info.BackupPath != "" {
		if err := f.backups.Restore(info.BackupPath); err != nil {
			return false, fmt.Errorf("failed to recover document: %w", err)
		}
	}
	if err := f.lock.Release(); err != nil {
		return false, err
	}
	return info.BackupPath != "", nil
}

// Migrate brings the document to the target version and rewrites it in
// place. The sequence is recover, read, sniff, migrate in memory, back up,
// lock, atomic rewrite. A failed rewrite restores the backup. A document
// already at the target version is left untouched.
func (f *File) Migrate(ctx context.Context, m *migrate.Migrator, to migrate.Version, d migrate.Direction) (*Report, error) {
	if _, err := f.Recover(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	from, err := f.sniffVersion(data)
	if err != nil {
		return nil, err
	}

	report := &Report{Path: f.path, Format: f.format, From: from, To: to}
	if from == to {
		return report, nil
	}

	doc, err := f.decode(data)
	if err != nil {
		return nil, err
	}

	var res migrate.Result
	switch d {
	case migrate.Backward:
		res, err = m.BackwardContext(ctx, doc, from, to)
	default:
		res, err = m.ForwardContext(ctx, doc, from, to)
	}
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return report, nil
	}

	migrated, ok := res.Value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("migrated document is %T, want map[string]any", res.Value)
	}
	migrated[f.versionField] = to

	backupPath, err := f.backups.Create()
	if err != nil {
		return nil, err
	}
	report.BackupPath = backupPath

	if err := f.lock.Acquire(LockInfo{
		Path:       f.path,
		BackupPath: backupPath,
		From:       fmt.Sprintf("%v", from),
		To:         fmt.Sprintf("%v", to),
	}); err != nil {
		return nil, err
	}

	if err := f.write(migrated); err != nil {
		if backupPath != "" {
			if restoreErr := f.backups.Restore(backupPath); restoreErr != nil {
				f.logger.WithError(restoreErr).Error("failed to restore backup after write failure")
			}
		}
		f.lock.Release()
		return nil, err
	}

	if err := f.lock.Release(); err != nil {
		return nil, err
	}

	report.Changed = true
	f.logger.WithFields(logrus.Fields{
		"from": fmt.Sprintf("%v", from),
		"to":   fmt.Sprintf("%v", to),
	}).Info("document migrated")
	return report, nil
}

func (f *File) decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	switch f.format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
	}
	return doc, nil
}

func (f *File) encode(doc map[string]any) ([]byte, error) {
	switch f.format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown format %q", f.format)
}

// write rewrites the document through a temp file and rename so readers
// never observe a half-written document.
func (f *File) write(doc map[string]any) error {
	data, err := f.encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp_*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
