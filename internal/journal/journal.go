// SPDX-License-Identifier: MPL-2.0

package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// StatusOK marks a run that completed.
	StatusOK Status = "ok"
	// StatusFailed marks a run that returned an error.
	StatusFailed Status = "failed"
	// StatusSkipped marks a run skipped because its source was unchanged.
	StatusSkipped Status = "skipped"

	// ModeReorder is a reorder into a target directory.
	ModeReorder = "reorder"
	// ModeFormat is an in-archive canonicalization.
	ModeFormat = "format"
)

type (
	// Status is the outcome of a run.
	Status string

	// Run is one journal row. TargetFiles lists the files a successful run
	// mirrored, slash-separated and relative to Target, one per line.
	Run struct {
		ID           uint   `gorm:"primaryKey"`
		Mode         string `gorm:"size:16;index:idx_run_lookup"`
		Source       string `gorm:"size:1024;index:idx_run_lookup"`
		Target       string `gorm:"size:1024;index:idx_run_lookup"`
		SourceHash   string `gorm:"size:64"`
		SkipOptions  bool
		TargetFiles  string `gorm:"type:text"`
		TargetDigest string `gorm:"size:64"`
		Status       Status `gorm:"size:16"`
		Error        string `gorm:"size:2000"`
		Added        int
		Updated      int
		Unchanged    int
		StartedAt    time.Time
		Duration     time.Duration
	}

	// Option configures a Journal.
	Option func(*Journal)

	// Journal is an open run journal.
	Journal struct {
		db  *gorm.DB
		now func() time.Time
	}
)

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// Open opens or creates the journal database at path. An empty path opens a
// private in-memory database.
func Open(path string, opts ...Option) (*Journal, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", dsn, err)
	}

	// A single connection keeps an in-memory database alive and serializes
	// writers on a file database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access journal connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	j := &Journal{db: db, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Now returns the journal clock's current time.
func (j *Journal) Now() time.Time { return j.now() }

// Record stores run. A zero StartedAt is set from the journal clock.
func (j *Journal) Record(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = j.now()
	}
	if err := j.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record run for %s: %w", run.Source, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A limit below one returns
// every run.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	q := j.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// LastSuccess returns the newest successful run of mode from source into
// target, or nil when there is none.
func (j *Journal) LastSuccess(ctx context.Context, mode, source, target string) (*Run, error) {
	var run Run
	err := j.db.WithContext(ctx).
		Where("mode = ? AND source = ? AND target = ? AND status = ?", mode, source, target, StatusOK).
		Order("started_at DESC").Order("id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return &run, nil
}

// Unchanged reports whether the newest successful run of mode from source
// into target saw the same content hash and skip-options setting, and the
// files it mirrored are still in target as it left them.
func (j *Journal) Unchanged(ctx context.Context, mode, source, target, hash string, skipOptions bool) (bool, error) {
	last, err := j.LastSuccess(ctx, mode, source, target)
	if err != nil || last == nil {
		return false, err
	}
	if last.SourceHash != hash || last.SkipOptions != skipOptions || last.TargetDigest == "" {
		return false, nil
	}
	digest, err := DigestFiles(last.Target, last.Files())
	if err != nil {
		return false, err
	}
	return digest == last.TargetDigest, nil
}

// Snapshot stores files, relative to the run's Target, and their current
// digest on run.
func (r *Run) Snapshot(files []string) error {
	files = slices.Clone(files)
	slices.Sort(files)
	digest, err := DigestFiles(r.Target, files)
	if err != nil {
		return err
	}
	r.TargetFiles, r.TargetDigest = strings.Join(files, "\n"), digest
	return nil
}

// Files returns the mirrored files recorded by Snapshot.
func (r *Run) Files() []string {
	if r.TargetFiles == "" {
		return nil
	}
	return strings.Split(r.TargetFiles, "\n")
}

// DigestFiles returns the hex SHA-256 over the names and contents of files,
// slash-separated paths relative to root, in the given order. A missing file
// contributes a marker instead of its content, so deleting it changes the
// digest.
func DigestFiles(root string, files []string) (string, error) {
	h := sha256.New()
	for _, rel := range files {
		h.Write([]byte(rel))
		h.Write([]byte{0})
		sum, err := HashFile(filepath.Join(root, filepath.FromSlash(rel)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			sum = "missing"
		case err != nil:
			return "", fmt.Errorf("failed to hash %s: %w", rel, err)
		}
		h.Write([]byte(sum))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
