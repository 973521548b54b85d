// SPDX-License-Identifier: MPL-2.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of concurrent jobs when none is configured.
const DefaultLimit = 2

// ErrDuplicateJob is the sentinel error wrapped by DuplicateJobError.
var ErrDuplicateJob = errors.New("duplicate job")

type (
	// Job is a unit of work identified by Key.
	Job struct {
		// Key identifies the resource the job works on. Keys that name the same
		// file path are duplicates.
		Key string
		// Run does the work. The context is only checked before Run starts.
		Run func(ctx context.Context) error
	}

	// Result reports the outcome of one job.
	Result struct {
		Key     string
		Err     error
		Skipped bool
		Elapsed time.Duration
	}

	// DuplicateJobError is returned when two jobs share a key.
	DuplicateJobError struct {
		Key string
	}

	// Pool runs jobs with bounded concurrency.
	Pool struct {
		limit  int
		logger *log.Logger
	}
)

// Error implements the error interface.
func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("job for %s scheduled twice", e.Key)
}

// Unwrap returns ErrDuplicateJob so callers can use errors.Is for programmatic detection.
func (e *DuplicateJobError) Unwrap() error { return ErrDuplicateJob }

// New returns a pool running at most limit jobs at once. A limit below one
// uses DefaultLimit. A nil logger discards output.
func New(limit int, logger *log.Logger) *Pool {
	if limit < 1 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pool{limit: limit, logger: logger}
}

// Limit returns the concurrency bound.
func (p *Pool) Limit() int { return p.limit }

// Run executes jobs and returns one Result per job, in job order. Jobs are
// not cancelled midway: once ctx is done, jobs that have not started are
// skipped with the context error. The returned error joins every job error.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		key := normalizeKey(j.Key)
		if seen[key] {
			return nil, &DuplicateJobError{Key: j.Key}
		}
		seen[key] = true
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(p.limit)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = p.runOne(ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Key, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (p *Pool) runOne(ctx context.Context, j Job) Result {
	if err := ctx.Err(); err != nil {
		return Result{Key: j.Key, Err: err, Skipped: true}
	}
	start := time.Now()
	p.logger.Debug("job started", "key", j.Key)
	err := j.Run(ctx)
	r := Result{Key: j.Key, Err: err, Elapsed: time.Since(start)}
	if err != nil {
		p.logger.Debug("job failed", "key", j.Key, "err", err)
	} else {
		p.logger.Debug("job finished", "key", j.Key, "elapsed", r.Elapsed)
	}
	return r
}

func normalizeKey(key string) string {
	if abs, err := filepath.Abs(key); err == nil {
		return abs
	}
	return filepath.Clean(key)
}
