// SPDX-License-Identifier: MPL-2.0

package reorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/mizkit/mizkit/pkg/miz"
	"github.com/mizkit/mizkit/pkg/natsort"
)

// textMembers are the Lua members a diff is produced for. Everything else in
// an archive (images, sounds, kneeboards) is compared byte-wise only.
var textMembers = map[string]bool{
	miz.MemberMission:     true,
	miz.MemberOptions:     true,
	miz.MemberWarehouses:  true,
	miz.MemberDictionary:  true,
	miz.MemberMapResource: true,
}

type (
	// mirror copies the files of src into dst, writing only what differs.
	mirror struct {
		src    string
		dst    string
		skip   map[string]bool
		diff   io.Writer
		dryRun bool
		logger *log.Logger
	}

	// fileState classifies a source file against its target counterpart.
	fileState int
)

const (
	stateUnchanged fileState = iota
	stateAdded
	stateUpdated
)

// run walks src in natural order and records every file in res.
func (m mirror) run(ctx context.Context, res *Result) error {
	files, err := m.files()
	if err != nil {
		return err
	}
	if !m.dryRun {
		if err := os.MkdirAll(m.dst, 0o755); err != nil {
			return fmt.Errorf("failed to create target directory: %w", err)
		}
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(m.src, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		dest := filepath.Join(m.dst, filepath.FromSlash(rel))
		state, old, err := compare(dest, data)
		if err != nil {
			return err
		}

		switch state {
		case stateUnchanged:
			res.Unchanged = append(res.Unchanged, rel)
			continue
		case stateAdded:
			res.Added = append(res.Added, rel)
		case stateUpdated:
			res.Updated = append(res.Updated, rel)
		}
		if m.diff != nil && textMembers[rel] {
			if err := writeDiff(m.diff, rel, old, data); err != nil {
				return fmt.Errorf("failed to write diff for %s: %w", rel, err)
			}
		}
		if m.dryRun {
			continue
		}
		if err := copyVerified(dest, data); err != nil {
			return err
		}
		m.logger.Debug("mirrored file", "path", rel, "added", state == stateAdded)
	}
	return nil
}

// files returns the slash-separated relative paths of every regular file
// under src, minus skipped members, in natural order.
func (m mirror) files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(m.src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(m.src, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !m.skip[rel] {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scratch directory: %w", err)
	}
	natsort.Sort(files)
	return files, nil
}

// compare checks dest against data: a missing file is added, a different
// size or content is updated. The current target bytes are returned for
// diffing.
func compare(dest string, data []byte) (fileState, []byte, error) {
	info, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return stateAdded, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	if !info.Mode().IsRegular() {
		return 0, nil, fmt.Errorf("target %s exists and is not a regular file", dest)
	}
	old, err := os.ReadFile(dest)
	if err != nil {
		return 0, nil, err
	}
	if info.Size() != int64(len(data)) || !bytes.Equal(old, data) {
		return stateUpdated, old, nil
	}
	return stateUnchanged, old, nil
}

// copyVerified writes data to dest and reads it back. A mismatch removes the
// file and yields a CorruptionError.
func copyVerified(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	written, err := os.ReadFile(dest)
	if err != nil {
		return fmt.Errorf("failed to verify %s: %w", dest, err)
	}
	if !bytes.Equal(written, data) {
		if rmErr := os.Remove(dest); rmErr != nil {
			return fmt.Errorf("%w (remove: %v)", &CorruptionError{Path: dest}, rmErr)
		}
		return &CorruptionError{Path: dest}
	}
	return nil
}

// writeDiff emits a unified diff between the old and new target contents.
func writeDiff(w io.Writer, rel string, old, data []byte) error {
	from, a := "a/"+rel, difflib.SplitLines(string(old))
	if old == nil {
		from, a = "/dev/null", nil
	}
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        a,
		B:        difflib.SplitLines(string(data)),
		FromFile: from,
		ToFile:   "b/" + rel,
		Context:  3,
	})
}
