// SPDX-License-Identifier: MPL-2.0

package miz

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mizkit/mizkit/pkg/lua"

	"golang.org/x/exp/slices"
)

// Member names every mission archive must contain.
const (
	MemberMission     = "mission"
	MemberOptions     = "options"
	MemberWarehouses  = "warehouses"
	MemberDictionary  = "l10n/DEFAULT/dictionary"
	MemberMapResource = "l10n/DEFAULT/mapResource"
)

// zipEpoch is the modification time written for every member, so archives
// with the same content are byte-identical.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type (
	// Document is a decoded Lua member together with the qualifier it was
	// read with.
	Document struct {
		Value     lua.Value
		Qualifier lua.Qualifier
	}

	// Option configures a Container.
	Option func(*Container)

	// Container is an opened mission archive and its scratch directory.
	Container struct {
		path       string
		scratchDir string
		tempRoot   string
		charset    Charset
		logger     *log.Logger

		members  []string
		unzipped bool
		closed   bool

		mission     *Document
		dictionary  *Document
		mapResource *Document
	}
)

// RequiredMembers returns the members Unzip insists on, in archive order.
func RequiredMembers() []string {
	return []string{MemberMission, MemberOptions, MemberWarehouses, MemberDictionary, MemberMapResource}
}

// WithCharset sets the charset of the Lua members. The default is ISO-8859-15.
func WithCharset(cs Charset) Option {
	return func(c *Container) { c.charset = cs }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTempRoot creates the scratch directory under dir instead of the
// system temporary directory.
func WithTempRoot(dir string) Option {
	return func(c *Container) { c.tempRoot = dir }
}

// Open checks that path is a readable ZIP archive and creates the private
// scratch directory. The caller must call Close.
func Open(archive string, opts ...Option) (*Container, error) {
	c := &Container{
		path:    archive,
		charset: CharsetLatin9,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	info, err := os.Stat(archive)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, c.fail("open", ErrNotFound)
		}
		return nil, c.fail("open", err)
	}
	if info.IsDir() {
		return nil, c.fail("open", fmt.Errorf("%w: %s is a directory", ErrNotFound, archive))
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, c.fail("open", fmt.Errorf("%w: %v", ErrFormat, err))
	}
	if err := zr.Close(); err != nil {
		return nil, c.fail("open", err)
	}

	dir, err := os.MkdirTemp(c.tempRoot, "mizkit-")
	if err != nil {
		return nil, c.fail("open", fmt.Errorf("failed to create scratch directory: %w", err))
	}
	c.scratchDir = dir
	c.logger.Debug("opened archive", "archive", archive, "scratch", dir)
	return c, nil
}

// Path returns the archive path the container was opened with.
func (c *Container) Path() string { return c.path }

// ScratchDir returns the private scratch directory.
func (c *Container) ScratchDir() string { return c.scratchDir }

// Charset returns the charset used for the Lua members.
func (c *Container) Charset() Charset { return c.charset }

// Members returns the member names captured by Unzip, in archive order.
func (c *Container) Members() []string { return slices.Clone(c.members) }

// Mission returns the decoded mission member, or nil before Decode.
func (c *Container) Mission() *Document { return c.mission }

// Dictionary returns the decoded l10n dictionary, or nil before Decode.
func (c *Container) Dictionary() *Document { return c.dictionary }

// MapResource returns the decoded l10n map resource, or nil before Decode.
func (c *Container) MapResource() *Document { return c.mapResource }

// MemberPath returns the scratch-directory path of a member.
func (c *Container) MemberPath(name string) string {
	return filepath.Join(c.scratchDir, filepath.FromSlash(name))
}

// HasMember reports whether name was captured by Unzip.
func (c *Container) HasMember(name string) bool {
	return slices.Contains(c.members, name)
}

// Unzip extracts every member into the scratch directory, one at a time, and
// records the member list. It fails with a StructureError when a required
// member is missing; the scratch directory is left in place for inspection.
func (c *Container) Unzip() error {
	if err := c.checkOpen("unzip"); err != nil {
		return err
	}
	if c.unzipped {
		return c.fail("unzip", fmt.Errorf("%w: archive already extracted", ErrLifecycle))
	}

	zr, err := zip.OpenReader(c.path)
	if err != nil {
		return c.fail("unzip", fmt.Errorf("%w: %v", ErrFormat, err))
	}
	defer zr.Close()

	seen := make(map[string]bool, len(zr.File))
	for _, file := range zr.File {
		if !localName(file.Name) {
			return c.fail("unzip", fmt.Errorf("%w: invalid member name %q", ErrFormat, file.Name))
		}
		if seen[file.Name] {
			return c.fail("unzip", fmt.Errorf("%w: duplicate member %q", ErrFormat, file.Name))
		}
		seen[file.Name] = true

		dest := c.MemberPath(file.Name)
		if isDirName(file.Name) || file.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return c.fail("unzip", fmt.Errorf("failed to create directory: %w", err))
			}
			c.members = append(c.members, file.Name)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return c.fail("unzip", fmt.Errorf("failed to create parent directory: %w", err))
		}
		if err := extractFile(file, dest); err != nil {
			return c.fail("unzip", fmt.Errorf("failed to extract %s: %w", file.Name, err))
		}
		c.members = append(c.members, file.Name)
	}
	c.unzipped = true
	c.logger.Debug("extracted archive", "archive", c.path, "members", len(c.members))

	var missing []string
	for _, name := range RequiredMembers() {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return c.fail("unzip", &StructureError{Missing: missing})
	}
	return nil
}

// Decode decodes the mission, dictionary and map resource members. Each
// member's qualifier must match its name.
func (c *Container) Decode() error {
	mission, err := c.DecodeMember(MemberMission)
	if err != nil {
		return err
	}
	dictionary, err := c.DecodeMember(MemberDictionary)
	if err != nil {
		return err
	}
	mapResource, err := c.DecodeMember(MemberMapResource)
	if err != nil {
		return err
	}
	c.mission, c.dictionary, c.mapResource = mission, dictionary, mapResource
	return nil
}

// DecodeMember reads and decodes any Lua member, for example options or
// warehouses. The returned document is not retained by the container.
func (c *Container) DecodeMember(name string) (*Document, error) {
	op := "decode " + name
	if err := c.checkUnzipped(op); err != nil {
		return nil, err
	}
	if !c.HasMember(name) {
		return nil, c.fail(op, &StructureError{Missing: []string{name}})
	}

	data, err := os.ReadFile(c.MemberPath(name))
	if err != nil {
		return nil, c.fail(op, err)
	}
	text, err := c.charset.decodeText(data)
	if err != nil {
		return nil, c.fail(op, err)
	}
	v, q, err := lua.Decode(text)
	if err != nil {
		return nil, c.fail(op, err)
	}
	if want := path.Base(name); q.Name != want {
		return nil, c.fail(op, fmt.Errorf("%w: member declares %q, expected %q", lua.ErrQualifier, q.Name, want))
	}
	return &Document{Value: v, Qualifier: q}, nil
}

// EncodeMember renders doc over the scratch file of member name.
func (c *Container) EncodeMember(name string, doc *Document) error {
	op := "encode " + name
	if err := c.checkUnzipped(op); err != nil {
		return err
	}
	if doc == nil {
		return c.fail(op, fmt.Errorf("%w: nothing decoded", ErrLifecycle))
	}
	text, err := lua.Encode(doc.Value, doc.Qualifier)
	if err != nil {
		return c.fail(op, err)
	}
	data, err := c.charset.encodeText(text)
	if err != nil {
		return c.fail(op, err)
	}
	if err := os.WriteFile(c.MemberPath(name), data, 0o644); err != nil {
		return c.fail(op, err)
	}
	return nil
}

// Encode re-renders the decoded mission, dictionary and map resource over
// their scratch files. It does nothing for members that were never decoded.
func (c *Container) Encode() error {
	docs := []struct {
		name string
		doc  *Document
	}{
		{MemberMission, c.mission},
		{MemberDictionary, c.dictionary},
		{MemberMapResource, c.mapResource},
	}
	for _, d := range docs {
		if d.doc == nil {
			continue
		}
		if err := c.EncodeMember(d.name, d.doc); err != nil {
			return err
		}
	}
	return nil
}

// Zip encodes the decoded members and writes a new archive to dest holding
// exactly the members captured by Unzip, in the same order. The archive is
// written to a temporary file next to dest and renamed into place.
func (c *Container) Zip(dest string) error {
	if err := c.checkUnzipped("zip"); err != nil {
		return err
	}
	if err := c.Encode(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".mizkit-*.tmp")
	if err != nil {
		return c.fail("zip", fmt.Errorf("failed to create temporary archive: %w", err))
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return c.fail("zip", err)
	}
	if err := c.writeArchive(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return c.fail("zip", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return c.fail("zip", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return c.fail("zip", fmt.Errorf("failed to move archive into place: %w", err))
	}
	c.logger.Debug("wrote archive", "dest", dest, "members", len(c.members))
	return nil
}

func (c *Container) writeArchive(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range c.members {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: zipEpoch}
		if isDirName(name) {
			header.Method = zip.Store
			if _, err := zw.CreateHeader(header); err != nil {
				return fmt.Errorf("failed to create directory entry: %w", err)
			}
			continue
		}

		data, err := os.ReadFile(c.MemberPath(name))
		if err != nil {
			return fmt.Errorf("failed to read member %s: %w", name, err)
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create ZIP entry: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("failed to write member %s: %w", name, err)
		}
	}
	return zw.Close()
}

// Close releases the container. The scratch directory is removed unless
// keepOnError is true, in which case it is kept and its path logged.
// Calling Close more than once is a no-op.
func (c *Container) Close(keepOnError bool) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if keepOnError {
		c.logger.Warn("keeping scratch directory for inspection", "archive", c.path, "dir", c.scratchDir)
		return nil
	}
	if err := os.RemoveAll(c.scratchDir); err != nil {
		return c.fail("close", err)
	}
	return nil
}

func (c *Container) checkOpen(op string) error {
	if c.closed {
		return c.fail(op, fmt.Errorf("%w: container is closed", ErrLifecycle))
	}
	return nil
}

func (c *Container) checkUnzipped(op string) error {
	if err := c.checkOpen(op); err != nil {
		return err
	}
	if !c.unzipped {
		return c.fail(op, fmt.Errorf("%w: archive not extracted yet", ErrLifecycle))
	}
	return nil
}

func (c *Container) fail(op string, err error) *Error {
	return &Error{Op: op, Archive: c.path, ScratchDir: c.scratchDir, Err: err}
}

// extractFile copies one ZIP member to destPath.
func extractFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destFile, rc); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// localName reports whether a member name stays inside the scratch directory:
// no absolute paths, drive letters or ".." segments.
func localName(name string) bool {
	if name == "" || strings.ContainsRune(name, '\\') {
		return false
	}
	if len(name) >= 2 && name[1] == ':' {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(strings.TrimSuffix(name, "/")))
}

func isDirName(name string) bool { return strings.HasSuffix(name, "/") }
