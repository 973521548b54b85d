// SPDX-License-Identifier: MPL-2.0

package miz

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mizkit/mizkit/internal/testutil"
	"github.com/mizkit/mizkit/pkg/lua"

	"golang.org/x/exp/slices"
)

const endToEndMission = "mission = {\n [\"a\"] = 1,\n [\"b\"] = {\n [1] = \"x\",\n},\n} -- end of mission\n"

// openUnzipped opens and extracts archive, registering cleanup of the
// scratch directory.
func openUnzipped(t *testing.T, archive string, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithTempRoot(t.TempDir())}, opts...)
	c, err := Open(archive, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close(false) })
	if err := c.Unzip(); err != nil {
		t.Fatalf("Unzip() error = %v", err)
	}
	return c
}

func TestOpen_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, p := range []string{filepath.Join(dir, "missing.miz"), dir} {
		_, err := Open(p)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%s) error = %v, want ErrNotFound", p, err)
		}
		var me *Error
		if !errors.As(err, &me) || me.Op != "open" || me.Archive != p {
			t.Errorf("Open(%s) error = %#v, want *Error for op open", p, err)
		}
	}
}

func TestOpen_NotZip(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "text.miz")
	testutil.MustWriteFile(t, p, []byte("mission = {}"))
	if _, err := Open(p); !errors.Is(err, ErrFormat) {
		t.Errorf("Open() error = %v, want ErrFormat", err)
	}
}

func TestUnzip_MissingMember(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	members := testutil.WithoutMember(testutil.MinimalMembers(), MemberMapResource)
	archive := testutil.WriteMiz(t, dir, "broken.miz", members)

	c, err := Open(archive, WithTempRoot(t.TempDir()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	err = c.Unzip()

	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("Unzip() error = %v, want StructureError", err)
	}
	if len(se.Missing) != 1 || se.Missing[0] != MemberMapResource {
		t.Errorf("Missing = %v, want [%s]", se.Missing, MemberMapResource)
	}
	if !errors.Is(err, ErrStructure) {
		t.Error("errors.Is(err, ErrStructure) = false")
	}
	if !strings.Contains(err.Error(), c.ScratchDir()) {
		t.Errorf("error %q does not mention scratch directory %s", err, c.ScratchDir())
	}

	if err := c.Close(true); err != nil {
		t.Fatalf("Close(true) error = %v", err)
	}
	if _, err := os.Stat(c.MemberPath(MemberMission)); err != nil {
		t.Errorf("scratch directory was not kept: %v", err)
	}
}

func TestUnzip_RejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../escape", "l10n/../../escape", "/abs/file", "C:/windows", `l10n\DEFAULT\dictionary`} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			scratch := filepath.Join(root, "scratch")
			testutil.MustMkdirAll(t, scratch, 0o755)
			members := append(testutil.MinimalMembers(), testutil.Member{Name: name, Data: "x"})
			archive := testutil.WriteMiz(t, root, "bad.miz", members)

			c, err := Open(archive, WithTempRoot(scratch))
			if err == nil {
				defer c.Close(false)
				err = c.Unzip()
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("error = %v, want ErrFormat", err)
			}
			if _, statErr := os.Stat(filepath.Join(scratch, "escape")); statErr == nil {
				t.Error("member was written outside the scratch directory")
			}
		})
	}
}

func TestContainer_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	members := testutil.WithMember(testutil.MinimalMembers(), MemberMission, endToEndMission)
	archive := testutil.WriteMiz(t, dir, "in.miz", members)
	out := filepath.Join(dir, "out.miz")

	c := openUnzipped(t, archive)
	if err := c.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := c.Zip(out); err != nil {
		t.Fatalf("Zip() error = %v", err)
	}

	c2 := openUnzipped(t, out)
	if err := c2.Decode(); err != nil {
		t.Fatalf("Decode() of re-zipped archive error = %v", err)
	}

	want, err := lua.DecodeValue(`{a = 1, b = {"x"}}`)
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if got := c2.Mission().Value; !got.Equal(want) {
		t.Errorf("mission = %#v, want %#v", got, want)
	}
	if d := c2.Dictionary(); d == nil || d.Qualifier.Name != lua.QualifierDictionary {
		t.Errorf("dictionary = %+v", d)
	}
	if !c2.HasMember(MemberWarehouses) || c2.HasMember("briefing.txt") {
		t.Error("HasMember() does not reflect the extracted members")
	}
	if c2.MapResource().Value.Len() != 0 {
		t.Errorf("mapResource = %#v, want empty", c2.MapResource().Value)
	}
}

func TestZip_PreservesMembers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	image := string([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10})
	base := testutil.MinimalMembers()
	members := []testutil.Member{
		base[0], base[1], base[2],
		{Name: "l10n/"},
		{Name: "l10n/DEFAULT/"},
		base[3], base[4],
		{Name: "l10n/DEFAULT/briefing.png", Data: image},
		{Name: "theatre", Data: "Caucasus"},
	}
	archive := testutil.WriteMiz(t, dir, "in.miz", members)
	out := filepath.Join(dir, "out.miz")

	c := openUnzipped(t, archive)
	if err := c.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := c.Zip(out); err != nil {
		t.Fatalf("Zip() error = %v", err)
	}

	got := testutil.ReadMiz(t, out)
	if len(got) != len(members) {
		t.Fatalf("Zip() wrote %d members, want %d", len(got), len(members))
	}
	for i, m := range members {
		if got[i].Name != m.Name {
			t.Errorf("member %d = %s, want %s", i, got[i].Name, m.Name)
		}
	}

	untouched := map[string]string{
		MemberOptions:               testutil.MinimalOptions,
		MemberWarehouses:            testutil.MinimalWarehouses,
		"l10n/DEFAULT/briefing.png": image,
		"theatre":                   "Caucasus",
	}
	for _, m := range got {
		if want, ok := untouched[m.Name]; ok && m.Data != want {
			t.Errorf("member %s changed: %q, want %q", m.Name, m.Data, want)
		}
	}
	if !slices.Equal(c.Members(), namesOf(members)) {
		t.Errorf("Members() = %v", c.Members())
	}
}

func TestZip_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := testutil.WriteMiz(t, dir, "in.miz", testutil.MinimalMembers())

	var outputs [][]byte
	for _, name := range []string{"a.miz", "b.miz"} {
		c := openUnzipped(t, archive)
		if err := c.Decode(); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		out := filepath.Join(dir, name)
		if err := c.Zip(out); err != nil {
			t.Fatalf("Zip() error = %v", err)
		}
		outputs = append(outputs, testutil.MustReadFile(t, out))
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("zipping the same content twice produced different archives")
	}
}

func TestZip_InPlace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := testutil.WriteMiz(t, dir, "op.miz", testutil.MinimalMembers())

	c := openUnzipped(t, archive)
	if err := c.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	c.Mission().Value.Table().Set(lua.StringKey("sortie"), lua.String("Night strike"))
	if err := c.Zip(archive); err != nil {
		t.Fatalf("Zip() error = %v", err)
	}

	for _, m := range testutil.ReadMiz(t, archive) {
		if m.Name == MemberMission && !strings.Contains(m.Data, `["sortie"] = "Night strike",`) {
			t.Errorf("mission member = %q, want the new sortie", m.Data)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the archive", len(entries))
	}
}

func TestDecode_Charset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mission := "mission = \n{\n    [\"sortie\"] = \"Prix \xa4\",\n} -- end of mission\n"
	archive := testutil.WriteMiz(t, dir, "in.miz",
		testutil.WithMember(testutil.MinimalMembers(), MemberMission, mission))

	c := openUnzipped(t, archive)
	if err := c.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	sortie, _ := c.Mission().Value.Lookup("sortie")
	if s, _ := sortie.AsString(); s != "Prix \u20ac" {
		t.Errorf("sortie = %q, want %q", s, "Prix \u20ac")
	}

	c.Mission().Value.Table().Set(lua.StringKey("sortie"), lua.String("Caf\u00e9 \u20ac"))
	out := filepath.Join(dir, "out.miz")
	if err := c.Zip(out); err != nil {
		t.Fatalf("Zip() error = %v", err)
	}
	for _, m := range testutil.ReadMiz(t, out) {
		if m.Name == MemberMission && !strings.Contains(m.Data, "\"Caf\xe9 \xa4\"") {
			t.Errorf("mission member = %q, want ISO-8859-15 bytes", m.Data)
		}
	}

	c.Mission().Value.Table().Set(lua.StringKey("sortie"), lua.String("\u65e5\u672c"))
	if err := c.Encode(); !errors.Is(err, ErrCharset) {
		t.Errorf("Encode() error = %v, want ErrCharset", err)
	}
}

func TestDecode_UTF8Charset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mission := "mission = \n{\n    [\"sortie\"] = \"\xa4\",\n} -- end of mission\n"
	archive := testutil.WriteMiz(t, dir, "in.miz",
		testutil.WithMember(testutil.MinimalMembers(), MemberMission, mission))

	c := openUnzipped(t, archive, WithCharset(CharsetUTF8))
	if err := c.Decode(); !errors.Is(err, ErrCharset) {
		t.Errorf("Decode() error = %v, want ErrCharset", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		member  string
		data    string
		wantErr error
	}{
		{"parse error", MemberMission, "mission = \n{\n    [\"a\"] = ,\n}", lua.ErrParse},
		{"wrong qualifier", MemberMission, "dictionary = \n{}", lua.ErrQualifier},
		{"wrong dictionary qualifier", MemberDictionary, "mission = \n{}", lua.ErrQualifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			archive := testutil.WriteMiz(t, dir, "in.miz",
				testutil.WithMember(testutil.MinimalMembers(), tt.member, tt.data))
			c := openUnzipped(t, archive)

			err := c.Decode()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			var me *Error
			if !errors.As(err, &me) || me.Op != "decode "+tt.member {
				t.Errorf("error = %#v, want *Error for decode %s", err, tt.member)
			}
			if c.Mission() != nil {
				t.Error("Mission() should stay nil after a failed Decode")
			}
		})
	}
}

func TestDecodeMember(t *testing.T) {
	t.Parallel()

	archive := testutil.WriteMiz(t, t.TempDir(), "in.miz", testutil.MinimalMembers())
	c := openUnzipped(t, archive)

	doc, err := c.DecodeMember(MemberWarehouses)
	if err != nil {
		t.Fatalf("DecodeMember() error = %v", err)
	}
	coalition, ok := doc.Value.Lookup("airports", "12", "coalition")
	if s, _ := coalition.AsString(); !ok || s != "NEUTRAL" {
		t.Errorf("coalition = %#v, want NEUTRAL", coalition)
	}

	if _, err := c.DecodeMember("l10n/DEFAULT/missing"); !errors.Is(err, ErrStructure) {
		t.Errorf("DecodeMember(missing) error = %v, want ErrStructure", err)
	}
}

func TestContainer_Lifecycle(t *testing.T) {
	t.Parallel()

	archive := testutil.WriteMiz(t, t.TempDir(), "in.miz", testutil.MinimalMembers())
	c, err := Open(archive, WithTempRoot(t.TempDir()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := c.Decode(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("Decode() before Unzip error = %v, want ErrLifecycle", err)
	}
	if err := c.Zip(filepath.Join(t.TempDir(), "out.miz")); !errors.Is(err, ErrLifecycle) {
		t.Errorf("Zip() before Unzip error = %v, want ErrLifecycle", err)
	}
	if err := c.Unzip(); err != nil {
		t.Fatalf("Unzip() error = %v", err)
	}
	if err := c.Unzip(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("second Unzip() error = %v, want ErrLifecycle", err)
	}

	if err := c.Close(false); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(c.ScratchDir()); !os.IsNotExist(err) {
		t.Errorf("scratch directory still exists after Close(false): %v", err)
	}
	if err := c.Close(false); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := c.Decode(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("Decode() after Close error = %v, want ErrLifecycle", err)
	}
}

func TestParseCharset(t *testing.T) {
	t.Parallel()

	tests := map[string]Charset{
		"":            CharsetLatin9,
		"ISO-8859-15": CharsetLatin9,
		"iso8859_15":  CharsetLatin9,
		"latin-9":     CharsetLatin9,
		"UTF-8":       CharsetUTF8,
		"utf8":        CharsetUTF8,
	}
	for in, want := range tests {
		got, err := ParseCharset(in)
		if err != nil || got != want {
			t.Errorf("ParseCharset(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseCharset("koi8-r"); !errors.Is(err, ErrCharset) {
		t.Errorf("ParseCharset(koi8-r) error = %v, want ErrCharset", err)
	}
}

func namesOf(members []testutil.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
