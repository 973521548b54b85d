// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// Member is a single archive entry used to build test mission files.
type Member struct {
	Name string
	Data string
}

// Minimal Lua payloads for the five members every mission archive carries.
const (
	MinimalMission     = "mission = \n{\n    [\"version\"] = 19,\n} -- end of mission\n"
	MinimalOptions     = "options = \n{\n    [\"difficulty\"] = \n    {\n        [\"labels\"] = 1,\n    }, -- end of [\"difficulty\"]\n} -- end of options\n"
	MinimalWarehouses  = "warehouses = \n{\n    [\"airports\"] = \n    {\n        [12] = \n        {\n            [\"coalition\"] = \"NEUTRAL\",\n        }, -- end of [12]\n    }, -- end of [\"airports\"]\n} -- end of warehouses\n"
	MinimalDictionary  = "dictionary = \n{\n    [\"DictKey_descriptionText_1\"] = \"\",\n} -- end of dictionary\n"
	MinimalMapResource = "mapResource = \n{\n} -- end of mapResource\n"
)

// MinimalMembers returns the five required members in the order the mission
// editor writes them.
func MinimalMembers() []Member {
	return []Member{
		{Name: "mission", Data: MinimalMission},
		{Name: "options", Data: MinimalOptions},
		{Name: "warehouses", Data: MinimalWarehouses},
		{Name: "l10n/DEFAULT/dictionary", Data: MinimalDictionary},
		{Name: "l10n/DEFAULT/mapResource", Data: MinimalMapResource},
	}
}

// WithMember returns members with name replaced by data, or appended when
// not present.
func WithMember(members []Member, name, data string) []Member {
	out := make([]Member, 0, len(members)+1)
	found := false
	for _, m := range members {
		if m.Name == name {
			m.Data = data
			found = true
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, Member{Name: name, Data: data})
	}
	return out
}

// WithoutMember returns members without name.
func WithoutMember(members []Member, name string) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Name != name {
			out = append(out, m)
		}
	}
	return out
}

// WriteMiz writes a deflated ZIP archive named name into dir and returns its
// path. The test fails immediately if the archive cannot be written.
func WriteMiz(t testing.TB, dir, name string, members []Member) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: m.Name, Method: zip.Deflate})
		if err != nil {
			t.Fatalf("failed to add %s: %v", m.Name, err)
		}
		if _, err := w.Write([]byte(m.Data)); err != nil {
			t.Fatalf("failed to write %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish %s: %v", path, err)
	}
	MustClose(t, f)
	return path
}

// ReadMiz returns the members of the archive at path in archive order.
// The test fails immediately if the archive cannot be read.
func ReadMiz(t testing.TB, path string) []Member {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer DeferClose(t, zr)()

	var out []Member
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open member %s: %v", f.Name, err)
		}
		data, err := readAll(rc)
		if err != nil {
			t.Fatalf("failed to read member %s: %v", f.Name, err)
		}
		out = append(out, Member{Name: f.Name, Data: string(data)})
	}
	return out
}
