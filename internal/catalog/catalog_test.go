// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package catalog

import (
	"errors"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toeirei/fieldviewer/internal/model"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestList_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tower.ifc", "a-plan.pdf", "part.u3d", "p3.obj", "notes.txt", ".hidden.ifc")
	if err := os.Mkdir(filepath.Join(dir, "sub.ifc"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := "a-plan.pdf,p3.obj,part.u3d,tower.ifc"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("List names = %q, want %q", got, want)
	}
	if files[3].Kind != model.KindIFC {
		t.Errorf("tower.ifc kind = %q", files[3].Kind)
	}
}

func TestList_MissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "tower.ifc", "notes.txt")

	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "listed file", input: "tower.ifc"},
		{name: "missing file", input: "other.ifc", wantErr: ErrNotFound},
		{name: "unsupported extension", input: "notes.txt", wantErr: ErrNotFound},
		{name: "traversal", input: "../tower.ifc", wantErr: ErrInvalidName},
		{name: "separator", input: "a/b.ifc", wantErr: ErrInvalidName},
		{name: "empty", input: "", wantErr: ErrInvalidName},
		{name: "hidden", input: ".x.ifc", wantErr: ErrInvalidName},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Open(dir, tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Path != filepath.Join(dir, tc.input) {
				t.Errorf("unexpected path %q", f.Path)
			}
		})
	}
}

func TestRawURL_KeepsNameVerbatim(t *testing.T) {
	for _, name := range []string{"tower.ifc", "P3_v2-final.obj", "plan.PDF"} {
		got := RawURL("https://raw.githubusercontent.com/acme/models/main/", name)
		if !strings.HasSuffix(got, "/"+name) {
			t.Errorf("RawURL(%q) = %q, name not verbatim", name, got)
		}
		if strings.Contains(got, "main//") {
			t.Errorf("double slash in %q", got)
		}
	}
}

func TestRawURL_EscapesOtherNames(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{"my model.ifc", "http://h/files/my%20model.ifc"},
		{"Casa Norte.ifc", "http://h/files/Casa%20Norte.ifc"},
		{"planta_ñ.pdf", "http://h/files/planta_%C3%B1.pdf"},
		{"sección#2.obj", "http://h/files/secci%C3%B3n%232.obj"},
		{"a?b.u3d", "http://h/files/a%3Fb.u3d"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RawURL("http://h/files/", tc.name)
			if got != tc.want {
				t.Errorf("RawURL(%q) = %q, want %q", tc.name, got, tc.want)
			}
			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("parse %q: %v", got, err)
			}
			if path.Base(u.Path) != tc.name {
				t.Errorf("decoded name = %q, want %q", path.Base(u.Path), tc.name)
			}
		})
	}
}

func TestMergeAndFind(t *testing.T) {
	files := []model.ModelFile{{Name: "b.ifc", Kind: model.KindIFC}, {Name: "a.obj", Kind: model.KindOBJ}}
	projects := []model.Project{
		{Name: "Proyecto Beta", URL: "https://example.com/otro.obj?raw=1"},
		{Name: "Proyecto Alpha", URL: "https://example.com/p3.obj?raw=1", Kind: model.KindOBJ},
	}
	entries := Merge(files, projects)
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key())
	}
	want := "a.obj,b.ifc,project:Proyecto Alpha,project:Proyecto Beta"
	if got := strings.Join(keys, ","); got != want {
		t.Fatalf("keys = %q, want %q", got, want)
	}
	if entries[3].Kind != model.KindOBJ {
		t.Errorf("project kind not derived from URL: %q", entries[3].Kind)
	}

	e, ok := Find(entries, "project:Proyecto Beta")
	if !ok || e.Project == nil || e.Project.URL != "https://example.com/otro.obj?raw=1" {
		t.Fatalf("Find project failed: %+v %v", e, ok)
	}
	if _, ok := Find(entries, "missing"); ok {
		t.Fatalf("Find returned ok for missing key")
	}
}
