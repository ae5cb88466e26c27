// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/toeirei/fieldviewer/internal/catalog"
	"github.com/toeirei/fieldviewer/internal/testutil"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

type testEnv struct {
	dir       string
	modelsDir string
	dsn       string
}

// newTestEnv isolates config lookup and gives each test its own sqlite
// file and models directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	t.Setenv("USER", "tester")
	t.Chdir(dir)
	modelsDir := testutil.WriteFiles(t, map[string]string{
		"casa.ifc":  testutil.HouseIFC,
		"roto.ifc":  testutil.BrokenIFC,
		"cubo.obj":  testutil.CubeOBJ,
		"plano.pdf": "%PDF-1.4\n",
		"notas.txt": "not a model",
	})
	return &testEnv{dir: dir, modelsDir: modelsDir, dsn: filepath.Join(dir, "fv.db")}
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return e.runDSN(t, e.dsn, stdin, args...)
}

func (e *testEnv) runDSN(t *testing.T, dsn, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--database.dsn", dsn, "--models.dir", e.modelsDir))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "list")
	if err != nil {
		t.Fatalf("list: %v\n%s", err, out)
	}
	for _, want := range []string{"casa.ifc", "cubo.obj", "plano.pdf", "http://localhost:8080/files/casa.ifc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "notas.txt") {
		t.Errorf("unsupported file listed:\n%s", out)
	}
}

func TestListJSON(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v\n%s", err, out)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Label != "casa.ifc" {
		t.Errorf("first entry = %s, want casa.ifc", entries[0].Label)
	}
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	path := filepath.Join(env.dir, "config", "fieldviewer", "fieldviewer.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestMissingConfigFlagFails(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "", "list", "--config", filepath.Join(env.dir, "nope.yaml")); err == nil {
		t.Fatal("expected error for missing --config file")
	}
}

func TestConfigSeededProjects(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"valid seed listed", "https://example.com/torre.ifc", ""},
		{"no model extension", "https://example.com/torre", "projects[0] Torre"},
		{"not http", "ftp://example.com/torre.ifc", "projects[0] Torre"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			path := filepath.Join(env.dir, "seed.yaml")
			content := "projects:\n  - name: Torre\n    url: " + tc.url + "\n"
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			out, err := env.run(t, "", "list", "--config", path)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("list: %v\n%s", err, out)
			}
			if !strings.Contains(out, tc.url) {
				t.Errorf("seeded project missing:\n%s", out)
			}
		})
	}
}

func TestLinksCommand(t *testing.T) {
	env := newTestEnv(t)
	testCases := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"ifc default viewer", []string{"links", "casa.ifc"}, []string{
			"https://3dviewer.net/#model=http://localhost:8080/files/casa.ifc",
			`<iframe src="https://3dviewer.net/embed.html#model=http://localhost:8080/files/casa.ifc"`,
		}, false},
		{"pdf picked viewer", []string{"links", "plano.pdf", "--viewer", "pdfjs"}, []string{
			"* pdfjs",
			"viewer.html?file=http://localhost:8080/files/plano.pdf",
		}, false},
		{"unknown viewer", []string{"links", "casa.ifc", "--viewer", "nope"}, nil, true},
		{"unknown model", []string{"links", "falta.ifc"}, nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := env.run(t, "", tc.args...)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v\n%s", err, tc.wantErr, out)
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestLinksJSON(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "links", "cubo.obj", "--json")
	if err != nil {
		t.Fatalf("links: %v\n%s", err, out)
	}
	var links viewer.Links
	if err := json.Unmarshal([]byte(out), &links); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if links.Raw != "http://localhost:8080/files/cubo.obj" {
		t.Errorf("raw = %s", links.Raw)
	}
	if links.Selected != "3dviewer" {
		t.Errorf("selected = %s, want 3dviewer", links.Selected)
	}
}

func TestStatsCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "stats", "casa.ifc", "--json")
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, out)
	}
	var res statsOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Summary == nil {
		t.Fatal("missing summary")
	}
	if got := res.Summary.Count("IfcWall"); got != 3 {
		t.Errorf("IfcWall = %d, want 3", got)
	}
	if got := res.Summary.Count("IfcDoor"); got != 2 {
		t.Errorf("IfcDoor = %d, want 2", got)
	}

	out, err = env.run(t, "", "stats", "cubo.obj")
	if err != nil {
		t.Fatalf("stats obj: %v\n%s", err, out)
	}
	if !strings.Contains(out, "8") || !strings.Contains(out, "12") {
		t.Errorf("mesh counts missing:\n%s", out)
	}
}

func TestStatsBrokenModelFallsBackToEmpty(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "stats", "roto.ifc", "--json")
	if err == nil {
		t.Fatal("expected an error for a malformed model")
	}
	// The JSON document precedes cobra's error line.
	dec := json.NewDecoder(strings.NewReader(out))
	var res statsOutput
	if err := dec.Decode(&res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Error == "" {
		t.Error("error not reported")
	}
	if res.Summary == nil || !res.Summary.Empty() {
		t.Errorf("summary = %+v, want empty", res.Summary)
	}
}

func TestStatsCustomTypes(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "", "stats", "casa.ifc", "--json", "--types", "IfcSlab")
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, out)
	}
	var res statsOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Summary.Counts) != 1 || res.Summary.Counts[0].Type != "IfcSlab" || res.Summary.Counts[0].Count != 1 {
		t.Errorf("counts = %+v", res.Summary.Counts)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)

	if out, err := env.run(t, "", "project", "add", "Torre", "https://example.com/torre.ifc"); err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if _, err := env.run(t, "", "project", "add", "Torre", "https://example.com/otra.ifc"); err == nil {
		t.Error("duplicate add succeeded")
	}
	if _, err := env.run(t, "", "project", "add", "Mala", "ftp://example.com/x.ifc"); err == nil {
		t.Error("non-http url accepted")
	}
	if _, err := env.run(t, "", "project", "add", "Hoja", "https://example.com/x.xlsx"); err == nil {
		t.Error("unsupported kind accepted")
	}

	out, err := env.run(t, "", "project", "list")
	if err != nil || !strings.Contains(out, "Torre") || !strings.Contains(out, "ifc") {
		t.Fatalf("list = %q, %v", out, err)
	}

	out, err = env.run(t, "", "links", "project:Torre")
	if err != nil {
		t.Fatalf("links: %v\n%s", err, out)
	}
	if !strings.Contains(out, "https://3dviewer.net/#model=https://example.com/torre.ifc") {
		t.Errorf("project link missing:\n%s", out)
	}

	if out, err := env.run(t, "", "project", "remove", "Torre"); err != nil {
		t.Fatalf("remove: %v\n%s", err, out)
	}
	if _, err := env.run(t, "", "project", "remove", "Torre"); err == nil {
		t.Error("second remove succeeded")
	}

	out, err = env.run(t, "", "audit")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	for _, want := range []string{"ADD_PROJECT", "REMOVE_PROJECT", "torre.ifc"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit missing %q:\n%s", want, out)
		}
	}
}

func TestBackupRestore(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "", "project", "add", "Torre", "https://example.com/torre.ifc"); err != nil {
		t.Fatalf("add: %v", err)
	}

	snap := filepath.Join(env.dir, "snap")
	if out, err := env.run(t, "", "backup", snap); err != nil {
		t.Fatalf("backup: %v\n%s", err, out)
	}
	if _, err := os.Stat(snap + ".zst"); err != nil {
		t.Fatalf("backup file: %v", err)
	}

	other := filepath.Join(env.dir, "other.db")
	if out, err := env.runDSN(t, other, "", "restore", "--full", snap+".zst"); err != nil {
		t.Fatalf("restore: %v\n%s", err, out)
	}
	out, err := env.runDSN(t, other, "", "project", "list")
	if err != nil || !strings.Contains(out, "torre.ifc") {
		t.Fatalf("restored list = %q, %v", out, err)
	}
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "", "project", "add", "Torre", "https://example.com/torre.ifc"); err != nil {
		t.Fatalf("add: %v", err)
	}
	target := filepath.Join(env.dir, "target.db")
	if out, err := env.run(t, "", "migrate", "--target-type", "sqlite", "--target-dsn", target); err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}
	out, err := env.runDSN(t, target, "", "project", "list")
	if err != nil || !strings.Contains(out, "Torre") {
		t.Fatalf("target list = %q, %v", out, err)
	}
	if _, err := env.run(t, "", "migrate", "--target-type", "oracle", "--target-dsn", target); err == nil {
		t.Error("unsupported target type accepted")
	}
}

func TestDBMaintain(t *testing.T) {
	env := newTestEnv(t)
	if out, err := env.run(t, "", "db-maintain"); err != nil {
		t.Fatalf("db-maintain: %v\n%s", err, out)
	}
}

func TestHashPassword(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "s3cret\n", "user", "hash-password")
	if err != nil {
		t.Fatalf("hash-password: %v\n%s", err, out)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match: %v (%q)", err, hash)
	}
	if _, err := os.Stat(env.dsn); !os.IsNotExist(err) {
		t.Error("hash-password should not open the database")
	}

	if _, err := env.run(t, "\n", "user", "hash-password"); err == nil {
		t.Error("empty password accepted")
	}
}

func TestDefaultBackupName(t *testing.T) {
	got := defaultBackupName(mustTime(t, "2026-03-04T10:00:00Z"))
	if got != "fieldviewer-backup-2026-03-04.json.zst" {
		t.Errorf("got %s", got)
	}
}
