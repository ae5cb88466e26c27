// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFlattenYAML(t *testing.T) {
	m := map[string]any{
		"web":        map[string]any{"title": "x", "login": map[string]any{"failed": "y"}},
		"tui.copied": "z",
	}
	keys := make(map[string]struct{})
	flattenYAML("", m, keys)
	for _, want := range []string{"web.title", "web.login.failed", "tui.copied"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("missing %s in %v", want, keys)
		}
	}
}

func TestFindUsedKeys(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a/a.go":           "package a\nfunc f() { _ = i18n.T(\"web.title\"); _ = T(\"tui.copied\", 1) }\n",
		"a/a_test.go":      "package a\nvar _ = i18n.T(\"test.only\")\n",
		"a/page.html":      "<h1>{{t \"web.heading\"}}</h1>{{- t \"web.trim\" .X}}",
		"tools/x/x.go":     "package x\nvar _ = i18n.T(\"tools.skip\")\n",
		"a/notes.txt":      "T(\"not.scanned\")",
		"a/b/lowercase.go": "package b\nvar _ = fmt.Sprint(\"plain.text\")\n",
	})
	used, err := findUsedKeys(dir)
	if err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		id   string
		want bool
	}{
		{"web.title", true},
		{"tui.copied", true},
		{"web.heading", true},
		{"web.trim", true},
		{"test.only", false},
		{"tools.skip", false},
		{"not.scanned", false},
		{"plain.text", false},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			if _, ok := used[tc.id]; ok != tc.want {
				t.Errorf("found = %v, want %v", ok, tc.want)
			}
		})
	}
	if loc := used["web.title"][0]; loc.Line != 2 {
		t.Errorf("line = %d, want 2", loc.Line)
	}
}

func TestLintReportsMissingAndOrphaned(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.go":                       "package main\nvar _ = i18n.T(\"web.title\")\nvar _ = i18n.T(\"web.login\")\n",
		"internal/i18n/locales/en.yaml": "\"web.title\": \"Title\"\n\"web.login\": \"Log in\"\n\"web.unused\": \"x\"\n",
		"internal/i18n/locales/es.yaml": "\"web.title\": \"Título\"\n",
	})
	rep, err := lint(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Failed() {
		t.Fatal("expected failure")
	}
	if got := rep.Missing["es.yaml"]; len(got) != 1 || got[0] != "web.login" {
		t.Errorf("missing = %v", got)
	}
	if len(rep.Missing["en.yaml"]) != 0 {
		t.Errorf("en.yaml reported missing %v", rep.Missing["en.yaml"])
	}
	if len(rep.Orphaned) != 1 || rep.Orphaned[0] != "web.unused" {
		t.Errorf("orphaned = %v", rep.Orphaned)
	}

	var out bytes.Buffer
	printReport(&out, rep)
	if !strings.Contains(out.String(), "es.yaml: 1 missing") || !strings.Contains(out.String(), "orphaned: web.unused") {
		t.Errorf("report:\n%s", out.String())
	}
}

func TestLintRepositoryLocales(t *testing.T) {
	root := filepath.Join("..", "..")
	if _, err := os.Stat(filepath.Join(root, localesDir, primaryLocale)); err != nil {
		t.Skip("repository locales not available")
	}
	rep, err := lint(root)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Failed() {
		var out bytes.Buffer
		printReport(&out, rep)
		t.Fatalf("locales are incomplete:\n%s", out.String())
	}
}
