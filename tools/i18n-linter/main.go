// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every message ID used in Go code and HTML
// templates exists in every locale file, and lists IDs no code uses.
//
//	go run ./tools/i18n-linter [-root .]
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location stores the file and line where an ID is used.
type Location struct {
	Filepath string
	Line     int
}

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var (
	goCallRe   = regexp.MustCompile(`\bT\("([a-z_]+(?:\.[a-z_]+)+)"`)
	templateRe = regexp.MustCompile(`\{\{-?\s*t\s+"([a-z_]+(?:\.[a-z_]+)+)"`)
)

// Report is the outcome of one lint run.
type Report struct {
	Used     map[string][]Location
	Locales  map[string]map[string]struct{}
	Missing  map[string][]string // locale file -> used IDs it lacks
	Orphaned []string            // IDs in the primary locale no code uses
}

// Failed reports whether any locale misses a used ID.
func (r *Report) Failed() bool {
	for _, ids := range r.Missing {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

func main() {
	root := flag.String("root", ".", "repository root")
	flag.Parse()

	rep, err := lint(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	printReport(os.Stdout, rep)
	if rep.Failed() {
		os.Exit(1)
	}
}

func lint(root string) (*Report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(root, localesDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no locale files in %s", filepath.Join(root, localesDir))
	}

	rep := &Report{
		Used:    used,
		Locales: make(map[string]map[string]struct{}),
		Missing: make(map[string][]string),
	}
	for _, f := range files {
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		name := filepath.Base(f)
		rep.Locales[name] = keys
		for id := range used {
			if _, ok := keys[id]; !ok {
				rep.Missing[name] = append(rep.Missing[name], id)
			}
		}
		sort.Strings(rep.Missing[name])
	}
	for id := range rep.Locales[primaryLocale] {
		if _, ok := used[id]; !ok {
			rep.Orphaned = append(rep.Orphaned, id)
		}
	}
	sort.Strings(rep.Orphaned)
	return rep, nil
}

func printReport(w io.Writer, rep *Report) {
	fmt.Fprintf(w, "%d message IDs used in code, %d locale files\n", len(rep.Used), len(rep.Locales))
	names := make([]string, 0, len(rep.Locales))
	for name := range rep.Locales {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		missing := rep.Missing[name]
		if len(missing) == 0 {
			fmt.Fprintf(w, "%s: ok\n", name)
			continue
		}
		fmt.Fprintf(w, "%s: %d missing\n", name, len(missing))
		for _, id := range missing {
			loc := rep.Used[id][0]
			fmt.Fprintf(w, "  - %s (%s:%d)\n", id, loc.Filepath, loc.Line)
		}
	}
	for _, id := range rep.Orphaned {
		fmt.Fprintf(w, "orphaned: %s\n", id)
	}
}

// findUsedKeys collects T("id") calls in non-test Go files and {{t "id"}}
// calls in HTML templates under root.
func findUsedKeys(root string) (map[string][]Location, error) {
	keys := make(map[string][]Location)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "tools", "_examples", ".git", "node_modules":
				return filepath.SkipDir
			}
			return nil
		}
		var re *regexp.Regexp
		switch {
		case strings.HasSuffix(path, "_test.go"):
			return nil
		case strings.HasSuffix(path, ".go"):
			re = goCallRe
		case strings.HasSuffix(path, ".html"):
			re = templateRe
		default:
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				keys[m[1]] = append(keys[m[1]], Location{Filepath: path, Line: i + 1})
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML file and returns its message IDs.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML turns nested maps into dot-separated IDs, the way go-i18n
// reads them.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
