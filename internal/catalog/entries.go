// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package catalog

import (
	"sort"
	"strings"

	"github.com/toeirei/fieldviewer/internal/model"
)

// Source tells where an entry's bytes live.
type Source string

const (
	SourceFile    Source = "file"
	SourceProject Source = "project"
)

// Entry is one option in the picker.
type Entry struct {
	Label   string           `json:"label"`
	Kind    model.Kind       `json:"kind"`
	Source  Source           `json:"source"`
	File    *model.ModelFile `json:"file,omitempty"`
	Project *model.Project   `json:"project,omitempty"`
}

// Key returns the identifier used in URLs and forms: the file name for
// local files, "project:<name>" for projects.
func (e Entry) Key() string {
	if e.Source == SourceProject {
		return "project:" + e.Label
	}
	return e.Label
}

// Merge builds the picker entries: local files first, then projects, each
// group sorted by label.
func Merge(files []model.ModelFile, projects []model.Project) []Entry {
	entries := make([]Entry, 0, len(files)+len(projects))
	for i := range files {
		f := files[i]
		entries = append(entries, Entry{Label: f.Name, Kind: f.Kind, Source: SourceFile, File: &f})
	}
	start := len(entries)
	for i := range projects {
		p := projects[i]
		kind := p.Kind
		if !kind.Supported() {
			kind = model.KindFromName(p.URL)
		}
		entries = append(entries, Entry{Label: p.Name, Kind: kind, Source: SourceProject, Project: &p})
	}
	sort.SliceStable(entries[:start], func(i, j int) bool { return entries[i].Label < entries[j].Label })
	projectEntries := entries[start:]
	sort.SliceStable(projectEntries, func(i, j int) bool {
		return strings.ToLower(projectEntries[i].Label) < strings.ToLower(projectEntries[j].Label)
	})
	return entries
}

// Find returns the entry whose Key matches key.
func Find(entries []Entry, key string) (Entry, bool) {
	for _, e := range entries {
		if e.Key() == key {
			return e, true
		}
	}
	return Entry{}, false
}
