// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package catalog enumerates the model files offered by the picker and
// merges them with the configured external projects.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toeirei/fieldviewer/internal/model"
)

var (
	// ErrNotFound is returned when a name is not part of the catalog.
	ErrNotFound = errors.New("model not found")
	// ErrInvalidName is returned for names that could escape the models directory.
	ErrInvalidName = errors.New("invalid model name")
)

// List returns the supported model files directly inside dir, sorted by name.
// Hidden files and subdirectories are skipped.
func List(dir string) ([]model.ModelFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read models directory %s: %w", dir, err)
	}

	var files []model.ModelFile
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		kind := model.KindFromName(entry.Name())
		if !kind.Supported() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, model.ModelFile{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ValidateName rejects names that are empty, hidden, or contain path elements.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) || strings.Contains(name, "\x00") {
		return ErrInvalidName
	}
	return nil
}

// Open resolves name to a listed model file in dir.
func Open(dir, name string) (model.ModelFile, error) {
	if err := ValidateName(name); err != nil {
		return model.ModelFile{}, err
	}
	kind := model.KindFromName(name)
	if !kind.Supported() {
		return model.ModelFile{}, ErrNotFound
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ModelFile{}, ErrNotFound
		}
		return model.ModelFile{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return model.ModelFile{}, ErrNotFound
	}
	return model.ModelFile{
		Name:    name,
		Path:    path,
		Kind:    kind,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RawURL joins base and the escaped file name. Names made only of letters,
// digits, '-', '_' and '.' come out verbatim.
func RawURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(name)
}
