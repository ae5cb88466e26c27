// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the plain data types shared by the catalog, analysis,
// storage and UI layers.
package model

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies the format of a model file by its extension.
type Kind string

const (
	KindIFC     Kind = "ifc"
	KindPDF     Kind = "pdf"
	KindU3D     Kind = "u3d"
	KindOBJ     Kind = "obj"
	KindUnknown Kind = "unknown"
)

// SupportedKinds lists the kinds the catalog picks up, in display order.
var SupportedKinds = []Kind{KindIFC, KindPDF, KindU3D, KindOBJ}

// KindFromName maps a file name (or URL path) to its Kind. The match is
// case-insensitive; query strings are ignored.
func KindFromName(name string) Kind {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ifc":
		return KindIFC
	case ".pdf":
		return KindPDF
	case ".u3d":
		return KindU3D
	case ".obj":
		return KindOBJ
	default:
		return KindUnknown
	}
}

// Supported reports whether the catalog handles this kind.
func (k Kind) Supported() bool {
	return k != KindUnknown && k != ""
}

var (
	// ErrProjectURL marks a project URL that is not absolute http(s).
	ErrProjectURL = errors.New("project url must be an absolute http or https url")
	// ErrProjectKind marks a project URL whose path has no supported extension.
	ErrProjectKind = errors.New("project url does not name an .ifc, .pdf, .u3d or .obj file")
)

// ProjectKind checks raw as a project URL and returns the kind its path names.
func ProjectKind(raw string) (Kind, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return KindUnknown, ErrProjectURL
	}
	k := KindFromName(u.Path)
	if !k.Supported() {
		return KindUnknown, ErrProjectKind
	}
	return k, nil
}

// ModelFile is a model file found in the models directory.
type ModelFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"-"`
	Kind    Kind      `json:"kind"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Project maps a project name to the external URL of its model.
type Project struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// ElementCount is the number of IFC elements of one type.
type ElementCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// StoreyCount holds the element counts contained in one building storey.
type StoreyCount struct {
	Name      string         `json:"name"`
	Elevation float64        `json:"elevation"`
	Counts    []ElementCount `json:"counts"`
}

// IFCSummary is the metric set shown for an IFC model.
type IFCSummary struct {
	Schema      string         `json:"schema"`
	ProjectName string         `json:"project_name"`
	EntityCount int            `json:"entity_count"`
	Counts      []ElementCount `json:"counts"`
	Storeys     []StoreyCount  `json:"storeys,omitempty"`
}

// Empty reports whether the summary carries no data, which is the fallback
// result after a failed parse.
func (s IFCSummary) Empty() bool {
	return s.EntityCount == 0 && len(s.Counts) == 0
}

// Count returns the count recorded for typ, or 0.
func (s IFCSummary) Count(typ string) int {
	for _, c := range s.Counts {
		if strings.EqualFold(c.Type, typ) {
			return c.Count
		}
	}
	return 0
}

// Vec3 is a point in model space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MeshSummary describes an OBJ mesh.
type MeshSummary struct {
	Vertices    int     `json:"vertices"`
	Faces       int     `json:"faces"`
	Triangles   int     `json:"triangles"`
	Min         Vec3    `json:"min"`
	Max         Vec3    `json:"max"`
	SurfaceArea float64 `json:"surface_area"`
}

// Size returns the extent of the bounding box on each axis.
func (m MeshSummary) Size() Vec3 {
	return Vec3{X: m.Max.X - m.Min.X, Y: m.Max.Y - m.Min.Y, Z: m.Max.Z - m.Min.Z}
}

// AuditLogEntry represents a single entry in the audit log.
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// CachedSummary is a stored IFC summary keyed by source and content hash.
type CachedSummary struct {
	Source    string     `json:"source"`
	SHA256    string     `json:"sha256"`
	Summary   IFCSummary `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
}
