// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package analysis loads catalog entries and derives their metrics: IFC
// element counts (cached by content hash) and OBJ mesh summaries.
package analysis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/toeirei/fieldviewer/internal/catalog"
	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/ifc"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/mesh"
	"github.com/toeirei/fieldviewer/internal/model"
)

// Audit actions recorded by the service.
const (
	ActionView    = "VIEW_MODEL"
	ActionAnalyze = "ANALYZE_MODEL"
)

// ErrWrongKind is returned when an entry is analyzed as the wrong format.
var ErrWrongKind = errors.New("entry has a different model format")

// Service analyzes catalog entries. Store is optional; without it nothing is
// cached or audited.
type Service struct {
	Store      db.Store
	Fetcher    Fetcher
	CountTypes []string
	MaxBytes   int64
}

// Load returns the raw bytes of the entry.
func (s *Service) Load(ctx context.Context, e catalog.Entry) ([]byte, error) {
	switch e.Source {
	case catalog.SourceFile:
		if e.File == nil {
			return nil, fmt.Errorf("entry %s has no file", e.Label)
		}
		f, err := os.Open(e.File.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", e.Label, err)
		}
		defer func() { _ = f.Close() }()
		return readLimited(f, s.MaxBytes)
	case catalog.SourceProject:
		if e.Project == nil {
			return nil, fmt.Errorf("entry %s has no project", e.Label)
		}
		if s.Fetcher == nil {
			return nil, errors.New("remote models are not enabled")
		}
		return s.Fetcher.Fetch(ctx, e.Project.URL)
	}
	return nil, fmt.Errorf("entry %s has unknown source %q", e.Label, e.Source)
}

func (s *Service) countTypes() []string {
	if len(s.CountTypes) == 0 {
		return ifc.DefaultCountTypes
	}
	return s.CountTypes
}

// IFC returns the element counts for an IFC entry. On any failure the
// summary is empty and err says what went wrong.
func (s *Service) IFC(ctx context.Context, e catalog.Entry, user string) (model.IFCSummary, error) {
	if e.Kind != model.KindIFC {
		return model.IFCSummary{}, fmt.Errorf("%s: %w", e.Label, ErrWrongKind)
	}
	data, err := s.Load(ctx, e)
	if err != nil {
		return model.IFCSummary{}, err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	types := s.countTypes()

	if s.Store != nil {
		cached, err := s.Store.GetSummary(ctx, e.Key(), hash)
		switch {
		case err == nil && sameTypes(cached.Summary, types):
			logging.Debugf("analysis: cache hit for %s (%s)", e.Key(), hash[:12])
			return cached.Summary, nil
		case err != nil && !errors.Is(err, db.ErrNotFound):
			logging.Warnf("analysis: summary cache lookup for %s failed: %v", e.Key(), err)
		}
	}

	start := time.Now()
	summary, err := ifc.SummarizeReader(bytes.NewReader(data), types)
	if err != nil {
		return model.IFCSummary{}, fmt.Errorf("could not read %s: %w", e.Label, err)
	}
	logging.Debugf("analysis: parsed %s (%d entities) in %s", e.Label, summary.EntityCount, time.Since(start))

	if s.Store != nil {
		if err := s.Store.PutSummary(ctx, model.CachedSummary{Source: e.Key(), SHA256: hash, Summary: summary}); err != nil {
			logging.Warnf("analysis: caching summary for %s failed: %v", e.Key(), err)
		}
		s.audit(ctx, user, ActionAnalyze, fmt.Sprintf("%s sha256=%s", e.Key(), hash))
	}
	return summary, nil
}

// sameTypes reports whether s was computed for exactly types.
func sameTypes(s model.IFCSummary, types []string) bool {
	if len(s.Counts) != len(types) {
		return false
	}
	for i, c := range s.Counts {
		if !strings.EqualFold(c.Type, types[i]) {
			return false
		}
	}
	return true
}

// OBJ parses an OBJ entry.
func (s *Service) OBJ(ctx context.Context, e catalog.Entry) (*mesh.Mesh, error) {
	if e.Kind != model.KindOBJ {
		return nil, fmt.Errorf("%s: %w", e.Label, ErrWrongKind)
	}
	data, err := s.Load(ctx, e)
	if err != nil {
		return nil, err
	}
	m, err := mesh.ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", e.Label, err)
	}
	if m.Name == "" {
		m.Name = e.Label
	}
	return m, nil
}

// RecordView writes a VIEW_MODEL audit entry.
func (s *Service) RecordView(ctx context.Context, user string, e catalog.Entry) {
	s.audit(ctx, user, ActionView, e.Key())
}

func (s *Service) audit(ctx context.Context, user, action, details string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.LogAction(ctx, user, action, details); err != nil {
		logging.Warnf("analysis: audit %s failed: %v", action, err)
	}
}

// Report is what the front ends show for one entry. When the model cannot
// be read Err is set and the metrics are present but empty.
type Report struct {
	Summary *model.IFCSummary
	Mesh    *model.MeshSummary
	Err     error
}

// Inspect records a view of e and derives the metrics for its kind. PDF and
// U3D entries have no metrics.
func (s *Service) Inspect(ctx context.Context, e catalog.Entry, user string) Report {
	s.RecordView(ctx, user, e)

	var r Report
	switch e.Kind {
	case model.KindIFC:
		summary, err := s.IFC(ctx, e, user)
		r.Summary, r.Err = &summary, err
	case model.KindOBJ:
		m, err := s.OBJ(ctx, e)
		if err != nil {
			r.Mesh, r.Err = &model.MeshSummary{}, err
			break
		}
		sum := m.Summary()
		r.Mesh = &sum
	}
	if r.Err != nil {
		logging.Warnf("analysis: %v", r.Err)
	}
	return r
}
