// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toeirei/fieldviewer/internal/model"
)

func TestProjects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.AddProject(ctx, "Torre Norte", "https://example.com/models/torre.ifc")
	if err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if p.ID == 0 || p.Kind != model.KindIFC {
		t.Errorf("AddProject returned %+v", p)
	}
	if _, err := s.AddProject(ctx, "Anexo", "https://example.com/anexo.pdf"); err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if _, err := s.AddProject(ctx, "Torre Norte", "https://example.com/other.ifc"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate AddProject = %v, want ErrDuplicate", err)
	}
	if _, err := s.AddProject(ctx, " ", "x"); err == nil {
		t.Errorf("expected error for empty name")
	}

	list, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Anexo" || list[1].Name != "Torre Norte" {
		t.Errorf("ListProjects = %+v", list)
	}

	got, err := s.GetProject(ctx, "Anexo")
	if err != nil || got.Kind != model.KindPDF {
		t.Errorf("GetProject = %+v, %v", got, err)
	}
	if _, err := s.GetProject(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject(missing) = %v, want ErrNotFound", err)
	}

	if err := s.RemoveProject(ctx, "Anexo"); err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if err := s.RemoveProject(ctx, "Anexo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second RemoveProject = %v, want ErrNotFound", err)
	}
}

func TestSummaryCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetSummary(ctx, "casa.ifc", "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSummary on empty cache = %v, want ErrNotFound", err)
	}

	cs := model.CachedSummary{
		Source: "casa.ifc",
		SHA256: "abc",
		Summary: model.IFCSummary{
			Schema: "IFC4",
			Counts: []model.ElementCount{{Type: "IfcWall", Count: 3}},
		},
	}
	if err := s.PutSummary(ctx, cs); err != nil {
		t.Fatalf("PutSummary: %v", err)
	}
	cs.Summary.Counts[0].Count = 4
	if err := s.PutSummary(ctx, cs); err != nil {
		t.Fatalf("PutSummary replace: %v", err)
	}

	got, err := s.GetSummary(ctx, "casa.ifc", "abc")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if got.Summary.Count("IfcWall") != 4 || got.Summary.Schema != "IFC4" {
		t.Errorf("cached summary = %+v", got.Summary)
	}
	if _, err := s.GetSummary(ctx, "casa.ifc", "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("different hash must miss, got %v", err)
	}
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, a := range []string{"VIEW_MODEL", "ANALYZE_MODEL", "LOGIN"} {
		if err := s.LogAction(ctx, "ana", a, "casa.ifc"); err != nil {
			t.Fatalf("LogAction: %v", err)
		}
	}
	if err := s.LogAction(ctx, "", "MAINTENANCE", ""); err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	all, err := s.GetAuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("GetAuditLog: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d entries, want 4", len(all))
	}
	if all[0].Action != "MAINTENANCE" || all[0].Username != "system" {
		t.Errorf("newest entry = %+v", all[0])
	}
	if _, err := time.Parse(time.RFC3339, all[0].Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339", all[0].Timestamp)
	}

	two, err := s.GetAuditLog(ctx, 2)
	if err != nil || len(two) != 2 {
		t.Errorf("GetAuditLog(2) = %d entries, %v", len(two), err)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	if _, err := src.AddProject(ctx, "Torre", "https://example.com/torre.ifc"); err != nil {
		t.Fatalf("AddProject: %v", err)
	}
	if err := src.PutSummary(ctx, model.CachedSummary{Source: "torre", SHA256: "h1", Summary: model.IFCSummary{EntityCount: 7}}); err != nil {
		t.Fatalf("PutSummary: %v", err)
	}

	data, err := src.ExportData(ctx)
	if err != nil {
		t.Fatalf("ExportData: %v", err)
	}
	if data.SchemaVersion != model.BackupSchemaVersion || len(data.Projects) != 1 || len(data.Summaries) != 1 {
		t.Fatalf("export = %+v", data)
	}
	if len(data.AuditLogEntries) == 0 {
		t.Errorf("expected ADD_PROJECT audit entry in export")
	}

	testCases := []struct {
		name         string
		full         bool
		wantProjects int
	}{
		{"full", true, 1},
		{"merge", false, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dst := newTestStore(t)
			if _, err := dst.AddProject(ctx, "Local", "https://example.com/local.obj"); err != nil {
				t.Fatalf("AddProject: %v", err)
			}
			if err := dst.ImportData(ctx, data, tc.full); err != nil {
				t.Fatalf("ImportData: %v", err)
			}
			// importing twice in merge mode must not duplicate anything
			if !tc.full {
				if err := dst.ImportData(ctx, data, false); err != nil {
					t.Fatalf("second ImportData: %v", err)
				}
			}
			projects, err := dst.ListProjects(ctx)
			if err != nil {
				t.Fatalf("ListProjects: %v", err)
			}
			if len(projects) != tc.wantProjects {
				t.Errorf("got %d projects, want %d", len(projects), tc.wantProjects)
			}
			got, err := dst.GetSummary(ctx, "torre", "h1")
			if err != nil || got.Summary.EntityCount != 7 {
				t.Errorf("restored summary = %+v, %v", got, err)
			}
		})
	}
}

func TestImportRejectsNewerSchema(t *testing.T) {
	s := newTestStore(t)
	err := s.ImportData(context.Background(), &model.BackupData{SchemaVersion: model.BackupSchemaVersion + 1}, true)
	if err == nil {
		t.Fatalf("expected error for newer schema version")
	}
}

func TestNewUnsupportedType(t *testing.T) {
	if _, err := New("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
