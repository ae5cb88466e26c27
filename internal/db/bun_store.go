// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/toeirei/fieldviewer/internal/model"
)

// ProjectModel is the bun model for the projects table.
type ProjectModel struct {
	bun.BaseModel `bun:"table:projects"`
	ID            int       `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	URL           string    `bun:"url"`
	Kind          string    `bun:"kind"`
	CreatedAt     time.Time `bun:"created_at"`
}

// SummaryModel is the bun model for the model_summaries table.
type SummaryModel struct {
	bun.BaseModel `bun:"table:model_summaries"`
	Source        string    `bun:"source,pk"`
	SHA256        string    `bun:"sha256,pk"`
	Payload       string    `bun:"payload"`
	CreatedAt     time.Time `bun:"created_at"`
}

// AuditLogModel is the bun model for the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int       `bun:"id,pk,autoincrement"`
	Timestamp     time.Time `bun:"timestamp"`
	Username      string    `bun:"username"`
	Action        string    `bun:"action"`
	Details       string    `bun:"details"`
}

func projectModelToModel(p ProjectModel) model.Project {
	return model.Project{ID: p.ID, Name: p.Name, URL: p.URL, Kind: model.Kind(p.Kind), CreatedAt: p.CreatedAt}
}

func auditModelToModel(a AuditLogModel) model.AuditLogEntry {
	return model.AuditLogEntry{
		ID:        a.ID,
		Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
		Username:  a.Username,
		Action:    a.Action,
		Details:   a.Details,
	}
}

func summaryModelToModel(s SummaryModel) (model.CachedSummary, error) {
	out := model.CachedSummary{Source: s.Source, SHA256: s.SHA256, CreatedAt: s.CreatedAt}
	if err := json.Unmarshal([]byte(s.Payload), &out.Summary); err != nil {
		return model.CachedSummary{}, fmt.Errorf("decode cached summary for %s: %w", s.Source, err)
	}
	return out, nil
}

// BunStore implements Store on top of a *bun.DB for every supported dialect.
type BunStore struct {
	bun    *bun.DB
	dbType string
}

// BunDB exposes the underlying bun handle.
func (s *BunStore) BunDB() *bun.DB { return s.bun }

// Type returns the database type the store was opened with.
func (s *BunStore) Type() string { return s.dbType }

// Close closes the database.
func (s *BunStore) Close() error { return s.bun.Close() }

// ListProjects returns projects ordered by name.
func (s *BunStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	var pm []ProjectModel
	if err := s.bun.NewSelect().Model(&pm).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(pm))
	for _, p := range pm {
		out = append(out, projectModelToModel(p))
	}
	return out, nil
}

// GetProject returns the project called name or ErrNotFound.
func (s *BunStore) GetProject(ctx context.Context, name string) (model.Project, error) {
	var pm ProjectModel
	if err := s.bun.NewSelect().Model(&pm).Where("name = ?", name).Limit(1).Scan(ctx); err != nil {
		return model.Project{}, MapDBError(err)
	}
	return projectModelToModel(pm), nil
}

// AddProject stores a new project. The kind is derived from the URL.
func (s *BunStore) AddProject(ctx context.Context, name, url string) (model.Project, error) {
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" || url == "" {
		return model.Project{}, errors.New("project name and url are required")
	}
	pm := &ProjectModel{Name: name, URL: url, Kind: string(model.KindFromName(url)), CreatedAt: time.Now().UTC()}
	if _, err := s.bun.NewInsert().Model(pm).Exec(ctx); err != nil {
		return model.Project{}, MapDBError(err)
	}
	_ = s.LogAction(ctx, "", "ADD_PROJECT", fmt.Sprintf("project: %s -> %s", name, url))
	return projectModelToModel(*pm), nil
}

// RemoveProject deletes the project called name or returns ErrNotFound.
func (s *BunStore) RemoveProject(ctx context.Context, name string) error {
	res, err := s.bun.NewDelete().Model((*ProjectModel)(nil)).Where("name = ?", name).Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	_ = s.LogAction(ctx, "", "REMOVE_PROJECT", fmt.Sprintf("project: %s", name))
	return nil
}

// GetSummary returns the cached summary for source with the given content
// hash, or ErrNotFound.
func (s *BunStore) GetSummary(ctx context.Context, source, sha256 string) (model.CachedSummary, error) {
	var sm SummaryModel
	err := s.bun.NewSelect().Model(&sm).Where("source = ?", source).Where("sha256 = ?", sha256).Limit(1).Scan(ctx)
	if err != nil {
		return model.CachedSummary{}, MapDBError(err)
	}
	return summaryModelToModel(sm)
}

// PutSummary stores or replaces the cached summary for (source, sha256).
func (s *BunStore) PutSummary(ctx context.Context, cs model.CachedSummary) error {
	payload, err := json.Marshal(cs.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = time.Now().UTC()
	}
	return WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*SummaryModel)(nil)).
			Where("source = ?", cs.Source).Where("sha256 = ?", cs.SHA256).Exec(ctx); err != nil {
			return err
		}
		sm := &SummaryModel{Source: cs.Source, SHA256: cs.SHA256, Payload: string(payload), CreatedAt: cs.CreatedAt}
		_, err := tx.NewInsert().Model(sm).Exec(ctx)
		return MapDBError(err)
	})
}

// LogAction appends an audit entry. An empty username is recorded as
// "system".
func (s *BunStore) LogAction(ctx context.Context, username, action, details string) error {
	if username == "" {
		username = "system"
	}
	am := &AuditLogModel{Timestamp: time.Now().UTC(), Username: username, Action: action, Details: details}
	_, err := s.bun.NewInsert().Model(am).Exec(ctx)
	return MapDBError(err)
}

// GetAuditLog returns the newest entries first; limit <= 0 returns all.
func (s *BunStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var am []AuditLogModel
	q := s.bun.NewSelect().Model(&am).OrderExpr("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, auditModelToModel(a))
	}
	return out, nil
}

// ExportData reads every table inside one transaction.
func (s *BunStore) ExportData(ctx context.Context) (*model.BackupData, error) {
	backup := &model.BackupData{SchemaVersion: model.BackupSchemaVersion}
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		var pm []ProjectModel
		if err := tx.NewSelect().Model(&pm).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, p := range pm {
			backup.Projects = append(backup.Projects, projectModelToModel(p))
		}

		var sm []SummaryModel
		if err := tx.NewSelect().Model(&sm).OrderExpr("source ASC, sha256 ASC").Scan(ctx); err != nil {
			return err
		}
		for _, m := range sm {
			cs, err := summaryModelToModel(m)
			if err != nil {
				return err
			}
			backup.Summaries = append(backup.Summaries, cs)
		}

		var am []AuditLogModel
		if err := tx.NewSelect().Model(&am).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, a := range am {
			backup.AuditLogEntries = append(backup.AuditLogEntries, auditModelToModel(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ImportData restores data. With full set the tables are wiped first;
// otherwise rows whose key already exists are skipped.
func (s *BunStore) ImportData(ctx context.Context, data *model.BackupData, full bool) error {
	if data == nil {
		return errors.New("no backup data")
	}
	if data.SchemaVersion > model.BackupSchemaVersion {
		return fmt.Errorf("backup schema version %d is newer than supported version %d", data.SchemaVersion, model.BackupSchemaVersion)
	}
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if full {
			for _, table := range []string{"audit_log", "model_summaries", "projects"} {
				if _, err := ExecRaw(ctx, tx, "DELETE FROM "+table); err != nil {
					return err
				}
			}
		}

		for _, p := range data.Projects {
			if !full {
				exists, err := tx.NewSelect().Model((*ProjectModel)(nil)).Where("name = ?", p.Name).Exists(ctx)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
			}
			pm := &ProjectModel{Name: p.Name, URL: p.URL, Kind: string(p.Kind), CreatedAt: p.CreatedAt}
			if full {
				pm.ID = p.ID
			}
			if _, err := tx.NewInsert().Model(pm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		for _, cs := range data.Summaries {
			exists, err := tx.NewSelect().Model((*SummaryModel)(nil)).
				Where("source = ?", cs.Source).Where("sha256 = ?", cs.SHA256).Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			payload, err := json.Marshal(cs.Summary)
			if err != nil {
				return err
			}
			sm := &SummaryModel{Source: cs.Source, SHA256: cs.SHA256, Payload: string(payload), CreatedAt: cs.CreatedAt}
			if _, err := tx.NewInsert().Model(sm).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		for _, e := range data.AuditLogEntries {
			ts, err := time.Parse(time.RFC3339, e.Timestamp)
			if err != nil {
				ts = time.Now().UTC()
			}
			am := &AuditLogModel{Timestamp: ts, Username: e.Username, Action: e.Action, Details: e.Details}
			if full {
				am.ID = e.ID
			}
			if _, err := tx.NewInsert().Model(am).Exec(ctx); err != nil {
				return MapDBError(err)
			}
		}

		if full && s.dbType == TypePostgres {
			// explicit ids leave the serial sequences behind
			for _, table := range []string{"projects", "audit_log"} {
				q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s", table)
				if _, err := ExecRaw(ctx, tx, q); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	mode := "merge"
	if full {
		mode = "full"
	}
	_ = s.LogAction(ctx, "", "RESTORE", fmt.Sprintf("mode: %s, projects: %d, summaries: %d", mode, len(data.Projects), len(data.Summaries)))
	return nil
}
