// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/fieldviewer/internal/model"
)

// Store defines the persistence operations used by the application.
type Store interface {
	// Projects are named links to externally hosted models.
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, name string) (model.Project, error)
	AddProject(ctx context.Context, name, url string) (model.Project, error)
	RemoveProject(ctx context.Context, name string) error

	// Summaries cache IFC analysis results by source and content hash.
	GetSummary(ctx context.Context, source, sha256 string) (model.CachedSummary, error)
	PutSummary(ctx context.Context, s model.CachedSummary) error

	// Audit log.
	LogAction(ctx context.Context, username, action, details string) error
	GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)

	// Backup and restore. A full import wipes existing rows first; otherwise
	// rows already present are kept.
	ExportData(ctx context.Context) (*model.BackupData, error)
	ImportData(ctx context.Context, data *model.BackupData, full bool) error

	Close() error
}
