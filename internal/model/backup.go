// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package model

// BackupSchemaVersion is written into every backup.
const BackupSchemaVersion = 1

// BackupData is a container for all data exported for a backup.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	Projects        []Project       `json:"projects"`
	Summaries       []CachedSummary `json:"summaries"`
	AuditLogEntries []AuditLogEntry `json:"audit_log_entries"`
}
