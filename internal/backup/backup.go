// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup writes and reads zstd-compressed JSON snapshots of the
// database.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/model"
)

// Write encodes data as indented JSON compressed with zstd.
func Write(w io.Writer, data *model.BackupData) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*model.BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &data, nil
}

// Backup exports st and writes the snapshot to w.
func Backup(ctx context.Context, st db.Store, w io.Writer) (*model.BackupData, error) {
	data, err := st.ExportData(ctx)
	if err != nil {
		return nil, fmt.Errorf("export backup: %w", err)
	}
	if err := Write(w, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Restore reads a snapshot from r and imports it into st. With full set the
// existing rows are replaced; otherwise the snapshot is merged.
func Restore(ctx context.Context, r io.Reader, st db.Store, full bool) (*model.BackupData, error) {
	data, err := Read(r)
	if err != nil {
		return nil, err
	}
	if err := st.ImportData(ctx, data, full); err != nil {
		return nil, fmt.Errorf("import backup: %w", err)
	}
	return data, nil
}

// Migrate copies every row of src into a freshly opened database of
// targetType at targetDSN.
func Migrate(ctx context.Context, src db.Store, targetType, targetDSN string) error {
	data, err := src.ExportData(ctx)
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	target, err := db.New(targetType, targetDSN)
	if err != nil {
		return fmt.Errorf("init target store: %w", err)
	}
	defer func() { _ = target.Close() }()
	if err := target.ImportData(ctx, data, true); err != nil {
		return fmt.Errorf("import to target: %w", err)
	}
	return nil
}
