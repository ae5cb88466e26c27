// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"reflect"
	"testing"
)

func TestMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	sqlDB := s.BunDB().DB

	if err := RunMigrations(sqlDB, TypeSQLite); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
	got, err := AppliedMigrations(sqlDB)
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	want := []string{"0001_init", "0002_audit_action_index"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applied = %v, want %v", got, want)
	}
}

func TestEmbeddedMigrationsPerDialect(t *testing.T) {
	for _, dbType := range []string{TypeSQLite, TypePostgres, TypeMySQL} {
		t.Run(dbType, func(t *testing.T) {
			entries, err := embeddedMigrations.ReadDir("migrations/" + dbType)
			if err != nil {
				t.Fatalf("ReadDir: %v", err)
			}
			if len(entries) != 2 {
				t.Errorf("got %d migrations, want 2", len(entries))
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := "-- header\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a (x);\n-- trailing\n"
	got := splitStatements(script)
	want := []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitStatements = %q, want %q", got, want)
	}
}
