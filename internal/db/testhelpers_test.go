// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"

	"github.com/toeirei/fieldviewer/internal/testutil"
)

// newTestStore opens an in-memory sqlite Store private to the test.
func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	s, err := New(TypeSQLite, testutil.MemoryDSN(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	bs, ok := s.(*BunStore)
	if !ok {
		t.Fatalf("store is %T, want *BunStore", s)
	}
	return bs
}
