// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package main is the installable fieldviewer binary
// (go install github.com/toeirei/fieldviewer/cmd/fieldviewer@latest).
package main

import (
	"os"

	"github.com/toeirei/fieldviewer/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
