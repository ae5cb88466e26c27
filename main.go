// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Fieldviewer.
//
// Usage:
//
//	go run . [flags]
//	./fieldviewer [command] [flags]
//
// Without a command the interactive model picker starts. See --help.
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
