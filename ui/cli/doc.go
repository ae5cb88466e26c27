// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Fieldviewer using
// Cobra. The root command loads configuration, opens the database and
// builds the shared services; subcommands stay thin and delegate to the
// internal packages.
package cli
