// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import "sort"

// directSubtypes lists the IFC2x3/IFC4 subtypes of the supertypes the
// viewer counts. It is intentionally partial: only the element and spatial
// hierarchy is needed for counting.
var directSubtypes = map[string][]string{
	"IFCPRODUCT":                 {"IFCELEMENT", "IFCSPATIALELEMENT", "IFCSPATIALSTRUCTUREELEMENT"},
	"IFCELEMENT":                 {"IFCBUILDINGELEMENT", "IFCBUILTELEMENT", "IFCOPENINGELEMENT", "IFCFURNISHINGELEMENT", "IFCDISTRIBUTIONELEMENT"},
	"IFCBUILDINGELEMENT":         builtElements,
	"IFCBUILTELEMENT":            builtElements,
	"IFCWALL":                    {"IFCWALLSTANDARDCASE", "IFCWALLELEMENTEDCASE"},
	"IFCSLAB":                    {"IFCSLABSTANDARDCASE", "IFCSLABELEMENTEDCASE"},
	"IFCBEAM":                    {"IFCBEAMSTANDARDCASE"},
	"IFCCOLUMN":                  {"IFCCOLUMNSTANDARDCASE"},
	"IFCDOOR":                    {"IFCDOORSTANDARDCASE"},
	"IFCWINDOW":                  {"IFCWINDOWSTANDARDCASE"},
	"IFCMEMBER":                  {"IFCMEMBERSTANDARDCASE"},
	"IFCPLATE":                   {"IFCPLATESTANDARDCASE"},
	"IFCOPENINGELEMENT":          {"IFCOPENINGSTANDARDCASE"},
	"IFCSPATIALELEMENT":          {"IFCSPATIALSTRUCTUREELEMENT"},
	"IFCSPATIALSTRUCTUREELEMENT": {"IFCSITE", "IFCBUILDING", "IFCBUILDINGSTOREY", "IFCSPACE"},
}

var builtElements = []string{
	"IFCBEAM", "IFCCOLUMN", "IFCCOVERING", "IFCCURTAINWALL", "IFCDOOR",
	"IFCFOOTING", "IFCMEMBER", "IFCPILE", "IFCPLATE", "IFCRAILING",
	"IFCRAMP", "IFCRAMPFLIGHT", "IFCROOF", "IFCSLAB", "IFCSTAIR",
	"IFCSTAIRFLIGHT", "IFCWALL", "IFCWINDOW", "IFCCHIMNEY", "IFCSHADINGDEVICE",
	"IFCBUILDINGELEMENTPROXY",
}

// typeClosure returns typ and every known subtype of it, sorted.
func typeClosure(typ string) []string {
	seen := map[string]bool{typ: true}
	queue := []string{typ}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, sub := range directSubtypes[cur] {
			if !seen[sub] {
				seen[sub] = true
				queue = append(queue, sub)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
