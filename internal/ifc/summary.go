// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import (
	"io"

	"github.com/toeirei/fieldviewer/internal/model"
)

// DefaultCountTypes are the element types shown in the metrics panel.
var DefaultCountTypes = []string{"IfcWall", "IfcDoor", "IfcWindow", "IfcSlab", "IfcColumn", "IfcBeam"}

// Summarize counts the given element types (DefaultCountTypes when empty)
// in m, overall and per storey.
func Summarize(m *Model, types []string) model.IFCSummary {
	if len(types) == 0 {
		types = DefaultCountTypes
	}
	s := model.IFCSummary{
		Schema:      m.Schema,
		ProjectName: m.ProjectName(),
		EntityCount: m.Len(),
	}
	for _, t := range types {
		s.Counts = append(s.Counts, model.ElementCount{Type: t, Count: len(m.ByType(t))})
	}
	for _, st := range m.Storeys(types) {
		row := model.StoreyCount{Name: st.Name, Elevation: st.Elevation}
		for _, t := range types {
			row.Counts = append(row.Counts, model.ElementCount{Type: t, Count: st.Counts[t]})
		}
		s.Storeys = append(s.Storeys, row)
	}
	return s
}

// SummarizeReader parses r and summarizes it.
func SummarizeReader(r io.Reader, types []string) (model.IFCSummary, error) {
	m, err := Parse(r)
	if err != nil {
		return model.IFCSummary{}, err
	}
	return Summarize(m, types), nil
}
