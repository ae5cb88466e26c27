// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import (
	"fmt"
	"sort"
	"strings"
)

// Model is a parsed IFC file.
type Model struct {
	Schema   string
	FileName string

	entities map[int]*Entity
	byType   map[string][]*Entity
}

func newModel() *Model {
	return &Model{
		entities: make(map[int]*Entity),
		byType:   make(map[string][]*Entity),
	}
}

func (m *Model) add(e *Entity) error {
	if _, dup := m.entities[e.ID]; dup {
		return fmt.Errorf("duplicate entity id #%d", e.ID)
	}
	m.entities[e.ID] = e
	types := e.Parts
	if len(types) == 0 {
		types = []string{e.Type}
	}
	for _, t := range types {
		m.byType[t] = append(m.byType[t], e)
	}
	return nil
}

func (m *Model) finish() {
	for _, list := range m.byType {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
}

// Len returns the number of entity instances.
func (m *Model) Len() int { return len(m.entities) }

// Entity returns the instance with the given id, or nil.
func (m *Model) Entity(id int) *Entity { return m.entities[id] }

// ByType returns the instances of the given type and its known subtypes,
// ordered by id. The name is case insensitive ("IfcWall" == "IFCWALL").
func (m *Model) ByType(name string) []*Entity {
	var out []*Entity
	seen := make(map[int]bool)
	for _, t := range typeClosure(strings.ToUpper(name)) {
		for _, e := range m.byType[t] {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ProjectName returns the Name attribute of the first IfcProject.
func (m *Model) ProjectName() string {
	projects := m.ByType("IFCPROJECT")
	if len(projects) == 0 {
		return ""
	}
	name, _ := projects[0].Arg(2).String()
	return name
}

// StoreyCounts is the number of contained elements per requested type on
// one building storey.
type StoreyCounts struct {
	Storey    *Entity
	Name      string
	Elevation float64
	Counts    map[string]int
}

// Storeys counts elements of the given types per IfcBuildingStorey, following
// IfcRelContainedInSpatialStructure and, for elements placed in spaces, the
// IfcRelAggregates decomposition up to their storey. Storeys are ordered by
// elevation then name. Types are matched with their subtypes.
func (m *Model) Storeys(types []string) []StoreyCounts {
	parent := m.aggregateParents()

	storeys := make(map[int]*StoreyCounts)
	for _, s := range m.ByType("IFCBUILDINGSTOREY") {
		name, _ := s.Arg(2).String()
		elev, _ := s.Arg(9).Float()
		storeys[s.ID] = &StoreyCounts{Storey: s, Name: name, Elevation: elev, Counts: make(map[string]int)}
	}
	if len(storeys) == 0 {
		return nil
	}

	closures := make([]map[string]bool, len(types))
	for i, t := range types {
		closures[i] = make(map[string]bool)
		for _, sub := range typeClosure(strings.ToUpper(t)) {
			closures[i][sub] = true
		}
	}

	counted := make(map[int]bool)
	for _, rel := range m.ByType("IFCRELCONTAINEDINSPATIALSTRUCTURE") {
		structure := rel.Arg(5).Refs()
		if len(structure) != 1 {
			continue
		}
		sc := storeys[m.storeyOf(structure[0], parent)]
		if sc == nil {
			continue
		}
		for _, id := range rel.Arg(4).Refs() {
			e := m.entities[id]
			if e == nil || counted[id] {
				continue
			}
			counted[id] = true
			for i, t := range types {
				if matchesAny(e, closures[i]) {
					sc.Counts[t]++
				}
			}
		}
	}

	out := make([]StoreyCounts, 0, len(storeys))
	for _, sc := range storeys {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Elevation != out[j].Elevation {
			return out[i].Elevation < out[j].Elevation
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Storey.ID < out[j].Storey.ID
	})
	return out
}

func matchesAny(e *Entity, types map[string]bool) bool {
	if types[e.Type] {
		return true
	}
	for _, p := range e.Parts {
		if types[p] {
			return true
		}
	}
	return false
}

// aggregateParents maps each related object of an IfcRelAggregates to its
// relating object.
func (m *Model) aggregateParents() map[int]int {
	parent := make(map[int]int)
	for _, rel := range m.ByType("IFCRELAGGREGATES") {
		relating := rel.Arg(4).Refs()
		if len(relating) != 1 {
			continue
		}
		for _, child := range rel.Arg(5).Refs() {
			parent[child] = relating[0]
		}
	}
	return parent
}

// storeyOf climbs the decomposition tree from id until it reaches a
// building storey. It returns 0 when none is found.
func (m *Model) storeyOf(id int, parent map[int]int) int {
	visited := make(map[int]bool)
	for id != 0 && !visited[id] {
		visited[id] = true
		if e := m.entities[id]; e != nil && e.Is("IFCBUILDINGSTOREY") {
			return id
		}
		id = parent[id]
	}
	return 0
}
