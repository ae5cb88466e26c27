// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package mesh reads Wavefront OBJ meshes and summarizes their geometry.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/toeirei/fieldviewer/internal/model"
)

// Triangle holds vertex indices into Mesh.Vertices.
type Triangle [3]int

// Mesh is a triangulated OBJ model.
type Mesh struct {
	Name      string
	Vertices  []model.Vec3
	Faces     int
	Triangles []Triangle
}

// ParseError reports a malformed OBJ line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("obj: line %d: %s", e.Line, e.Msg)
}

// ParseOBJ reads vertex and face records. Polygons are fan triangulated;
// texture, normal, group and material records are ignored.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, &ParseError{Line: lineNo, Msg: "vertex needs three coordinates"}
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid coordinate %q", fields[i+1])}
				}
				xyz[i] = f
			}
			m.Vertices = append(m.Vertices, model.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "f":
			if len(fields) < 4 {
				return nil, &ParseError{Line: lineNo, Msg: "face needs at least three vertices"}
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := m.resolve(ref)
				if err != nil {
					return nil, &ParseError{Line: lineNo, Msg: err.Error()}
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				m.Triangles = append(m.Triangles, Triangle{idx[0], idx[i], idx[i+1]})
			}
			m.Faces++
		case "o":
			if m.Name == "" && len(fields) > 1 {
				m.Name = strings.Join(fields[1:], " ")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	return m, nil
}

// resolve turns a face vertex reference ("3", "3/1", "3//2", "-1") into a
// zero-based vertex index.
func (m *Mesh) resolve(ref string) (int, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid vertex reference %q", ref)
	}
	idx := n - 1
	if n < 0 {
		idx = len(m.Vertices) + n
	}
	if idx < 0 || idx >= len(m.Vertices) {
		return 0, fmt.Errorf("vertex reference %q out of range (have %d vertices)", ref, len(m.Vertices))
	}
	return idx, nil
}

// BoundingBox returns the component-wise minimum and maximum vertex.
func (m *Mesh) BoundingBox() (minV, maxV model.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	minV, maxV = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		minV.X, maxV.X = math.Min(minV.X, v.X), math.Max(maxV.X, v.X)
		minV.Y, maxV.Y = math.Min(minV.Y, v.Y), math.Max(maxV.Y, v.Y)
		minV.Z, maxV.Z = math.Min(minV.Z, v.Z), math.Max(maxV.Z, v.Z)
	}
	return minV, maxV
}

// SurfaceArea sums the areas of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	total := 0.0
	for _, t := range m.Triangles {
		total += triangleArea(m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]])
	}
	return total
}

func triangleArea(a, b, c model.Vec3) float64 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	cx := uy*vz - uz*vy
	cy := uz*vx - ux*vz
	cz := ux*vy - uy*vx
	return 0.5 * math.Sqrt(cx*cx+cy*cy+cz*cz)
}

// Summary returns the figures shown for the mesh.
func (m *Mesh) Summary() model.MeshSummary {
	minV, maxV := m.BoundingBox()
	return model.MeshSummary{
		Vertices:    len(m.Vertices),
		Faces:       m.Faces,
		Triangles:   len(m.Triangles),
		Min:         minV,
		Max:         maxV,
		SurfaceArea: m.SurfaceArea(),
	}
}

// Plane selects two axes for a planar projection.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

// ParsePlane validates a projection plane name; empty means xy.
func ParsePlane(s string) (Plane, error) {
	switch p := Plane(strings.ToLower(s)); p {
	case "":
		return PlaneXY, nil
	case PlaneXY, PlaneXZ, PlaneYZ:
		return p, nil
	}
	return "", fmt.Errorf("unknown projection plane %q", s)
}

// Project returns the vertex coordinates on the two axes of p.
func (m *Mesh) Project(p Plane) (xs, ys []float64) {
	xs = make([]float64, len(m.Vertices))
	ys = make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		switch p {
		case PlaneXZ:
			xs[i], ys[i] = v.X, v.Z
		case PlaneYZ:
			xs[i], ys[i] = v.Y, v.Z
		default:
			xs[i], ys[i] = v.X, v.Y
		}
	}
	return xs, ys
}
