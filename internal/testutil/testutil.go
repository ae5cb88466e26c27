// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil carries model fixtures shared by package tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// HouseIFC is a small IFC4 model with hand-counted contents:
//
//	walls 3 (two IfcWallStandardCase, one IfcWall), doors 2, windows 1,
//	slabs 1, columns 0, beams 0, 20 instances in total.
//	"Planta Baja" (0.0):  walls 2, doors 1, slabs 1
//	"Planta Alta" (3.2):  walls 1, doors 1, windows 1 (contained in a space)
const HouseIFC = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('casa.ifc','2024-05-01T10:00:00',('Autor'),('Estudio'),'IfcOpenShell','fieldviewer','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
/* spatial structure */
#1=IFCPROJECT('0YvctVUKr0kugbFTf53O9L',$,'Casa Modelo',$,$,$,$,$,$);
#10=IFCSITE('1YvctVUKr0kugbFTf53O9L',$,'Sitio',$,$,$,$,$,.ELEMENT.,$,$,$,$,$);
#20=IFCBUILDING('2YvctVUKr0kugbFTf53O9L',$,'Edificio',$,$,$,$,$,.ELEMENT.,$,$,$);
#30=IFCBUILDINGSTOREY('3YvctVUKr0kugbFTf53O9L',$,'Planta Baja',$,$,$,$,$,.ELEMENT.,0.);
#31=IFCBUILDINGSTOREY('4YvctVUKr0kugbFTf53O9L',$,'Planta Alta',$,$,$,$,$,.ELEMENT.,3.2);
#40=IFCSPACE('5YvctVUKr0kugbFTf53O9L',$,'Dormitorio',$,$,$,$,$,.ELEMENT.,.INTERNAL.,$);
/* elements */
#100=IFCWALLSTANDARDCASE('6YvctVUKr0kugbFTf53O9L',$,'Muro ''Norte''',$,$,$,$,$,.STANDARD.);
#101=IFCWALLSTANDARDCASE('7YvctVUKr0kugbFTf53O9L',$,'Muro Sur',$,$,$,$,$,.STANDARD.);
#102=IFCWALL('8YvctVUKr0kugbFTf53O9L',$,'Muro Alto',$,$,$,$,$,
  .STANDARD.);
#110=IFCDOOR('9YvctVUKr0kugbFTf53O9L',$,'Puerta 1',$,$,$,$,$,2.1,0.9,.DOOR.,$,$);
#111=IFCDOOR('AYvctVUKr0kugbFTf53O9L',$,'Puerta 2',$,$,$,$,$,2.1,0.8,.DOOR.,$,$);
#120=IFCWINDOW('BYvctVUKr0kugbFTf53O9L',$,'Ventana',$,$,$,$,$,1.2,1.5,.WINDOW.,$,$);
#130=IFCSLAB('CYvctVUKr0kugbFTf53O9L',$,'Losa',$,$,$,$,$,.FLOOR.);
#200=IFCRELAGGREGATES('DYvctVUKr0kugbFTf53O9L',$,$,$,#1,(#10));
#201=IFCRELAGGREGATES('EYvctVUKr0kugbFTf53O9L',$,$,$,#10,(#20));
#202=IFCRELAGGREGATES('FYvctVUKr0kugbFTf53O9L',$,$,$,#20,(#30,#31));
#203=IFCRELAGGREGATES('GYvctVUKr0kugbFTf53O9L',$,$,$,#31,(#40));
#300=IFCRELCONTAINEDINSPATIALSTRUCTURE('HYvctVUKr0kugbFTf53O9L',$,$,$,(#100,#101,#110,#130),#30);
#301=IFCRELCONTAINEDINSPATIALSTRUCTURE('IYvctVUKr0kugbFTf53O9L',$,$,$,(#102,#111,#120),#40);
#400=IFCPROPERTYSINGLEVALUE('Ancho',$,IFCLENGTHMEASURE(2.E-1),$);
ENDSEC;
END-ISO-10303-21;
`

// CubeOBJ is a unit cube: 8 vertices, 6 quad faces (12 triangles),
// surface area 6, bounds (0,0,0)-(1,1,1).
const CubeOBJ = `# unit cube
o cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
vn 0 0 -1
vt 0 0
f 1/1/1 4/1/1 3/1/1 2/1/1
f 5 6 7 8
f 1//1 2//1 6//1 5//1
f 2 3 7 6
f 3 4 8 7
f -4 -8 -5 -1
`

// BrokenIFC is an IFC file cut off inside the DATA section.
const BrokenIFC = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCPROJECT('x',$,'Roto'
`

// WriteFiles writes name -> content pairs into a fresh temporary directory
// and returns it.
func WriteFiles(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// BytesFromString returns a buffer containing the provided string.
func BytesFromString(s string) *bytes.Buffer { return bytes.NewBufferString(s) }

// MemoryDSN returns a shared in-memory sqlite DSN unique to the test.
func MemoryDSN(t testing.TB) string {
	return "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
}
