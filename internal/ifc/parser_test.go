// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import (
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/fieldviewer/internal/testutil"
)

func mustParse(t *testing.T, src string) *Model {
	t.Helper()
	m, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestParseHeader(t *testing.T) {
	m := mustParse(t, testutil.HouseIFC)
	if m.Schema != "IFC4" {
		t.Errorf("Schema = %q, want IFC4", m.Schema)
	}
	if m.FileName != "casa.ifc" {
		t.Errorf("FileName = %q, want casa.ifc", m.FileName)
	}
	if m.Len() != 20 {
		t.Errorf("Len = %d, want 20", m.Len())
	}
	if got := m.ProjectName(); got != "Casa Modelo" {
		t.Errorf("ProjectName = %q", got)
	}
}

func TestParseValues(t *testing.T) {
	m := mustParse(t, testutil.HouseIFC)

	wall := m.Entity(100)
	if wall == nil || wall.Type != "IFCWALLSTANDARDCASE" {
		t.Fatalf("entity #100 = %v", wall)
	}
	if name, _ := wall.Arg(2).String(); name != "Muro 'Norte'" {
		t.Errorf("escaped name = %q", name)
	}
	if wall.Arg(1).Kind != ValueNull {
		t.Errorf("arg 1 kind = %v, want null", wall.Arg(1).Kind)
	}
	if wall.Arg(8).Kind != ValueEnum || wall.Arg(8).Str != "STANDARD" {
		t.Errorf("arg 8 = %+v", wall.Arg(8))
	}
	if wall.Arg(42).Kind != ValueNull {
		t.Errorf("out of range arg should be null")
	}

	// record spanning two lines
	if m.Entity(102) == nil || len(m.Entity(102).Args) != 9 {
		t.Errorf("multi-line record not parsed: %v", m.Entity(102))
	}

	prop := m.Entity(400)
	v := prop.Arg(2)
	if v.Kind != ValueTyped || v.Str != "IFCLENGTHMEASURE" {
		t.Fatalf("typed value = %+v", v)
	}
	if f, ok := v.Float(); !ok || f != 0.2 {
		t.Errorf("typed float = %v %v", f, ok)
	}

	rel := m.Entity(300)
	if got := rel.Arg(4).Refs(); len(got) != 4 || got[0] != 100 {
		t.Errorf("related refs = %v", got)
	}
	if elev, _ := m.Entity(31).Arg(9).Float(); elev != 3.2 {
		t.Errorf("elevation = %v", elev)
	}
}

func TestParseComplexInstance(t *testing.T) {
	src := `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=(IFCNAMEDUNIT(*,.LENGTHUNIT.) IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.));
ENDSEC;
END-ISO-10303-21;
`
	m := mustParse(t, src)
	e := m.Entity(1)
	if e.Type != "IFCNAMEDUNIT" || !e.Is("IFCSIUNIT") {
		t.Errorf("complex instance = %+v", e)
	}
	if e.Arg(0).Kind != ValueDerived {
		t.Errorf("arg 0 kind = %v, want derived", e.Arg(0).Kind)
	}
	if len(m.ByType("IfcSIUnit")) != 1 {
		t.Errorf("complex instance not indexed by partial type")
	}
}

func TestDecodeString(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`Espa\X\F1a`, "España"},
		{`\X2\00E9\X0\t\X2\00E9\X0\`, "été"},
		{`back\\slash`, `back\slash`},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := decodeString(tc.in); got != tc.want {
				t.Errorf("decodeString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		wantLine int
		wantMsg  string
	}{
		{"truncated", testutil.BrokenIFC, 7, "end of file"},
		{"not step", "hello world", 1, "ISO-10303-21"},
		{"empty", "", 1, "ISO-10303-21"},
		{"missing data", "ISO-10303-21;\nHEADER;\nENDSEC;\nEND-ISO-10303-21;\n", 4, "missing DATA"},
		{"duplicate id", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=IFCWALL();\n#1=IFCDOOR();\nENDSEC;\nEND-ISO-10303-21;\n", 6, "duplicate entity id #1"},
		{"unterminated string", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=IFCWALL('abc);\n", 5, "unterminated string"},
		{"unterminated comment", "ISO-10303-21;\n/* nope", 2, "unterminated comment"},
		{"missing semicolon", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=IFCWALL()\n#2=IFCWALL();\n", 6, "expected ';'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src))
			if err == nil {
				t.Fatalf("expected error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error %T %v is not a *SyntaxError", err, err)
			}
			if se.Line != tc.wantLine {
				t.Errorf("line = %d, want %d (%v)", se.Line, tc.wantLine, err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tc.wantMsg)
			}
		})
	}
}
