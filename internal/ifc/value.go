// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package ifc

import "fmt"

// ValueKind classifies an attribute value of a STEP record.
type ValueKind int

const (
	ValueNull    ValueKind = iota // $
	ValueDerived                  // *
	ValueInteger
	ValueReal
	ValueString
	ValueEnum
	ValueRef
	ValueBinary
	ValueList
	ValueTyped // e.g. IFCLABEL('x'); the wrapped value is List[0]
)

// Value is one attribute value.
type Value struct {
	Kind ValueKind
	Int  int64
	Real float64
	Str  string // string, enum, binary or typed name
	Ref  int
	List []Value
}

// String returns the value's text when it holds a string (directly or
// wrapped in a typed value).
func (v Value) String() (string, bool) {
	switch v.Kind {
	case ValueString:
		return v.Str, true
	case ValueTyped:
		if len(v.List) == 1 {
			return v.List[0].String()
		}
	}
	return "", false
}

// Float returns the numeric value for integers, reals and typed numbers.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case ValueInteger:
		return float64(v.Int), true
	case ValueReal:
		return v.Real, true
	case ValueTyped:
		if len(v.List) == 1 {
			return v.List[0].Float()
		}
	}
	return 0, false
}

// Refs returns the entity references held by a reference or a list of them.
func (v Value) Refs() []int {
	switch v.Kind {
	case ValueRef:
		return []int{v.Ref}
	case ValueList:
		var out []int
		for _, item := range v.List {
			out = append(out, item.Refs()...)
		}
		return out
	}
	return nil
}

// Entity is a single instance from the DATA section.
type Entity struct {
	ID   int
	Type string // upper case, e.g. IFCWALL
	Args []Value
	// Parts holds the partial types of a complex instance; Type is the
	// first of them.
	Parts []string
}

// Arg returns the i-th attribute or a null value when absent.
func (e *Entity) Arg(i int) Value {
	if i < 0 || i >= len(e.Args) {
		return Value{Kind: ValueNull}
	}
	return e.Args[i]
}

// Is reports whether the instance's type, or one of its partial types, is
// typ (upper case).
func (e *Entity) Is(typ string) bool {
	if e.Type == typ {
		return true
	}
	for _, p := range e.Parts {
		if p == typ {
			return true
		}
	}
	return false
}

func (e *Entity) String() string {
	return fmt.Sprintf("#%d=%s", e.ID, e.Type)
}
