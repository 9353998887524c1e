package bufr

// TypeInfo carries the numeric semantics of a leaf element as declared by
// the message tables: field width in bits, decimal scale exponent, additive
// reference offset, unit string, and whether the element holds character
// data. The zero value is the default for unresolved targets and is a valid
// input to Merge.
type TypeInfo struct {
	Scale     int
	Reference int
	Bits      int
	Unit      string
	Char      bool
}

// IsString reports whether the element holds character data.
func (t TypeInfo) IsString() bool { return t.Char }

// IsSigned reports whether decoded integers can be negative. A negative
// reference shifts the raw unsigned value below zero.
func (t TypeInfo) IsSigned() bool { return t.Reference < 0 }

// IsInteger reports whether the element decodes to whole numbers. A positive
// scale moves the decimal point left, producing fractional values.
func (t TypeInfo) IsInteger() bool { return t.Scale <= 0 }

// Is64Bit reports whether the element needs a 64-bit container.
func (t TypeInfo) Is64Bit() bool { return t.Bits > 32 }

// Merge folds another element's type info into this one: the smallest
// reference, the widest bit count, the largest-magnitude scale, and the
// first non-empty unit win. Character-ness must agree across frames; a
// mismatch is a resolution bug, so Merge keeps the flag set once seen.
func (t *TypeInfo) Merge(other TypeInfo) {
	if other.Reference < t.Reference {
		t.Reference = other.Reference
	}
	if other.Bits > t.Bits {
		t.Bits = other.Bits
	}
	if abs(other.Scale) > abs(t.Scale) {
		t.Scale = other.Scale
	}
	if t.Unit == "" {
		t.Unit = other.Unit
	}
	if other.Char {
		t.Char = true
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
