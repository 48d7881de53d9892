package sheet

import (
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single spreadsheet cell. The zero Value is Missing.
type Value struct {
	kind Kind
	text string
	num  float64
}

// StringValue returns a String cell.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// NumberValue returns a Number cell. NaN and infinities carry no data and become Missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// MissingValue returns an empty cell.
func MissingValue() Value {
	return Value{}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Number returns the numeric payload and whether the value is a Number.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders the value for display. Numbers use the shortest
// representation without an exponent; Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Display is String with a substitute for Missing cells.
func (v Value) Display(placeholder string) string {
	if v.kind == KindMissing {
		return placeholder
	}
	return v.String()
}
