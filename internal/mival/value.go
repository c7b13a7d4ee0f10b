// Package mival implements the MI value tree: a small tagged recursive
// value type with GDB/MI wire serialization. Only writing is required —
// aliceserver never needs to parse MI values back off the wire, only to
// produce them.
package mival

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dd86k/aliceserver/internal/cescape"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	String
	Bool
	Integer
	Unsigned
	Float
	Array
	Object
)

// objEntry is one key/value pair of an Object, kept in insertion order.
type objEntry struct {
	key string
	val Value
}

// Value is the MI value tree's single recursive type. The zero Value is
// Null.
type Value struct {
	kind Kind
	str  string
	b    bool
	i    int64
	u    uint64
	f    float64
	arr  []Value
	obj  []objEntry
}

// Kind reports the variant currently held.
func (v Value) Kind() Kind { return v.kind }

// NewString wraps a string value.
func NewString(s string) Value { return Value{kind: String, str: s} }

// NewBool wraps a bool value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewInt wraps a signed integer value.
func NewInt(i int64) Value { return Value{kind: Integer, i: i} }

// NewUint wraps an unsigned integer value.
func NewUint(u uint64) Value { return Value{kind: Unsigned, u: u} }

// NewFloat wraps a float value.
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }

// NewArray wraps an ordered sequence of values.
func NewArray(vs ...Value) Value { return Value{kind: Array, arr: append([]Value(nil), vs...)} }

// NewObject returns an empty Object value.
func NewObject() Value { return Value{kind: Object} }

// AsString returns the held string; it panics if the Value is not a String.
// Read access is offered for callers that build values programmatically and
// then want to inspect them (chiefly tests); it is never used to parse the
// wire format, which this package does not read.
func (v Value) AsString() string {
	if v.kind != String {
		panic(fmt.Sprintf("mival: AsString on %v value", v.kind))
	}
	return v.str
}

// Set assigns value at key, promoting a Null receiver to an Object and
// overwriting any existing entry for key. Set panics if the receiver holds
// a non-Object, non-Null value, since only a Null may be promoted.
func (v *Value) Set(key string, value Value) {
	if v.kind == Null {
		v.kind = Object
	}
	if v.kind != Object {
		panic(fmt.Sprintf("mival: Set on %v value", v.kind))
	}
	for i := range v.obj {
		if v.obj[i].key == key {
			v.obj[i].val = value
			return
		}
	}
	v.obj = append(v.obj, objEntry{key: key, val: value})
}

// Append pushes value onto an Array, promoting a Null receiver to an empty
// Array first.
func (v *Value) Append(value Value) {
	if v.kind == Null {
		v.kind = Array
	}
	if v.kind != Array {
		panic(fmt.Sprintf("mival: Append on %v value", v.kind))
	}
	v.arr = append(v.arr, value)
}

// Serialize renders v using GDB/MI wire rules: at the root an Object is a
// comma-separated `key=value` sequence with no surrounding braces; nested
// Objects are braced, Arrays bracketed; scalars are always double-quoted.
func (v Value) Serialize() string {
	var b strings.Builder
	v.writeTo(&b, true)
	return b.String()
}

// ToMessage formats the canonical "<prefix>,<serialized>\n" MI record line.
// If v serializes to the empty string (e.g. an empty root Object), the
// trailing comma is omitted so records like "^done\n" stay bare.
func ToMessage(prefix string, v Value) string {
	body := v.Serialize()
	if body == "" {
		return prefix + "\n"
	}
	return prefix + "," + body + "\n"
}

func (v Value) writeTo(b *strings.Builder, root bool) {
	switch v.kind {
	case Null:
		// A Null serializes to nothing, so a Null root leaves ToMessage's
		// record bare; Set/Append promote their receiver away from Null,
		// but a Null passed in as a member value is stored as is.
	case String:
		b.WriteByte('"')
		b.WriteString(cescape.Escape(v.str))
		b.WriteByte('"')
	case Bool:
		if v.b {
			b.WriteString(`"true"`)
		} else {
			b.WriteString(`"false"`)
		}
	case Integer:
		b.WriteByte('"')
		b.WriteString(strconv.FormatInt(v.i, 10))
		b.WriteByte('"')
	case Unsigned:
		b.WriteByte('"')
		b.WriteString(strconv.FormatUint(v.u, 10))
		b.WriteByte('"')
	case Float:
		b.WriteByte('"')
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		b.WriteByte('"')
	case Array:
		b.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			elem.writeTo(b, false)
		}
		b.WriteByte(']')
	case Object:
		if !root {
			b.WriteByte('{')
		}
		for i, entry := range v.obj {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(entry.key)
			b.WriteByte('=')
			entry.val.writeTo(b, false)
		}
		if !root {
			b.WriteByte('}')
		}
	}
}
