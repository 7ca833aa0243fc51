// Package eventdata models the schema-less structured event object produced by
// the extraction backend. Known shapes (scalars, arrays, timeslots, nested
// objects) get their own kinds; everything else passes through untouched.
package eventdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindTimeslots
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindTimeslots:
		return "timeslots"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TimeslotsKey is the field whose array elements decode as Timeslot records.
const TimeslotsKey = "timeslots"

// Value is one field value. Only the member matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Str    string
	Num    json.Number
	Bool   bool
	Items  []Value
	Slots  []Timeslot
	Object *Object
}

func Null() Value                   { return Value{Kind: KindNull} }
func String(s string) Value         { return Value{Kind: KindString, Str: s} }
func Number(n json.Number) Value    { return Value{Kind: KindNumber, Num: n} }
func Bool(b bool) Value             { return Value{Kind: KindBool, Bool: b} }
func Array(items ...Value) Value    { return Value{Kind: KindArray, Items: items} }
func Slots(slots ...Timeslot) Value { return Value{Kind: KindTimeslots, Slots: slots} }
func Nested(o *Object) Value        { return Value{Kind: KindObject, Object: o} }

// Strings builds an array value of string items.
func Strings(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return Array(vals...)
}

// IsEmpty reports whether the value carries no information: null, "", or an empty collection.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindArray:
		return len(v.Items) == 0
	case KindTimeslots:
		return len(v.Slots) == 0
	case KindObject:
		return v.Object.IsEmpty()
	default:
		return false
	}
}

// Text renders scalars as plain text and collections as compact JSON.
func (v Value) Text() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num.String()
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindArray:
		parts := make([]string, 0, len(v.Items))
		scalar := true
		for _, item := range v.Items {
			if item.Kind == KindArray || item.Kind == KindObject || item.Kind == KindTimeslots {
				scalar = false
				break
			}
			parts = append(parts, item.Text())
		}
		if scalar {
			return strings.Join(parts, ", ")
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func (v Value) Clone() Value {
	out := v
	switch v.Kind {
	case KindArray:
		out.Items = make([]Value, len(v.Items))
		for i, item := range v.Items {
			out.Items[i] = item.Clone()
		}
	case KindTimeslots:
		out.Slots = make([]Timeslot, len(v.Slots))
		for i, slot := range v.Slots {
			out.Slots[i] = slot.Clone()
		}
	case KindObject:
		out.Object = v.Object.Clone()
	}
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if v.Num == "" {
			return []byte("0"), nil
		}
		return []byte(v.Num.String()), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindArray:
		items := v.Items
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case KindTimeslots:
		slots := v.Slots
		if slots == nil {
			slots = []Timeslot{}
		}
		return json.Marshal(slots)
	case KindObject:
		if v.Object == nil {
			return []byte("{}"), nil
		}
		return v.Object.MarshalJSON()
	default:
		return nil, fmt.Errorf("eventdata: unknown value kind %d", int(v.Kind))
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec, "")
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseText interprets user-typed preview input: valid JSON keeps its type,
// anything else becomes a string.
func ParseText(text string) Value {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return String("")
	}
	var v Value
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v
	}
	return String(text)
}
