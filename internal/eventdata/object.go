package eventdata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is an ordered field map. The zero value and nil are both empty objects.
type Object struct {
	keys   []string
	fields map[string]Value
}

func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Parse decodes a JSON object, keeping key order.
func Parse(data []byte) (*Object, error) {
	o := NewObject()
	if err := o.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) IsEmpty() bool {
	return o.Len() == 0
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Set adds or replaces a field. New keys are appended after existing ones.
func (o *Object) Set(key string, v Value) {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, exists := o.fields[key]; !exists {
		return
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// StringField returns a string field, or "" when absent or not a string.
func (o *Object) StringField(key string) string {
	v, ok := o.Get(key)
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// StringSlice returns the string items of an array field.
func (o *Object) StringSlice(key string) []string {
	v, ok := o.Get(key)
	if !ok || v.Kind != KindArray {
		return nil
	}
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		if item.Kind == KindString {
			out = append(out, item.Str)
		}
	}
	return out
}

// Timeslots returns the decoded timeslots field, if any.
func (o *Object) Timeslots() []Timeslot {
	v, ok := o.Get(TimeslotsKey)
	if !ok || v.Kind != KindTimeslots {
		return nil
	}
	return v.Slots
}

func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys:   append([]string(nil), o.keys...),
		fields: make(map[string]Value, len(o.fields)),
	}
	for k, v := range o.fields {
		out.fields[k] = v.Clone()
	}
	return out
}

// Equal compares canonical JSON encodings, key order included.
func (o *Object) Equal(other *Object) bool {
	a, errA := o.MarshalJSON()
	b, errB := other.MarshalJSON()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := o.fields[key].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec, "")
	if err != nil {
		return err
	}
	switch v.Kind {
	case KindObject:
		*o = *v.Object
	case KindNull:
		*o = Object{fields: make(map[string]Value)}
	default:
		return fmt.Errorf("eventdata: expected object, got %s", v.Kind)
	}
	return nil
}
