package eventdata

import (
	"bytes"
	"encoding/json"
	"slices"
)

var timeslotFields = []string{"title", "start", "end"}

// Timeslot is one {title, start, end, ...} record of the timeslots array.
// Fields other than the three known ones are kept in Extra, in order.
type Timeslot struct {
	Title string
	Start string
	End   string
	Extra *Object

	// order is the key order of the decoded record. Nil for slots built in code.
	order []string
}

func (t Timeslot) Clone() Timeslot {
	t.Extra = t.Extra.Clone()
	t.order = slices.Clone(t.order)
	return t
}

func (t Timeslot) field(key string) (string, bool) {
	switch key {
	case "title":
		return t.Title, true
	case "start":
		return t.Start, true
	case "end":
		return t.End, true
	}
	return "", false
}

// MarshalJSON writes a decoded slot back with the keys it arrived with, in
// the same order. Known fields that were absent are written only once set.
func (t Timeslot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]bool, len(t.order)+len(timeslotFields))
	write := func(key string) error {
		if written[key] {
			return nil
		}
		var (
			raw []byte
			err error
		)
		if v, ok := t.Extra.Get(key); ok {
			raw, err = v.MarshalJSON()
		} else if s, known := t.field(key); known {
			raw, err = json.Marshal(s)
		} else {
			return nil
		}
		if err != nil {
			return err
		}
		if len(written) > 0 {
			buf.WriteByte(',')
		}
		written[key] = true
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}

	for _, key := range t.order {
		if err := write(key); err != nil {
			return nil, err
		}
	}
	for _, key := range timeslotFields {
		if s, _ := t.field(key); s == "" && t.order != nil {
			continue
		}
		if err := write(key); err != nil {
			return nil, err
		}
	}
	for _, key := range t.Extra.Keys() {
		if err := write(key); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// timeslotFromObject lifts the known string fields out of a decoded object.
// Non-string title/start/end values stay in Extra so nothing is lost.
func timeslotFromObject(o *Object) Timeslot {
	slot := Timeslot{Extra: NewObject(), order: append([]string{}, o.Keys()...)}
	for _, key := range o.Keys() {
		v, _ := o.Get(key)
		if v.Kind == KindString {
			switch key {
			case "title":
				slot.Title = v.Str
				continue
			case "start":
				slot.Start = v.Str
				continue
			case "end":
				slot.End = v.Str
				continue
			}
		}
		slot.Extra.Set(key, v)
	}
	return slot
}
