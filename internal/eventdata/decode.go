package eventdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// decodeValue reads one JSON value from dec. key is the field name the value
// belongs to, used to recognise the timeslots array.
func decodeValue(dec *json.Decoder, key string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, fmt.Errorf("eventdata: unexpected end of input")
		}
		return Value{}, err
	}
	return decodeToken(dec, tok, key)
}

func decodeToken(dec *json.Decoder, tok json.Token, key string) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case json.Delim:
		switch t {
		case '{':
			obj, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return Nested(obj), nil
		case '[':
			items, err := decodeArray(dec)
			if err != nil {
				return Value{}, err
			}
			if key == TimeslotsKey {
				if slots, ok := asTimeslots(items); ok {
					return Slots(slots...), nil
				}
			}
			return Array(items...), nil
		}
	}
	return Value{}, fmt.Errorf("eventdata: unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("eventdata: expected object key, got %v", tok)
		}
		v, err := decodeValue(dec, key)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]Value, error) {
	items := []Value{}
	for dec.More() {
		v, err := decodeValue(dec, "")
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

// asTimeslots converts an array of objects into timeslots. Arrays with any
// non-object element stay generic.
func asTimeslots(items []Value) ([]Timeslot, bool) {
	slots := make([]Timeslot, 0, len(items))
	for _, item := range items {
		if item.Kind != KindObject {
			return nil, false
		}
		slots = append(slots, timeslotFromObject(item.Object))
	}
	return slots, true
}
