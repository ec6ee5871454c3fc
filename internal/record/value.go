package record

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Value is a field's stored value: a string, or a list of strings.
// It encodes as a JSON string or a JSON array.
type Value struct {
	Text  string
	Items []string
	List  bool
}

// TextValue returns a scalar Value.
func TextValue(s string) Value { return Value{Text: s} }

// ListValue returns a list Value. A nil slice encodes as [].
func ListValue(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Items: items, List: true}
}

// String renders the value for speech: lists are comma-joined.
func (v Value) String() string {
	if v.List {
		return strings.Join(v.Items, ", ")
	}
	return v.Text
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.List {
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = ListValue(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = TextValue(s)
	return nil
}
