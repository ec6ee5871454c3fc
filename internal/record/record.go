package record

import (
	"github.com/hpungsan/intake/internal/errors"
)

// State is the lifecycle position of a Record.
type State string

const (
	StateEmpty    State = "empty"
	StatePartial  State = "partial"
	StateComplete State = "complete"
)

type slot struct {
	set   bool
	text  string
	items []string
}

// Record is the per-conversation structured data being filled field by field.
// It is not safe for concurrent use; a conversation drives it sequentially.
type Record struct {
	schema *Schema
	slots  []slot
}

// New returns an empty record for schema.
func New(schema *Schema) *Record {
	return &Record{schema: schema, slots: make([]slot, schema.Len())}
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// IsSet reports whether the named field holds a value. Unknown names are unset.
func (r *Record) IsSet(name string) bool {
	i, ok := r.schema.Lookup(name)
	return ok && r.slots[i].set
}

// Text returns a scalar field's value, or "" when unset or unknown.
func (r *Record) Text(name string) string {
	if i, ok := r.schema.Lookup(name); ok {
		return r.slots[i].text
	}
	return ""
}

// Items returns a copy of a list field's items.
func (r *Record) Items(name string) []string {
	i, ok := r.schema.Lookup(name)
	if !ok {
		return nil
	}
	return append([]string(nil), r.slots[i].items...)
}

// Complete reports whether every field is set.
func (r *Record) Complete() bool {
	for _, s := range r.slots {
		if !s.set {
			return false
		}
	}
	return true
}

// State derives the lifecycle state from which fields are set.
func (r *Record) State() State {
	n := 0
	for _, s := range r.slots {
		if s.set {
			n++
		}
	}
	switch n {
	case 0:
		return StateEmpty
	case len(r.slots):
		return StateComplete
	default:
		return StatePartial
	}
}

// Missing lists unset field names in declaration order.
func (r *Record) Missing() []string {
	var out []string
	for i, s := range r.slots {
		if !s.set {
			out = append(out, r.schema.fields[i].Name)
		}
	}
	return out
}

// NextField returns the first unset field in declaration order.
func (r *Record) NextField() (Field, bool) {
	for i, s := range r.slots {
		if !s.set {
			return r.schema.fields[i], true
		}
	}
	return Field{}, false
}

// NextPrompt returns the question for the first unset field, or "" when the
// record is complete.
func (r *Record) NextPrompt() string {
	f, ok := r.NextField()
	if !ok {
		return ""
	}
	return f.Prompt(r)
}

// Values returns the set fields keyed by canonical name.
func (r *Record) Values() map[string]Value {
	out := make(map[string]Value, len(r.slots))
	for i, s := range r.slots {
		if !s.set {
			continue
		}
		f := r.schema.fields[i]
		if f.List {
			out[f.Name] = ListValue(append([]string{}, s.items...)...)
		} else {
			out[f.Name] = TextValue(s.text)
		}
	}
	return out
}

// Reset clears every field.
func (r *Record) Reset() {
	r.slots = make([]slot, r.schema.Len())
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	c := New(r.schema)
	for i, s := range r.slots {
		c.slots[i] = slot{set: s.set, text: s.text, items: append([]string(nil), s.items...)}
	}
	return c
}

// Assignment supplies one field of a Patch. Text fields read Text; list
// fields read Items, plus Text as one more item when it is non-empty.
type Assignment struct {
	Field string
	Text  string
	Items []string
}

// Set assigns a scalar field.
func Set(field, text string) Assignment {
	return Assignment{Field: field, Text: text}
}

// Add appends items to a list field. Add(field) with no items is an explicit
// empty answer.
func Add(field string, items ...string) Assignment {
	if items == nil {
		items = []string{}
	}
	return Assignment{Field: field, Items: items}
}

// Patch is a partial set of field assignments. Fields not named are untouched.
type Patch []Assignment

type change struct {
	index int
	set   bool
	text  string
	items []string
}

// Apply merges p into the record. The patch is validated as a whole first:
// an unknown field or invalid value rejects the patch and leaves the record
// unchanged. Later assignments win over earlier ones for scalar fields.
func (r *Record) Apply(p Patch) error {
	changes := make([]change, 0, len(p))
	for _, a := range p {
		i, ok := r.schema.Lookup(a.Field)
		if !ok {
			return errors.NewUnknownField(r.schema.name, a.Field)
		}
		f := r.schema.fields[i]

		if !f.List {
			v, set, err := resolve(f, a.Text)
			if err != nil {
				return err
			}
			if set {
				changes = append(changes, change{index: i, set: true, text: v})
			}
			continue
		}

		raw := a.Items
		if a.Text != "" {
			raw = append(append([]string(nil), raw...), a.Text)
		}
		if f.Split != nil {
			var parts []string
			for _, it := range raw {
				parts = append(parts, f.Split(it)...)
			}
			raw = parts
		}
		var items []string
		explicitEmpty := len(raw) == 0 && a.Items != nil
		for _, it := range raw {
			v, set, err := resolve(f, it)
			if err != nil {
				return err
			}
			switch {
			case v != "":
				items = append(items, v)
			case set:
				explicitEmpty = true
			}
		}
		if len(items) > 0 || (explicitEmpty && f.AllowEmpty) {
			changes = append(changes, change{index: i, set: true, items: items})
		}
	}

	for _, c := range changes {
		s := &r.slots[c.index]
		f := r.schema.fields[c.index]
		s.set = true
		if !f.List {
			s.text = c.text
			continue
		}
		for _, it := range c.items {
			if f.MaxItems > 0 && len(s.items) >= f.MaxItems {
				break
			}
			if !containsFold(s.items, it) {
				s.items = append(s.items, it)
			}
		}
	}
	return nil
}

// resolve turns one raw value into its stored form. set=false means the value
// counts as "not provided".
func resolve(f Field, raw string) (value string, set bool, err error) {
	v := Clean(raw)
	if v == "" {
		return "", f.AllowEmpty, nil
	}

	if alias, ok := f.Aliases[Normalize(v)]; ok {
		if alias == "" {
			return "", f.AllowEmpty, nil
		}
		v = alias
	}

	if f.Parse != nil {
		parsed, ok := f.Parse(v)
		if !ok {
			return "", false, errors.NewInvalidValue(f.DisplayName(), v, f.Choices)
		}
		v = parsed
	}

	if len(f.Choices) > 0 {
		matched := false
		for _, c := range f.Choices {
			if Normalize(c) == Normalize(v) {
				v = c
				matched = true
				break
			}
		}
		if !matched {
			return "", false, errors.NewInvalidValue(f.DisplayName(), v, f.Choices)
		}
	}

	if f.Fold {
		v = Normalize(v)
	}
	return v, true, nil
}
