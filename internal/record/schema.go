package record

import "fmt"

// PromptFunc renders the question asked when a field is the next unset one.
// It receives the record so prompts can refer to values already captured.
type PromptFunc func(r *Record) string

// Ask returns a PromptFunc that always yields text.
func Ask(text string) PromptFunc {
	return func(*Record) string { return text }
}

// Field declares one named slot of a Schema.
type Field struct {
	// Name is the canonical key, persisted verbatim.
	Name string

	// Label is the spoken name of the field. Defaults to Name.
	Label string

	// Prompt asks for the field when it is the first unset one.
	Prompt PromptFunc

	// List marks a multi-valued field. Items are deduplicated on insert.
	List bool

	// AllowEmpty lets an explicit empty value ("" or an empty list) count as set.
	// For every other field an empty value means "not provided".
	AllowEmpty bool

	// Fold lower-cases the stored value. Leave false for proper nouns.
	Fold bool

	// Choices restricts the field to an enumerated domain (canonical forms).
	Choices []string

	// Aliases maps normalized spoken forms to canonical values. An alias
	// to "" is an explicit empty answer (e.g. "black" for milk).
	Aliases map[string]string

	// Parse extracts a canonical value from free text; ok=false rejects it.
	Parse func(s string) (value string, ok bool)

	// Split breaks one spoken answer into list items before resolution.
	Split func(s string) []string

	// MaxItems caps a list field. Further items are ignored. 0 means no cap.
	MaxItems int
}

// DisplayName returns Label, falling back to Name.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Schema is the ordered set of fields for one persona.
// Declaration order is authoritative for prompting.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema. It panics on an empty or duplicate field name,
// which is a programming error in a persona definition.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		k := Key(f.Name)
		if k == "" {
			panic(fmt.Sprintf("record: schema %q: field %d has no name", name, i))
		}
		if _, dup := s.index[k]; dup {
			panic(fmt.Sprintf("record: schema %q: duplicate field %q", name, f.Name))
		}
		if f.Prompt == nil {
			f.Prompt = Ask(fmt.Sprintf("What is your %s?", f.DisplayName()))
		}
		s.fields[i] = f
		s.index[k] = i
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th declared field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Fields returns a copy of the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the canonical field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup resolves a field name to its position, tolerating case, underscores
// and dashes.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.index[Key(name)]
	return i, ok
}
