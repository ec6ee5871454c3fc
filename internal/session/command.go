package session

import "github.com/hpungsan/intake/internal/record"

// Command is an operation the dialogue engine invokes on a session. The set
// is closed: only the types in this file implement it.
type Command interface {
	commandName() string
}

// Update merges a partial field map into a persona's record.
type Update struct {
	Persona string
	Patch   record.Patch
}

// Prompt asks for the next unset field without changing anything.
type Prompt struct {
	Persona string
}

// Finalize persists the record. Force persists an incomplete record.
type Finalize struct {
	Persona string
	Force   bool
}

// List enumerates reference data. Kind is "concepts" or "faq".
type List struct {
	Kind string
}

// Feedback adjusts a bounded score. Target is "tutor" (concept mastery) or
// "wellness" (objective follow-through).
type Feedback struct {
	Target  string
	ID      string
	Correct bool
	Note    string
}

// SetMode switches the tutor mode and optionally the concept.
type SetMode struct {
	Mode      string
	ConceptID string
}

// Ask answers a product question from the approved FAQ.
type Ask struct {
	Topic string
}

func (Update) commandName() string   { return "update" }
func (Prompt) commandName() string   { return "prompt" }
func (Finalize) commandName() string { return "finalize" }
func (List) commandName() string     { return "list" }
func (Feedback) commandName() string { return "feedback" }
func (SetMode) commandName() string  { return "set_mode" }
func (Ask) commandName() string      { return "ask" }

// scope is the persona label used for metrics.
func scope(cmd Command) string {
	switch c := cmd.(type) {
	case Update:
		return c.Persona
	case Prompt:
		return c.Persona
	case Finalize:
		return c.Persona
	case Feedback:
		return c.Target
	case SetMode:
		return "tutor"
	case Ask:
		return "lead"
	case List:
		return c.Kind
	}
	return ""
}
