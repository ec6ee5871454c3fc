package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/intake/internal/errors"
)

// Concept is one unit of tutor content.
type Concept struct {
	ID             string `json:"id" yaml:"id"`
	Title          string `json:"title" yaml:"title"`
	Summary        string `json:"summary" yaml:"summary"`
	SampleQuestion string `json:"sample_question" yaml:"sample_question"`
}

// DefaultConcepts is the built-in programming primer.
func DefaultConcepts() []Concept {
	return []Concept{
		{
			ID:             "variables",
			Title:          "Variables",
			Summary:        "Variables are named storage for values. You give a value a name so you can read it or change it later in the program.",
			SampleQuestion: "What is a variable, and why would you use one instead of writing the value directly?",
		},
		{
			ID:             "loops",
			Title:          "Loops",
			Summary:        "Loops repeat a block of code. A for loop runs a fixed number of times or over a collection; a while-style loop runs until a condition becomes false.",
			SampleQuestion: "What is the difference between a for loop and a while loop?",
		},
		{
			ID:             "functions",
			Title:          "Functions",
			Summary:        "Functions package a piece of logic behind a name. They take inputs called parameters and can return a result, so the same logic can be reused.",
			SampleQuestion: "What are parameters, and what does it mean for a function to return a value?",
		},
		{
			ID:             "conditionals",
			Title:          "Conditionals",
			Summary:        "Conditionals let a program choose between paths. An if statement runs code only when its condition is true, and an else branch covers the other case.",
			SampleQuestion: "How would you use an if statement to print a message only when a number is negative?",
		},
	}
}

// Catalog is an ordered, id-indexed set of concepts.
type Catalog struct {
	concepts []Concept
	index    map[string]int
}

// NewCatalog builds a catalog. Concepts without an id or with a duplicate id
// are rejected.
func NewCatalog(concepts []Concept) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(concepts))}
	for i, con := range concepts {
		id := strings.TrimSpace(con.ID)
		if id == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("concept %d has no id", i))
		}
		if _, dup := c.index[strings.ToLower(id)]; dup {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("duplicate concept id %q", id))
		}
		con.ID = id
		c.index[strings.ToLower(id)] = len(c.concepts)
		c.concepts = append(c.concepts, con)
	}
	return c, nil
}

// DefaultCatalog returns the built-in concepts.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultConcepts())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadConcepts reads a concept list from a .json, .yaml or .yml file.
func LoadConcepts(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var concepts []Concept
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &concepts)
	case ".json":
		err = json.Unmarshal(data, &concepts)
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported concepts file type: %s", path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewCatalog(concepts)
}

// Get returns a concept by id, case-insensitively.
func (c *Catalog) Get(id string) (Concept, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Concept{}, false
	}
	return c.concepts[i], true
}

// List returns the concepts in file order.
func (c *Catalog) List() []Concept {
	return append([]Concept(nil), c.concepts...)
}

// Len returns the number of concepts.
func (c *Catalog) Len() int { return len(c.concepts) }

// At returns the i-th concept.
func (c *Catalog) At(i int) Concept { return c.concepts[i] }

// Describe renders the spoken concept list.
func (c *Catalog) Describe() string {
	if len(c.concepts) == 0 {
		return "No concepts available. Please check the content file."
	}
	var b strings.Builder
	b.WriteString("Here are the available concepts:\n")
	for _, con := range c.concepts {
		fmt.Fprintf(&b, "- %s: %s\n", con.ID, con.Title)
	}
	b.WriteString("\nYou can ask to learn about any of these by saying 'I want to learn about [concept_id]'.")
	return b.String()
}

// Mode is a tutor interaction style.
type Mode string

const (
	ModeLearn     Mode = "learn"
	ModeQuiz      Mode = "quiz"
	ModeTeachBack Mode = "teach_back"
)

// Modes lists the valid modes.
var Modes = []Mode{ModeLearn, ModeQuiz, ModeTeachBack}

// ParseMode accepts the mode names plus a few spoken variants.
func ParseMode(s string) (Mode, bool) {
	switch strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "learn", "learning", "explain":
		return ModeLearn, true
	case "quiz", "test":
		return ModeQuiz, true
	case "teach_back", "teachback", "teach":
		return ModeTeachBack, true
	}
	return "", false
}

// Voice returns the TTS voice used for a mode.
func (m Mode) Voice() string {
	switch m {
	case ModeQuiz:
		return "en-US-alicia"
	case ModeTeachBack:
		return "en-US-ken"
	default:
		return "en-US-matthew"
	}
}

// Respond renders the opening line for a concept in this mode.
func (m Mode) Respond(c Concept) string {
	switch m {
	case ModeQuiz:
		return fmt.Sprintf("Here's a question about %s: %s Take your time to think about it, and let me know when you're ready to hear the answer or if you'd like a hint.", c.Title, c.SampleQuestion)
	case ModeTeachBack:
		return fmt.Sprintf("Now it's your turn to teach me about %s. Please explain it to me as if I'm learning it for the first time. I'll listen carefully and provide feedback afterward.", c.Title)
	default:
		return fmt.Sprintf("Let's learn about %s. %s Would you like me to explain anything in more detail?", c.Title, c.Summary)
	}
}

// TutorInstructions is the system prompt for the active recall coach.
const TutorInstructions = `You are an AI tutor that helps students learn through active recall.
You have three modes of operation:
1. Learn mode - explain concepts clearly and conversationally
2. Quiz mode - ask questions to test understanding
3. Teach-back mode - have the student explain concepts back to you

Always be encouraging, patient, and adapt to the student's level.
Keep explanations clear and concise. In teach-back mode, provide gentle
corrections and ask follow-up questions to deepen understanding.

Use tutor_concepts to list topics, tutor_mode to switch modes or concepts,
and tutor_feedback after judging an answer.`

// AdventureInstructions is the system prompt for the horror game master.
const AdventureInstructions = `You are the game master of a short horror text adventure.
Describe scenes in two or three vivid sentences and always end with a question
about what the player does next.

Use adventure_roll whenever the outcome of an action is uncertain, and narrate
the result. Use adventure_event now and then to raise tension. Keep the
player's inventory and condition consistent with adventure_sheet and
adventure_inventory.`
