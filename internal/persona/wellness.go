package persona

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hpungsan/intake/internal/record"
)

// moodKeywords is checked in order; the first mood with a matching word wins.
var moodKeywords = []struct {
	mood  string
	words []string
}{
	{"happy", []string{"happy", "good", "great", "wonderful", "amazing"}},
	{"neutral", []string{"ok", "okay", "fine", "alright", "so-so", "neutral"}},
	{"sad", []string{"sad", "down", "low", "unhappy", "depressed"}},
	{"anxious", []string{"anxious", "stressed", "worried", "nervous"}},
	{"angry", []string{"angry", "frustrated", "mad", "irritated"}},
}

var energyKeywords = []struct {
	level int
	words []string
}{
	{5, []string{"high", "energetic"}},
	{4, []string{"good", "well"}},
	{3, []string{"ok", "okay"}},
	{2, []string{"low", "tired"}},
	{1, []string{"exhausted", "terrible"}},
}

var (
	energyDigit = regexp.MustCompile(`\b[1-5]\b`)
	wordSplit   = regexp.MustCompile(`[^a-z0-9-]+`)
	objSplit    = regexp.MustCompile(`[,\n]`)
)

// Wellness returns the daily check-in companion.
func Wellness() *Persona {
	schema := record.NewSchema("wellness",
		record.Field{
			Name:   "mood",
			Fold:   true,
			Parse:  ExtractMood,
			Prompt: record.Ask("How are you feeling today?"),
		},
		record.Field{
			Name:   "energy",
			Parse:  ExtractEnergy,
			Prompt: record.Ask("How's your energy level right now, on a scale from 1 to 5?"),
		},
		record.Field{
			Name:     "objectives",
			List:     true,
			Split:    ExtractObjectives,
			MaxItems: 3,
			Prompt:   record.Ask("What are one to three objectives or goals you'd like to focus on today?"),
		},
	)

	return &Persona{
		Name:  "wellness",
		Title: "Wellness companion",
		Instructions: `You are a supportive health and wellness companion. Your role is to help users reflect on their
well-being and set positive intentions for their day. Be warm, empathetic, and encouraging.

Conversation flow:
1. Greet the user and ask about their current mood and energy level
2. Ask about 1-3 specific objectives or goals for the day
3. Offer simple, practical wellness suggestions based on their responses
4. Summarize the check-in and confirm with the user
5. End with an encouraging note

Guidelines:
- Keep responses concise and conversational (1-2 sentences max)
- Ask one question at a time
- Validate the user's feelings without judgment
- Never provide medical advice or make diagnoses
- If the user shares something concerning, suggest they speak with a healthcare professional

Call wellness_context at the start of the call and mention anything it returns.
Call wellness_update with what the user tells you and speak the text it returns.`,
		Schema: schema,
		Confirm: func(values map[string]record.Value) string {
			mood := value(values, "mood", "")
			var b strings.Builder
			b.WriteString("To recap: ")
			if mood != "" {
				fmt.Fprintf(&b, "you're feeling %s", mood)
			} else {
				b.WriteString("we checked in")
			}
			if e := value(values, "energy", ""); e != "" {
				fmt.Fprintf(&b, " with an energy level of %s out of 5", e)
			}
			b.WriteString(".")
			if v, ok := values["objectives"]; ok && len(v.Items) > 0 {
				fmt.Fprintf(&b, " Your objectives for today: %s.", strings.Join(v.Items, ", "))
			}
			if s := Suggestion(mood); s != "" {
				b.WriteString(" ")
				b.WriteString(s)
			}
			return b.String()
		},
		Recall:    PreviousContext,
		Farewell:  "You've got this. Talk to you next time!",
		FileField: "mood",
	}
}

func words(text string) []string {
	return wordSplit.Split(strings.ToLower(text), -1)
}

// ExtractMood maps free text to one of happy, neutral, sad, anxious, angry.
// Whole words only; negation is not understood.
func ExtractMood(text string) (string, bool) {
	ws := words(text)
	for _, m := range moodKeywords {
		for _, kw := range m.words {
			for _, w := range ws {
				if w == kw {
					return m.mood, true
				}
			}
		}
	}
	return "", false
}

// ExtractEnergy maps free text to a level from 1 to 5. A standalone digit
// wins over keywords.
func ExtractEnergy(text string) (string, bool) {
	if d := energyDigit.FindString(text); d != "" {
		return d, true
	}
	ws := words(text)
	for _, e := range energyKeywords {
		for _, kw := range e.words {
			for _, w := range ws {
				if w == kw {
					return strconv.Itoa(e.level), true
				}
			}
		}
	}
	return "", false
}

// ExtractObjectives splits an answer on commas and newlines, keeping parts
// longer than three characters, at most three.
func ExtractObjectives(text string) []string {
	var out []string
	for _, part := range objSplit.Split(text, -1) {
		part = strings.TrimSpace(part)
		if len(part) <= 3 {
			continue
		}
		out = append(out, part)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// Suggestion returns a small wellness tip for a mood.
func Suggestion(mood string) string {
	switch mood {
	case "happy":
		return "Keep that momentum going, maybe share a bit of it with someone today."
	case "sad":
		return "Be gentle with yourself today. A short walk or a chat with a friend can help."
	case "anxious":
		return "Try a few slow, deep breaths before you start, and take things one step at a time."
	case "angry":
		return "A short break away from the screen might help you reset."
	case "neutral":
		return "A glass of water and a quick stretch can give you a small lift."
	}
	return ""
}

// PreviousContext summarizes the last check-in for the start of a new one.
// It returns "" when there is nothing worth mentioning.
func PreviousContext(values map[string]record.Value) string {
	var parts []string
	if m := value(values, "mood", ""); m != "" {
		parts = append(parts, fmt.Sprintf("Last time, you mentioned feeling %s.", m))
	}
	if v, ok := values["objectives"]; ok && len(v.Items) > 0 {
		parts = append(parts, fmt.Sprintf("Your objectives were: %s.", strings.Join(v.Items, ", ")))
	}
	return strings.Join(parts, " ")
}
