package persona

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hpungsan/intake/internal/record"
)

// Lead returns the sales development persona qualifying inbound visitors.
func Lead(company string) *Persona {
	schema := record.NewSchema("lead",
		record.Field{
			Name:   "Name",
			Prompt: record.Ask("Before we proceed, may I have your name?"),
		},
		record.Field{
			Name:   "Company",
			Prompt: record.Ask("Which company are you currently associated with?"),
		},
		record.Field{
			Name:   "Email",
			Fold:   true,
			Parse:  parseEmail,
			Prompt: record.Ask("Great! What email address can we use to follow up with you?"),
		},
		record.Field{
			Name:   "Role",
			Prompt: record.Ask("What is your role or designation at your company?"),
		},
		record.Field{
			Name:   "Use case",
			Prompt: record.Ask(fmt.Sprintf("What %s product or solution are you most interested in?", company)),
		},
		record.Field{
			Name:   "Team size",
			Prompt: record.Ask("Approximately how many team members will be using this solution?"),
		},
		record.Field{
			Name:   "Timeline",
			Prompt: record.Ask("When are you planning to make a purchase or begin implementation?"),
		},
	)

	return &Persona{
		Name:  "lead",
		Title: fmt.Sprintf("%s sales development representative", company),
		Instructions: fmt.Sprintf(`You are the Sales Development Representative (SDR) for %s.
Your primary goal is to qualify the visitor, answer their questions based ONLY on the provided FAQ, and capture lead information.

SDR persona rules:
1. Greet warmly: start by greeting the user and asking what brought them here.
2. Use the FAQ: if the user asks a product, pricing, or company question, call lead_faq. Do not invent details.
3. Capture lead data: interweave lead questions naturally using lead_capture. Ask for missing fields one by one.
4. End the call: when the user indicates they are done ("that's all", "thanks", "bye"), call lead_summary immediately.

Available FAQ topics: %s`, company, strings.Join(DefaultFAQ(company).Topics(), ", ")),
		Schema: schema,
		Confirm: func(values map[string]record.Value) string {
			return fmt.Sprintf("Thank you, %s. To summarize our conversation: you're interested in %s, representing %s, and your estimated timeline is %s. One of our %s specialists will get in touch with you soon.",
				value(values, "Name", "the visitor"),
				value(values, "Use case", fmt.Sprintf("your interest in %s solutions", company)),
				value(values, "Company", "your organization"),
				value(values, "Timeline", "an unspecified timeline"),
				company,
			)
		},
		Farewell:  fmt.Sprintf("Thank you for speaking with %s!", company),
		FileField: "Name",
	}
}

// parseEmail accepts a bare address or a "Name <addr>" form and keeps only
// the address. Spoken "at" and "dot" are rewritten first.
func parseEmail(s string) (string, bool) {
	s = strings.NewReplacer(" at ", "@", " dot ", ".").Replace(" " + s + " ")
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", false
	}
	if !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", false
	}
	return addr.Address, true
}

// FAQEntry is one approved answer.
type FAQEntry struct {
	Topic  string `json:"topic" yaml:"topic"`
	Answer string `json:"answer" yaml:"answer"`
}

// FAQ is an ordered table of approved answers for one company.
type FAQ struct {
	Company string
	Entries []FAQEntry
}

// DefaultFAQ returns the built-in answers for company.
func DefaultFAQ(company string) *FAQ {
	return &FAQ{
		Company: company,
		Entries: []FAQEntry{
			{"what_it_does", fmt.Sprintf("%s is a leading provider of cloud solutions, AI-driven analytics, and enterprise software tools.", company)},
			{"target_audience", fmt.Sprintf("%s serves businesses of all sizes that need cloud infrastructure, AI insights, and productivity solutions.", company)},
			{"pricing_basics", "Pricing depends on the solution and business size. Cloud subscriptions are tiered; AI tools have per-seat licensing; enterprise software is custom-quoted."},
			{"key_benefits", fmt.Sprintf("%s provides scalable cloud solutions, AI-powered analytics, seamless integrations, and robust support.", company)},
			{"free_tier", fmt.Sprintf("%s offers a free tier for some cloud tools and AI trial solutions for evaluation purposes.", company)},
		},
	}
}

// Topics returns the topic keys in table order.
func (f *FAQ) Topics() []string {
	out := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		out[i] = e.Topic
	}
	return out
}

// Lookup finds the first entry whose key contains the topic or is contained
// by it, after normalizing spaces and dashes to underscores.
func (f *FAQ) Lookup(topic string) (FAQEntry, bool) {
	t := strings.NewReplacer(" ", "_", "-", "_").Replace(record.Normalize(topic))
	if t == "" {
		return FAQEntry{}, false
	}
	for _, e := range f.Entries {
		if strings.Contains(e.Topic, t) || strings.Contains(t, e.Topic) {
			return e, true
		}
	}
	return FAQEntry{}, false
}

// Answer returns the spoken answer for topic, or a refusal that invites
// another question.
func (f *FAQ) Answer(topic string) (string, bool) {
	if e, ok := f.Lookup(topic); ok {
		return fmt.Sprintf("Regarding %s, %s", f.Company, e.Answer), true
	}
	return fmt.Sprintf("I'm sorry, I don't have an approved answer for that in my %s FAQ. Would you like to ask something else?", f.Company), false
}
