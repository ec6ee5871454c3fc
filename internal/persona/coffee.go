package persona

import (
	"fmt"
	"strings"

	"github.com/hpungsan/intake/internal/record"
)

// Coffee returns the barista persona taking drink orders.
//
// milk permits an explicit empty answer ("black"); extras permits an explicit
// empty list ("no extras"). Every other field treats empty as not provided.
func Coffee(shop string) *Persona {
	schema := record.NewSchema("order",
		record.Field{
			Name:   "name",
			Prompt: record.Ask("May I have your name for the order, please?"),
		},
		record.Field{
			Name:  "drink_type",
			Label: "drink",
			Fold:  true,
			Prompt: func(r *record.Record) string {
				return fmt.Sprintf("What would you like to order today, %s? We have espresso, latte, cappuccino, americano, and more!", r.Text("name"))
			},
		},
		record.Field{
			Name:    "size",
			Fold:    true,
			Choices: []string{"small", "medium", "large"},
			Aliases: map[string]string{
				"tall":    "small",
				"short":   "small",
				"grande":  "medium",
				"regular": "medium",
				"venti":   "large",
			},
			Prompt: func(r *record.Record) string {
				return fmt.Sprintf("What size would you like for your %s? We have small, medium, and large.", r.Text("drink_type"))
			},
		},
		record.Field{
			Name:       "milk",
			Fold:       true,
			AllowEmpty: true,
			Aliases: map[string]string{
				"black":        "",
				"none":         "",
				"no":           "",
				"no milk":      "",
				"without milk": "",
				"no thanks":    "",
			},
			Parse:  parseMilk,
			Prompt: record.Ask("What kind of milk would you like? We have whole, skim, almond, oat, and soy. Or say 'black' for no milk."),
		},
		record.Field{
			Name:       "extras",
			List:       true,
			Fold:       true,
			AllowEmpty: true,
			MaxItems:   8,
			Aliases: map[string]string{
				"none":      "",
				"nothing":   "",
				"no":        "",
				"no extras": "",
				"no thanks": "",
			},
			Prompt: record.Ask("Would you like to add any extras like sugar, caramel, vanilla, or whipped cream?"),
		},
	)

	return &Persona{
		Name:  "order",
		Title: fmt.Sprintf("%s barista", shop),
		Instructions: fmt.Sprintf(`You are a friendly coffee shop barista at a cafe called %q.
Your job is to take customer orders for coffee and other drinks.
Always be polite, friendly, and enthusiastic about coffee.

Follow these steps for each order:
1. Greet the customer and ask for their name
2. Ask what type of drink they'd like (espresso, latte, cappuccino, americano, etc.)
3. Ask what size they'd like (small, medium, large)
4. Ask what kind of milk they prefer (whole, skim, almond, oat, soy, or none for black)
5. Ask if they'd like any extras (sugar, caramel, vanilla, cinnamon, whipped cream, etc.)
6. Repeat the order back to them to confirm
7. Thank them and let them know their order will be ready soon

Call order_update every time the customer gives you part of the order and
speak the text it returns. Keep your responses concise and natural-sounding
for a voice conversation. Don't list options unless the customer asks for them.`, shop),
		Schema:    schema,
		Confirm:   confirmOrder,
		Farewell:  fmt.Sprintf("Thank you for choosing %s!", shop),
		FileField: "name",
	}
}

func parseMilk(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(record.Normalize(s), " milk"))
	return s, s != ""
}

func confirmOrder(values map[string]record.Value) string {
	name := value(values, "name", "friend")
	size := value(values, "size", "")
	drink := value(values, "drink_type", "drink")

	milk := " black"
	if m := value(values, "milk", ""); m != "" {
		milk = fmt.Sprintf(" with %s milk", m)
	}
	extras := ""
	if e := value(values, "extras", ""); e != "" {
		extras = " with " + e
	}

	item := strings.TrimSpace(size + " " + drink)
	return fmt.Sprintf("Got it, %s! Your %s%s%s will be ready in just a few minutes.", name, item, milk, extras)
}
