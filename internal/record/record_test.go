package record

import (
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"github.com/hpungsan/intake/internal/errors"
)

func orderSchema() *Schema {
	return NewSchema("order",
		Field{Name: "name", Prompt: Ask("May I have your name?")},
		Field{Name: "drink_type", Label: "drink", Fold: true, Prompt: func(r *Record) string {
			return "What would you like, " + r.Text("name") + "?"
		}},
		Field{Name: "size", Fold: true, Choices: []string{"small", "medium", "large"},
			Aliases: map[string]string{"tall": "small", "grande": "medium", "venti": "large"},
			Prompt:  Ask("What size?")},
		Field{Name: "milk", Fold: true, AllowEmpty: true,
			Aliases: map[string]string{"black": "", "none": ""},
			Prompt:  Ask("What milk?")},
		Field{Name: "extras", List: true, Fold: true, AllowEmpty: true, MaxItems: 4,
			Aliases: map[string]string{"none": ""},
			Prompt:  Ask("Any extras?")},
	)
}

func mustApply(t *testing.T, r *Record, p Patch) {
	t.Helper()
	if err := r.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestNewSchema_PanicsOnDuplicate(t *testing.T) {
	expectPanic(t, "duplicate", func() {
		NewSchema("dup", Field{Name: "Use case"}, Field{Name: "use_case"})
	})
	expectPanic(t, "blank", func() {
		NewSchema("blank", Field{Name: "  "})
	})
}

func TestSchema_Lookup(t *testing.T) {
	s := NewSchema("lead", Field{Name: "Name"}, Field{Name: "Use case"}, Field{Name: "Team size"})

	for _, name := range []string{"Use case", "use_case", "USE-CASE", " use   case "} {
		i, ok := s.Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
		if i != 1 {
			t.Errorf("Lookup(%q) = %d, want 1", name, i)
		}
	}
	if _, ok := s.Lookup("budget"); ok {
		t.Error("Lookup(budget) should fail")
	}
	if want := []string{"Name", "Use case", "Team size"}; !slices.Equal(s.Names(), want) {
		t.Errorf("Names() = %v, want %v", s.Names(), want)
	}
}

func TestSchema_DefaultPrompt(t *testing.T) {
	s := NewSchema("x", Field{Name: "email", Label: "email address"})
	r := New(s)
	if got := r.NextPrompt(); got != "What is your email address?" {
		t.Errorf("NextPrompt() = %q", got)
	}
}

func TestRecord_CoffeeFlow(t *testing.T) {
	r := New(orderSchema())
	if r.State() != StateEmpty {
		t.Errorf("state = %v, want empty", r.State())
	}
	if got := r.NextPrompt(); got != "May I have your name?" {
		t.Errorf("first prompt = %q", got)
	}

	mustApply(t, r, Patch{Set("name", "  Alex ")})
	if r.State() != StatePartial {
		t.Errorf("state = %v, want partial", r.State())
	}
	if got := r.NextPrompt(); got != "What would you like, Alex?" {
		t.Errorf("drink prompt = %q", got)
	}

	mustApply(t, r, Patch{Set("drink_type", "Latte")})
	if got := r.Text("drink_type"); got != "latte" {
		t.Errorf("drink_type = %q, want latte", got)
	}
	if got := r.NextPrompt(); got != "What size?" {
		t.Errorf("size prompt = %q", got)
	}

	mustApply(t, r, Patch{Set("size", "Large"), Set("milk", "")})
	if !r.IsSet("milk") {
		t.Error("explicit empty milk must count as set")
	}
	if got := r.Text("milk"); got != "" {
		t.Errorf("milk = %q, want empty", got)
	}
	if got := r.NextPrompt(); got != "Any extras?" {
		t.Errorf("extras prompt = %q", got)
	}

	mustApply(t, r, Patch{Add("extras", "Vanilla")})
	if !r.Complete() || r.State() != StateComplete {
		t.Errorf("expected complete record, state = %v", r.State())
	}
	if got := r.NextPrompt(); got != "" {
		t.Errorf("complete record prompt = %q, want empty", got)
	}
	if got := r.Items("extras"); !slices.Equal(got, []string{"vanilla"}) {
		t.Errorf("extras = %v", got)
	}
}

func TestRecord_EmptyNotProvidedForStrictFields(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Set("name", ""), Set("drink_type", "   ")})
	if r.IsSet("name") || r.IsSet("drink_type") {
		t.Error("blank values must not set strict fields")
	}
	if r.State() != StateEmpty {
		t.Errorf("state = %v, want empty", r.State())
	}
}

func TestRecord_ProperNounsKeepCase(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Set("name", "Mary   Jane")})
	if got := r.Text("name"); got != "Mary Jane" {
		t.Errorf("name = %q, want %q", got, "Mary Jane")
	}
}

func TestRecord_AliasesAndChoices(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Set("size", "Venti"), Set("milk", "Black")})
	if got := r.Text("size"); got != "large" {
		t.Errorf("size = %q, want large", got)
	}
	if !r.IsSet("milk") || r.Text("milk") != "" {
		t.Errorf("milk = %q (set=%v), want explicit empty", r.Text("milk"), r.IsSet("milk"))
	}
}

func TestRecord_InvalidValueLeavesRecordUntouched(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Set("name", "Alex")})
	before := r.Values()

	err := r.Apply(Patch{Set("drink_type", "mocha"), Set("size", "enormous")})
	if !errors.Is(err, errors.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if !reflect.DeepEqual(before, r.Values()) {
		t.Errorf("rejected patch must not partially apply: before %v, after %v", before, r.Values())
	}
}

func TestRecord_UnknownField(t *testing.T) {
	r := New(orderSchema())
	err := r.Apply(Patch{Set("name", "Alex"), Set("flavor", "mint")})
	if !errors.Is(err, errors.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if r.IsSet("name") {
		t.Error("name must not be set after a rejected patch")
	}
}

func TestRecord_ListDedupPreservesOrder(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Add("extras", "Caramel", "vanilla")})
	mustApply(t, r, Patch{Add("extras", "VANILLA", "cinnamon", "caramel")})
	if got, want := r.Items("extras"), []string{"caramel", "vanilla", "cinnamon"}; !slices.Equal(got, want) {
		t.Errorf("extras = %v, want %v", got, want)
	}
}

func TestRecord_ListTextAppendsOneItem(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{{Field: "extras", Text: "Whipped Cream"}})
	if got := r.Items("extras"); !slices.Equal(got, []string{"whipped cream"}) {
		t.Errorf("extras = %v", got)
	}
}

func TestRecord_ListMaxItems(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Add("extras", "a1", "b2", "c3", "d4", "e5")})
	if got := len(r.Items("extras")); got != 4 {
		t.Errorf("len(extras) = %d, want 4", got)
	}
}

func TestRecord_ExplicitEmptyList(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Add("extras")})
	if !r.IsSet("extras") || len(r.Items("extras")) != 0 {
		t.Errorf("expected explicit empty extras, got %v (set=%v)", r.Items("extras"), r.IsSet("extras"))
	}

	// alias to empty is an explicit answer
	r2 := New(orderSchema())
	mustApply(t, r2, Patch{Add("extras", "None")})
	if !r2.IsSet("extras") || len(r2.Items("extras")) != 0 {
		t.Errorf("expected explicit empty extras, got %v (set=%v)", r2.Items("extras"), r2.IsSet("extras"))
	}
}

func TestRecord_MissingResetClone(t *testing.T) {
	r := New(orderSchema())
	mustApply(t, r, Patch{Set("name", "Alex"), Set("size", "small")})
	if got, want := r.Missing(), []string{"drink_type", "milk", "extras"}; !slices.Equal(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}

	c := r.Clone()
	r.Reset()
	if r.State() != StateEmpty {
		t.Errorf("state after reset = %v", r.State())
	}
	if got := c.Text("name"); got != "Alex" {
		t.Errorf("clone must be independent, name = %q", got)
	}
}

func TestValue_JSON(t *testing.T) {
	values := map[string]Value{
		"name":   TextValue("Alex"),
		"milk":   TextValue(""),
		"extras": ListValue(),
		"tags":   ListValue("a", "b"),
	}
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var gotRaw, wantRaw any
	if err := json.Unmarshal(data, &gotRaw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	_ = json.Unmarshal([]byte(`{"name":"Alex","milk":"","extras":[],"tags":["a","b"]}`), &wantRaw)
	if !reflect.DeepEqual(gotRaw, wantRaw) {
		t.Errorf("encoded = %s", data)
	}

	var back map[string]Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(values, back) {
		t.Errorf("round trip = %v, want %v", back, values)
	}
	if got := back["tags"].String(); got != "a, b" {
		t.Errorf("String() = %q", got)
	}
}

func TestValue_UnmarshalRejectsNumbers(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`42`), &v); err == nil {
		t.Error("expected error for a number")
	}
}
