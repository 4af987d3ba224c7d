package authz

import (
	"reflect"
	"testing"
)

func leadRecord(assignedTo string) map[string]any {
	record := map[string]any{
		"id":    "lead-1",
		"name":  "Summer Gala",
		"email": "gala@brightside.example",
		"phone": "+1-555-0101",
		"value": float64(42000),
	}
	if assignedTo != "" {
		record["assignedTo"] = assignedTo
	}
	return record
}

func TestMaskReplacesConfiguredFields(t *testing.T) {
	rule := MaskRule{Fields: []string{"value", "email", "phone"}}
	masked := Mask(leadRecord("user-2"), rule, "user-1").(map[string]any)

	if masked["value"] != MaskedNumeric {
		t.Fatalf("expected value masked, got %v", masked["value"])
	}
	if masked["email"] != MaskedEmail {
		t.Fatalf("expected email masked, got %v", masked["email"])
	}
	if masked["phone"] != MaskedPhone {
		t.Fatalf("expected phone masked, got %v", masked["phone"])
	}
	if masked["name"] != "Summer Gala" {
		t.Fatalf("expected name untouched, got %v", masked["name"])
	}
}

func TestMaskGenericMarkerForUnknownCategory(t *testing.T) {
	record := map[string]any{"notes": "confidential", "assignedTo": "user-2"}
	masked := Mask(record, MaskRule{Fields: []string{"notes"}}, "user-1").(map[string]any)
	if masked["notes"] != MaskedGeneric {
		t.Fatalf("expected generic marker, got %v", masked["notes"])
	}
}

func TestMaskOwnershipBypass(t *testing.T) {
	rule := MaskRule{Fields: []string{"value"}}

	owned := Mask(leadRecord("user-1"), rule, "user-1").(map[string]any)
	if owned["value"] != float64(42000) {
		t.Fatalf("expected owned record unmasked, got %v", owned["value"])
	}

	foreign := Mask(leadRecord("user-9"), rule, "user-1").(map[string]any)
	if foreign["value"] != MaskedNumeric {
		t.Fatalf("expected foreign record masked, got %v", foreign["value"])
	}
}

func TestMaskOwnershipBypassNestedID(t *testing.T) {
	record := leadRecord("")
	record["assignedTo"] = map[string]any{"id": "user-1", "name": "Liam"}
	masked := Mask(record, MaskRule{Fields: []string{"value"}}, "user-1").(map[string]any)
	if masked["value"] != float64(42000) {
		t.Fatalf("expected nested owner bypass, got %v", masked["value"])
	}
}

func TestMaskCustomOwnerField(t *testing.T) {
	record := map[string]any{"budget": float64(100), "organizer": "user-1"}
	rule := MaskRule{Fields: []string{"budget"}, OwnerField: "organizer"}
	masked := Mask(record, rule, "user-1").(map[string]any)
	if masked["budget"] != float64(100) {
		t.Fatalf("expected custom owner field bypass, got %v", masked["budget"])
	}
}

func TestMaskListElementsIndependently(t *testing.T) {
	list := []any{leadRecord("user-1"), leadRecord("user-9")}
	masked := Mask(list, MaskRule{Fields: []string{"value"}}, "user-1").([]any)

	owned := masked[0].(map[string]any)
	foreign := masked[1].(map[string]any)
	if owned["value"] != float64(42000) {
		t.Fatalf("expected first element unmasked")
	}
	if foreign["value"] != MaskedNumeric {
		t.Fatalf("expected second element masked")
	}
}

func TestMaskIdempotent(t *testing.T) {
	rule := MaskRule{Fields: []string{"value", "email"}}
	once := Mask(leadRecord("user-9"), rule, "user-1")
	twice := Mask(once, rule, "user-1")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected masking to be idempotent: %v vs %v", once, twice)
	}
}

func TestMaskDoesNotMutateInput(t *testing.T) {
	record := leadRecord("user-9")
	_ = Mask(record, MaskRule{Fields: []string{"value"}}, "user-1")
	if record["value"] != float64(42000) {
		t.Fatalf("expected input untouched, got %v", record["value"])
	}
}

func TestMaskSkipsAbsentAndEmptyFields(t *testing.T) {
	record := map[string]any{"email": "", "assignedTo": "user-9"}
	masked := Mask(record, MaskRule{Fields: []string{"email", "phone"}}, "user-1").(map[string]any)
	if masked["email"] != "" {
		t.Fatalf("expected empty email skipped, got %v", masked["email"])
	}
	if _, ok := masked["phone"]; ok {
		t.Fatalf("expected absent phone to stay absent")
	}
}

func TestMaskPrimitivesPassThrough(t *testing.T) {
	rule := MaskRule{Fields: []string{"value"}}
	if got := Mask("hello", rule, "user-1"); got != "hello" {
		t.Fatalf("expected string passthrough, got %v", got)
	}
	if got := Mask(nil, rule, "user-1"); got != nil {
		t.Fatalf("expected nil passthrough, got %v", got)
	}
	if got := Mask(float64(7), rule, "user-1"); got != float64(7) {
		t.Fatalf("expected number passthrough, got %v", got)
	}
}

func TestMaskRecursesIntoEnvelopes(t *testing.T) {
	envelope := map[string]any{
		"leads": []any{leadRecord("user-1"), leadRecord("user-9")},
		"total": float64(2),
	}
	masked := Mask(envelope, MaskRule{Fields: []string{"value"}}, "user-1").(map[string]any)

	if masked["total"] != float64(2) {
		t.Fatalf("expected envelope metadata untouched, got %v", masked["total"])
	}
	list := masked["leads"].([]any)
	owned := list[0].(map[string]any)
	foreign := list[1].(map[string]any)
	if owned["value"] != float64(42000) {
		t.Fatalf("expected owned element unmasked, got %v", owned["value"])
	}
	if foreign["value"] != MaskedNumeric {
		t.Fatalf("expected foreign element masked, got %v", foreign["value"])
	}
}

func TestMaskNestedObjectsMasked(t *testing.T) {
	record := map[string]any{
		"assignedTo": "user-9",
		"contact":    map[string]any{"email": "nested@example.com"},
	}
	masked := Mask(record, MaskRule{Fields: []string{"email"}}, "user-1").(map[string]any)
	nested := masked["contact"].(map[string]any)
	if nested["email"] != MaskedEmail {
		t.Fatalf("expected nested email masked, got %v", nested["email"])
	}
}
