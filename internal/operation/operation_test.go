package operation

import "testing"

func TestMatchEquality(t *testing.T) {
	entity := map[string]any{"account": "alice", "age": float64(30)}

	if !Match(entity, map[string]any{"account": "alice"}) {
		t.Fatal("single-field equality failed")
	}
	if !Match(entity, map[string]any{"account": "alice", "age": float64(30)}) {
		t.Fatal("multi-field equality failed")
	}
	if Match(entity, map[string]any{"account": "bob"}) {
		t.Fatal("mismatched value matched")
	}
	if Match(entity, map[string]any{"missing": "x"}) {
		t.Fatal("missing field matched")
	}
	if !Match(entity, nil) {
		t.Fatal("empty filter must match everything")
	}
}

func TestApplySetAndUnset(t *testing.T) {
	entity := map[string]any{"id": "e1", "name": "old", "tmp": true}

	out, err := Apply(entity, map[string]any{
		"$set":   map[string]any{"name": "new"},
		"$unset": map[string]any{"tmp": ""},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out["name"] != "new" {
		t.Fatalf("name = %v", out["name"])
	}
	if _, ok := out["tmp"]; ok {
		t.Fatal("$unset field survived")
	}
	// The input is never mutated.
	if entity["name"] != "old" {
		t.Fatal("Apply mutated its input")
	}
}

func TestApplyBareKeysActAsSet(t *testing.T) {
	out, err := Apply(map[string]any{"id": "e1"}, map[string]any{"done": true})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out["done"] != true {
		t.Fatalf("done = %v", out["done"])
	}
}

func TestApplyRejectsUnknownOperators(t *testing.T) {
	if _, err := Apply(map[string]any{}, map[string]any{"$inc": map[string]any{"n": 1}}); err == nil {
		t.Fatal("expected an error for an unsupported operator")
	}
	if _, err := Apply(map[string]any{}, map[string]any{"$set": "not-an-object"}); err == nil {
		t.Fatal("expected an error for a malformed $set")
	}
}
