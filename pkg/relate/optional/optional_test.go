package optional

import (
	"encoding/json"
	"testing"
)

type patch struct {
	Name  Field[string] `json:"name"`
	Count Field[int]    `json:"count"`
}

func TestOmittedField(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if p.Name.Present() {
		t.Error("Expected omitted field to be absent")
	}
	if _, ok := p.Name.Value(); ok {
		t.Error("Expected no usable value for an omitted field")
	}
}

func TestNullField(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{"name": null}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !p.Name.Present() {
		t.Error("Expected null field to be present")
	}
	if !p.Name.IsNull() {
		t.Error("Expected null field to report IsNull")
	}
	if _, ok := p.Name.Value(); ok {
		t.Error("Expected no usable value for an explicit null")
	}
}

func TestValueField(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{"name": "Acme", "count": 0}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	v, ok := p.Name.Value()
	if !ok || v != "Acme" {
		t.Errorf("Expected 'Acme', got %q (ok=%v)", v, ok)
	}

	// a zero value is still a value, not an absence
	n, ok := p.Count.Value()
	if !ok || n != 0 {
		t.Errorf("Expected usable zero, got %d (ok=%v)", n, ok)
	}
	if p.Count.IsNull() {
		t.Error("Expected zero value not to be null")
	}
}

func TestConstructors(t *testing.T) {
	f := Of("x")
	if v, ok := f.Value(); !ok || v != "x" {
		t.Error("Expected Of to produce a usable value")
	}

	n := Null[string]()
	if !n.IsNull() {
		t.Error("Expected Null to produce an explicit null")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	out, err := json.Marshal(Of(42))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != "42" {
		t.Errorf("Expected 42, got %s", out)
	}

	out, _ = json.Marshal(Null[int]())
	if string(out) != "null" {
		t.Errorf("Expected null, got %s", out)
	}
}
