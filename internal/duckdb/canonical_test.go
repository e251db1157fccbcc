package duckdb_test

import (
	"encoding/json"
	"testing"

	"reqtester/internal/duckdb"
	"reqtester/internal/normalize"
)

// TestCanonicalJSONStable verifies canonical JSON output ignores key order.
func TestCanonicalJSONStable(t *testing.T) {
	left, err := duckdb.CanonicalJSON(json.RawMessage(`{"q":"go","opts":{"top":1,"lang":"en"}}`))
	if err != nil {
		t.Fatalf("canonical json a: %v", err)
	}
	right, err := duckdb.CanonicalJSON(json.RawMessage(`{ "opts": {"lang":"en", "top":1}, "q":"go" }`))
	if err != nil {
		t.Fatalf("canonical json b: %v", err)
	}
	if string(left) != string(right) {
		t.Fatalf("canonical json mismatch: %s vs %s", left, right)
	}
	if string(left) != `{"opts":{"lang":"en","top":1},"q":"go"}` {
		t.Fatalf("unexpected canonical form %s", left)
	}
}

// TestArgumentsFingerprint verifies object and text arguments hash distinctly.
func TestArgumentsFingerprint(t *testing.T) {
	none, err := duckdb.ArgumentsFingerprint(normalize.Arguments{})
	if err != nil || none != "" {
		t.Fatalf("expected empty fingerprint, got %q err %v", none, err)
	}
	a, err := duckdb.ArgumentsFingerprint(normalize.Arguments{Kind: normalize.ArgumentsObject, Object: json.RawMessage(`{"a":1,"b":2}`)})
	if err != nil {
		t.Fatalf("fingerprint object: %v", err)
	}
	b, err := duckdb.ArgumentsFingerprint(normalize.Arguments{Kind: normalize.ArgumentsObject, Object: json.RawMessage(`{"b":2,"a":1}`)})
	if err != nil {
		t.Fatalf("fingerprint reordered object: %v", err)
	}
	if a != b || len(a) != 64 {
		t.Fatalf("expected stable sha256 fingerprint, got %q and %q", a, b)
	}
	text, err := duckdb.ArgumentsFingerprint(normalize.Arguments{Kind: normalize.ArgumentsText, Text: `{"a":1,"b":2}`})
	if err != nil {
		t.Fatalf("fingerprint text: %v", err)
	}
	if text == a {
		t.Fatalf("expected text arguments to hash differently from objects")
	}
	if _, err := duckdb.CanonicalJSON(json.RawMessage(`{bad`)); err == nil {
		t.Fatalf("expected invalid JSON to fail")
	}
}
