package llm

import (
	"encoding/json"
	"testing"
)

func TestNormalizeVerdict(t *testing.T) {
	in := `{
		"is_signature": "true",
		"confidence": "0.85",
		"signature_count": 2,
		"full_signature_count": 1,
		"individual_signatures": [
			{"position": "bottom left", "type": "Full Signature", "description": "cursive"},
			{"position": "bottom right", "type": "initial"},
			"garbage"
		],
		"error": "ignored"
	}`

	out, changed, err := NormalizeVerdict([]byte(in))
	if err != nil {
		t.Fatalf("NormalizeVerdict: %v", err)
	}
	if len(changed) == 0 {
		t.Error("expected changed keys to be reported")
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["is_signature"] != true {
		t.Errorf("is_signature = %v, want true", m["is_signature"])
	}
	if m["confidence"] != 0.85 {
		t.Errorf("confidence = %v, want 0.85", m["confidence"])
	}
	if m["total_mark_count"] != float64(2) {
		t.Errorf("total_mark_count = %v, want 2", m["total_mark_count"])
	}
	if _, ok := m["error"]; ok {
		t.Error("unknown key should be dropped")
	}
	marks, ok := m["marks"].([]any)
	if !ok || len(marks) != 2 {
		t.Fatalf("marks = %v, want 2 entries", m["marks"])
	}
	first := marks[0].(map[string]any)
	if first["kind"] != "full_signature" || first["position_description"] != "bottom left" {
		t.Errorf("first mark = %v", first)
	}
	if second := marks[1].(map[string]any); second["kind"] != "initials" {
		t.Errorf("second mark kind = %v, want initials", second["kind"])
	}
}

func TestNormalizeVerdictUnknownKindNeverCounts(t *testing.T) {
	out, _, err := NormalizeVerdict([]byte(`{"is_signature":true,"confidence":0.9,"marks":[{"kind":"squiggle"}]}`))
	if err != nil {
		t.Fatalf("NormalizeVerdict: %v", err)
	}
	var m struct {
		Marks []struct {
			Kind string `json:"kind"`
		} `json:"marks"`
	}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if m.Marks[0].Kind != "mark" {
		t.Errorf("kind = %q, want mark", m.Marks[0].Kind)
	}
}

func TestNormalizeVerdictRejectsNonObject(t *testing.T) {
	for _, in := range []string{`[]`, `null`, `"text"`, `{bad`} {
		t.Run(in, func(t *testing.T) {
			if _, _, err := NormalizeVerdict([]byte(in)); err == nil {
				t.Errorf("expected error for %s", in)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```\n{\"a\":1}```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
