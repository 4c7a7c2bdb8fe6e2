package runner

import (
	"context"
	"strings"
	"testing"
)

func TestExecMissingBinary(t *testing.T) {
	_, _, err := New(nil).Run(context.Background(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abc", 5); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("abcdef", 3); !strings.HasPrefix(got, "abc...") {
		t.Errorf("Truncate long = %q", got)
	}
}
