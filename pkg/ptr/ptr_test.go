package ptr_test

import (
	"testing"

	"otodake/pkg/ptr"
)

func TestDeref(t *testing.T) {
	if got := ptr.Deref(ptr.Of("title")); got != "title" {
		t.Errorf("got %q, want %q", got, "title")
	}

	var nilStr *string
	if got := ptr.Deref(nilStr); got != "" {
		t.Errorf("got %q, want empty", got)
	}

	if got := ptr.Deref((*int)(nil)); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
