package content_test

import (
	"strings"
	"testing"

	"github.com/rany1024/CodeMapFree/internal/content"
)

func TestHighlight_GoSource(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"
	out, err := content.Highlight(src, "main.go")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "main") {
		t.Errorf("markup lost the source text: %q", out)
	}
	if out == src {
		t.Error("expected markup, got the raw text back")
	}
}

func TestHighlight_UnknownLanguageFallsBack(t *testing.T) {
	out, err := content.Highlight("some plain text", "notes.xyzzy")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "some plain text") {
		t.Errorf("fallback lexer lost the text: %q", out)
	}
}
