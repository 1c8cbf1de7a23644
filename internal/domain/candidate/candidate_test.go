package candidate

import (
	"strings"
	"testing"
)

func TestDedupKey_NormalizesCaseAndWhitespace(t *testing.T) {
	a := DedupKey("Art. 5º da Constituição Federal")
	b := DedupKey("  art. 5º   da constituição FEDERAL ")
	if a != b {
		t.Errorf("normalized texts should share a key:\n%s\n%s", a, b)
	}
}

func TestDedupKey_DifferentTexts(t *testing.T) {
	a := DedupKey("prescrição no direito civil")
	b := DedupKey("decadência no direito civil")
	if a == b {
		t.Error("different texts should not share a key")
	}
}

func TestDedupKey_LongChunksShareLeadingWindow(t *testing.T) {
	prefix := strings.Repeat("x", dedupWindow)
	a := DedupKey(prefix + " tail one")
	b := DedupKey(prefix + " tail two")
	if a != b {
		t.Error("chunks identical in the leading window should share a key")
	}
}

func TestWithScore_DoesNotMutateOriginal(t *testing.T) {
	c := New(BackendLexical, "doc-1", "text", 0.8, Metadata{})
	f := NewFused(c, 0.5, []Backend{BackendLexical}, DedupKey("text"))

	updated := f.WithScore(0.9)
	if updated.Score() != 0.9 {
		t.Errorf("updated score: got %f, want 0.9", updated.Score())
	}
	if f.Score() != 0.5 {
		t.Errorf("original score changed: got %f, want 0.5", f.Score())
	}
	if updated.ID() != "doc-1" || updated.Text() != "text" {
		t.Error("WithScore should keep the representative candidate")
	}
}
