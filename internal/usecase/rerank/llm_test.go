package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/candidate"
)

type mockModel struct {
	text   string
	err    error
	called int
}

func (m *mockModel) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	m.called++
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Text: m.text}, nil
}

func (m *mockModel) CompleteStream(ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc) (domain.CompletionResult, error) {
	return m.Complete(ctx, req)
}

func TestLLMProvider_OrdersByModelOutput(t *testing.T) {
	model := &mockModel{text: "2, 0, 1"}
	p := NewLLMProvider(model, "llm")

	cands := candidate3(t)
	out, err := p.Rerank(context.Background(), "query", cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].ID() != "c" || out[1].ID() != "a" || out[2].ID() != "b" {
		t.Errorf("unexpected order: %s, %s, %s", out[0].ID(), out[1].ID(), out[2].ID())
	}
	// Rank-derived scores: 1/(rank+1).
	if out[0].Score() != 1.0 || out[1].Score() != 0.5 {
		t.Errorf("rank scores: got %f, %f", out[0].Score(), out[1].Score())
	}
}

func TestLLMProvider_DroppedIndicesKeepTailOrder(t *testing.T) {
	model := &mockModel{text: "1"}
	p := NewLLMProvider(model, "llm")

	out, err := p.Rerank(context.Background(), "query", candidate3(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("all candidates must survive, got %d", len(out))
	}
	if out[0].ID() != "b" || out[1].ID() != "a" || out[2].ID() != "c" {
		t.Errorf("unexpected order: %s, %s, %s", out[0].ID(), out[1].ID(), out[2].ID())
	}
}

func TestLLMProvider_DuplicateIndicesIgnored(t *testing.T) {
	model := &mockModel{text: "0, 0, 2, 1"}
	p := NewLLMProvider(model, "llm")

	out, err := p.Rerank(context.Background(), "query", candidate3(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
}

func TestLLMProvider_MalformedOutput(t *testing.T) {
	model := &mockModel{text: "the most relevant document is the third one"}
	p := NewLLMProvider(model, "llm")

	_, err := p.Rerank(context.Background(), "query", candidate3(t))
	if !errors.Is(err, domain.ErrModelOutputMalformed) {
		t.Errorf("expected ErrModelOutputMalformed, got %v", err)
	}
}

func TestLLMProvider_SingleCandidate_NoModelCall(t *testing.T) {
	model := &mockModel{text: "0"}
	p := NewLLMProvider(model, "llm")

	out, err := p.Rerank(context.Background(), "query", candidate3(t)[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	if model.called != 0 {
		t.Error("a single candidate needs no model call")
	}
}

func TestParseIndices(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want []int
	}{
		{"0, 2, 1", 3, []int{0, 2, 1}},
		{"Ranking: [1] then [0]", 2, []int{1, 0}},
		{"5, 0", 3, []int{0}}, // out-of-range filtered
		{"no digits here", 3, nil},
	}
	for _, c := range cases {
		got := parseIndices(c.in, c.n)
		if len(got) != len(c.want) {
			t.Errorf("%q: got %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%q: got %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}

func candidate3(t *testing.T) []candidate.Fused {
	t.Helper()
	return []candidate.Fused{
		fused("a", "primeiro trecho", 0.9),
		fused("b", "segundo trecho", 0.8),
		fused("c", "terceiro trecho", 0.7),
	}
}
