package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/category"
	"github.com/legalmind/lexrag/internal/domain/query"
)

// --- Mocks ---

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

type mockCache struct {
	entries map[string]category.Category
	puts    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]category.Category)}
}

func (m *mockCache) Get(_ context.Context, tenantID, q string) (category.Category, bool) {
	cat, ok := m.entries[tenantID+"|"+q]
	return cat, ok
}

func (m *mockCache) Put(_ context.Context, tenantID, q string, cat category.Category) {
	m.puts++
	m.entries[tenantID+"|"+q] = cat
}

func makeQuery(t *testing.T, text string) query.Query {
	t.Helper()
	q, err := query.New(text, "tenant-1", "", "")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

// --- Tests ---

func TestClassify_FastPath_NoModelCall(t *testing.T) {
	model := &mockModel{text: "conceptual"}
	svc := New(model, newMockCache())

	res := svc.Classify(context.Background(), makeQuery(t, "O que diz o art. 5º da Constituição Federal?"), true)

	if res.Category != category.NormCitation {
		t.Errorf("category: got %s, want norm_citation", res.Category)
	}
	if res.Weights.Sparse <= res.Weights.Dense {
		t.Error("identifier query should be sparse-dominant")
	}
	if res.UsedLLM {
		t.Error("fast path must not report LLM use")
	}
	if model.called != 0 {
		t.Errorf("model called %d times on the fast path, want 0", model.called)
	}
}

func TestClassify_FastPath_CaseNumber(t *testing.T) {
	svc := New(nil, nil)
	res := svc.Classify(context.Background(), makeQuery(t, "Andamento do processo 0001234-56.2020.8.26.0100"), true)
	if res.Category != category.CaseLaw {
		t.Errorf("CNJ case number: got %s, want case_law", res.Category)
	}
}

func TestClassify_NoModel_Neutral(t *testing.T) {
	svc := New(nil, nil)
	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), true)
	if res.Category != category.General {
		t.Errorf("category: got %s, want general", res.Category)
	}
	if res.Weights.Sparse != 0.5 || res.Weights.Dense != 0.5 {
		t.Errorf("neutral weights expected, got %+v", res.Weights)
	}
}

func TestClassify_LLMDisallowed_Neutral(t *testing.T) {
	model := &mockModel{text: "conceptual"}
	svc := New(model, nil)

	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), false)
	if res.Category != category.General {
		t.Errorf("category: got %s, want general", res.Category)
	}
	if model.called != 0 {
		t.Error("model must not be called when LLM use is disallowed")
	}
}

func TestClassify_CacheHit_SkipsModel(t *testing.T) {
	model := &mockModel{text: "conceptual"}
	cache := newMockCache()
	cache.entries["tenant-1|responsabilidade objetiva do estado"] = category.Argumentative
	svc := New(model, cache)

	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), true)
	if res.Category != category.Argumentative {
		t.Errorf("category: got %s, want cached argumentative", res.Category)
	}
	if model.called != 0 {
		t.Error("model must not be called on a cache hit")
	}
}

func TestClassify_LLMSuccess_CachesResult(t *testing.T) {
	model := &mockModel{text: " Conceptual \n"}
	cache := newMockCache()
	svc := New(model, cache)

	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), true)
	if res.Category != category.Conceptual {
		t.Errorf("category: got %s, want conceptual", res.Category)
	}
	if !res.UsedLLM {
		t.Error("expected UsedLLM=true")
	}
	if cache.puts != 1 {
		t.Errorf("cache puts: got %d, want 1", cache.puts)
	}
}

func TestClassify_MalformedOutput_Neutral(t *testing.T) {
	model := &mockModel{text: "I think this query is about contracts."}
	svc := New(model, newMockCache())

	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), true)
	if res.Category != category.General {
		t.Errorf("malformed output should degrade to general, got %s", res.Category)
	}
	if res.UsedLLM {
		t.Error("degraded classification must not report LLM use")
	}
}

func TestClassify_ModelError_Neutral(t *testing.T) {
	model := &mockModel{err: errors.New("provider down")}
	svc := New(model, newMockCache())

	res := svc.Classify(context.Background(), makeQuery(t, "responsabilidade objetiva do estado"), true)
	if res.Category != category.General {
		t.Errorf("model error should degrade to general, got %s", res.Category)
	}
}

func TestMatchFastPath_Patterns(t *testing.T) {
	cases := []struct {
		query string
		cat   category.Category
		ok    bool
	}{
		{"Súmula vinculante nº 13", category.CaseLaw, true},
		{"REsp 1.234.567 do STJ", category.CaseLaw, true},
		{"artigo 37 da CF", category.NormCitation, true},
		{"Lei 8.666/93 licitações", category.NormCitation, true},
		{"inciso IV do § 1º", category.NormCitation, true},
		{"o que é responsabilidade civil", "", false},
	}
	for _, c := range cases {
		cat, ok := matchFastPath(c.query)
		if ok != c.ok {
			t.Errorf("%q: matched=%v, want %v", c.query, ok, c.ok)
			continue
		}
		if ok && cat != c.cat {
			t.Errorf("%q: got %s, want %s", c.query, cat, c.cat)
		}
	}
}
