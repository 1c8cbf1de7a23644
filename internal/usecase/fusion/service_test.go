package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/retrieval"
)

// --- Mocks ---

type mockAdapter struct {
	name   candidate.Backend
	cands  []candidate.Candidate
	err    error
	called bool
}

func (m *mockAdapter) Name() candidate.Backend { return m.name }

func (m *mockAdapter) Search(_ context.Context, _ retrieval.Request) ([]candidate.Candidate, error) {
	m.called = true
	return m.cands, m.err
}

func searchRequest() retrieval.Request {
	return retrieval.Request{Query: "test query", TopK: 10}
}

// --- Tests ---

func TestFuse_AllBackendsHealthy(t *testing.T) {
	lex := &mockAdapter{
		name:  candidate.BackendLexical,
		cands: []candidate.Candidate{makeCand(candidate.BackendLexical, "a", "lexical text", 0.9)},
	}
	vec := &mockAdapter{
		name:  candidate.BackendVector,
		cands: []candidate.Candidate{makeCand(candidate.BackendVector, "b", "vector text", 0.8)},
	}
	svc := New([]Adapter{lex, vec}, time.Second, DefaultRRFK)

	out := svc.Fuse(context.Background(), searchRequest(), Weights{
		candidate.BackendLexical: 0.5,
		candidate.BackendVector:  0.5,
	})

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if len(out.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", out.Warnings)
	}
	if !lex.called || !vec.called {
		t.Error("both weighted adapters should be called")
	}
}

func TestFuse_ZeroWeightSkipsBackend(t *testing.T) {
	lex := &mockAdapter{
		name:  candidate.BackendLexical,
		cands: []candidate.Candidate{makeCand(candidate.BackendLexical, "a", "lexical text", 0.9)},
	}
	graph := &mockAdapter{name: candidate.BackendGraph}
	svc := New([]Adapter{lex, graph}, time.Second, DefaultRRFK)

	out := svc.Fuse(context.Background(), searchRequest(), Weights{
		candidate.BackendLexical: 1.0,
	})

	if graph.called {
		t.Error("adapter without a positive weight must not be called")
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Results))
	}
}

func TestFuse_FailingBackendExcludedNotFatal(t *testing.T) {
	lex := &mockAdapter{
		name:  candidate.BackendLexical,
		cands: []candidate.Candidate{makeCand(candidate.BackendLexical, "a", "lexical text", 0.9)},
	}
	vec := &mockAdapter{name: candidate.BackendVector, err: errors.New("index offline")}
	svc := New([]Adapter{lex, vec}, time.Second, DefaultRRFK)

	out := svc.Fuse(context.Background(), searchRequest(), Weights{
		candidate.BackendLexical: 0.5,
		candidate.BackendVector:  0.5,
	})

	if len(out.Results) != 1 {
		t.Fatalf("healthy backend results should survive, got %d", len(out.Results))
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", out.Warnings)
	}
	if out.Warnings[0] != "backend vector unavailable" {
		t.Errorf("unexpected warning: %q", out.Warnings[0])
	}
}

func TestFuse_AllBackendsFail_EmptyNotError(t *testing.T) {
	lex := &mockAdapter{name: candidate.BackendLexical, err: errors.New("down")}
	vec := &mockAdapter{name: candidate.BackendVector, err: errors.New("down")}
	svc := New([]Adapter{lex, vec}, time.Second, DefaultRRFK)

	out := svc.Fuse(context.Background(), searchRequest(), Weights{
		candidate.BackendLexical: 0.5,
		candidate.BackendVector:  0.5,
	})

	if len(out.Results) != 0 {
		t.Errorf("expected empty results, got %d", len(out.Results))
	}
	if len(out.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", out.Warnings)
	}
}
