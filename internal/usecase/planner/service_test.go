package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
)

// --- Mocks ---

// queueModel serves scripted completions in call order. Expansion calls can
// run concurrently, so the queue is locked.
type queueModel struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (m *queueModel) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	if len(m.responses) == 0 {
		return domain.CompletionResult{Text: "[]"}, nil
	}
	text := m.responses[0]
	m.responses = m.responses[1:]
	return domain.CompletionResult{Text: text}, nil
}

func (m *queueModel) CompleteStream(ctx context.Context, req domain.CompletionRequest, _ domain.StreamFunc) (domain.CompletionResult, error) {
	return m.Complete(ctx, req)
}

// alwaysComplex forces decomposition regardless of query shape.
var alwaysComplex = Heuristic{MinLength: 1, MaxSimpleWords: 0}

func testConfig() Config {
	return Config{MaxDepth: 2, MaxChildren: 3, MaxParallel: 2, Heuristic: alwaysComplex}
}

// --- Tests ---

func TestPlan_NilModel_SimpleTree(t *testing.T) {
	svc := New(nil, testConfig())

	tree := svc.Plan(context.Background(), "qualquer pergunta complexa sobre vários temas")
	if tree.Size() != 1 {
		t.Fatalf("expected one-node tree, got %d nodes", tree.Size())
	}
	if tree.Root().State != mindmap.StateEnd {
		t.Error("simple plan root must be END")
	}
}

func TestPlan_SimpleQuery_NoModelCall(t *testing.T) {
	model := &queueModel{}
	svc := New(model, Config{MaxDepth: 3, MaxChildren: 3, MaxParallel: 2, Heuristic: DefaultHeuristic()})

	tree := svc.Plan(context.Background(), "artigo 121 do código penal brasileiro")
	if tree.Size() != 1 {
		t.Fatalf("expected one-node tree, got %d nodes", tree.Size())
	}
	if model.calls != 0 {
		t.Errorf("simple query should not touch the model, got %d calls", model.calls)
	}
}

func TestPlan_Decomposition(t *testing.T) {
	model := &queueModel{responses: []string{
		// Condition extraction, then the root expansion.
		"direito administrativo, licitações",
		`["Qual o regime jurídico?", "Quais os prazos?"]`,
	}}
	svc := New(model, testConfig())

	tree := svc.Plan(context.Background(), "pergunta complexa")
	if tree.Size() != 3 {
		t.Fatalf("expected 3 nodes, got %d", tree.Size())
	}
	leaves := tree.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}
	for _, n := range leaves {
		if n.Level != 1 {
			t.Errorf("leaf %q at level %d, want 1", n.Question, n.Level)
		}
	}
}

func TestPlan_NoDanglingContinueNodes(t *testing.T) {
	// The decompose call fails: the root closes via Seal instead of hanging
	// in CONTINUE.
	model := &queueModel{responses: []string{"condições", "not a json array at all"}}
	svc := New(model, testConfig())

	tree := svc.Plan(context.Background(), "pergunta complexa")
	for _, n := range tree.Nodes {
		if n.State == mindmap.StateContinue && len(n.Children) == 0 {
			t.Errorf("node %q left in CONTINUE without children", n.Question)
		}
	}
	if len(tree.Leaves()) == 0 {
		t.Error("a sealed tree must expose at least one leaf")
	}
}

func TestPlan_ExtractionFailure_SimpleFallback(t *testing.T) {
	model := &queueModel{err: errors.New("provider down")}
	svc := New(model, testConfig())

	tree := svc.Plan(context.Background(), "pergunta complexa")
	if tree.Size() != 1 {
		t.Fatalf("expected simple fallback tree, got %d nodes", tree.Size())
	}
	if tree.Root().State != mindmap.StateEnd {
		t.Error("fallback root must be END")
	}
}

func TestPlan_DuplicateQuestionsSuppressed(t *testing.T) {
	model := &queueModel{responses: []string{
		"condições",
		`["Qual o prazo?", "qual o prazo ?", "Outra pergunta"]`,
	}}
	svc := New(model, testConfig())

	tree := svc.Plan(context.Background(), "pergunta complexa")
	// The near-duplicate differs only in case, spacing, and trailing
	// punctuation; it must collapse into one child.
	if tree.Size() != 3 {
		t.Fatalf("expected 3 nodes after dedup, got %d", tree.Size())
	}
}

func TestPlan_MaxChildrenEnforced(t *testing.T) {
	model := &queueModel{responses: []string{
		"condições",
		`["a?", "b?", "c?", "d?", "e?"]`,
	}}
	svc := New(model, testConfig())

	tree := svc.Plan(context.Background(), "pergunta complexa")
	if got := len(tree.Root().Children); got != 3 {
		t.Errorf("children: got %d, want max 3", got)
	}
}

func TestParseQuestions(t *testing.T) {
	t.Run("plain array", func(t *testing.T) {
		qs, err := parseQuestions(`["a", "b"]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(qs) != 2 {
			t.Fatalf("expected 2 questions, got %d", len(qs))
		}
	})

	t.Run("markdown fences", func(t *testing.T) {
		qs, err := parseQuestions("```json\n[\"a\"]\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(qs) != 1 || qs[0] != "a" {
			t.Errorf("got %v", qs)
		}
	})

	t.Run("empty array means leaf", func(t *testing.T) {
		qs, err := parseQuestions("[]")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(qs) != 0 {
			t.Errorf("expected no questions, got %v", qs)
		}
	})

	t.Run("blank entries dropped", func(t *testing.T) {
		qs, err := parseQuestions(`["a", "  ", ""]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(qs) != 1 {
			t.Errorf("expected 1 question, got %v", qs)
		}
	})

	t.Run("no array", func(t *testing.T) {
		if _, err := parseQuestions("I cannot decompose this"); err == nil {
			t.Error("expected error for output without a JSON array")
		}
	})
}
