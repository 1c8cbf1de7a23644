package refiner

import (
	"testing"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

func chunk(id, text, docType string, score float64) candidate.Fused {
	c := candidate.New(candidate.BackendLexical, id, text, score,
		candidate.Metadata{DocType: docType, Title: "doc " + id})
	return candidate.NewFused(c, score, []candidate.Backend{candidate.BackendLexical}, candidate.DedupKey(text))
}

func TestRefine_SourcePriorOrdersEqualScores(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	text := "A responsabilidade civil do fornecedor segue o regime geral aplicável às relações de consumo no ordenamento."
	byNode := map[string][]candidate.Fused{
		"n1": {
			chunk("commentary", text, "commentary", 0.5),
			chunk("caselaw", text, "case_law", 0.5),
		},
	}

	refined, _ := svc.Refine(byNode)
	set := refined["n1"]
	if len(set.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(set.Chunks))
	}
	if set.Chunks[0].ID() != "caselaw" {
		t.Errorf("case law prior should outrank commentary, got %s first", set.Chunks[0].ID())
	}
	if set.Quality <= 0 || set.Quality > 1 {
		t.Errorf("set quality out of range: %f", set.Quality)
	}
}

func TestRefine_ShortChunkPenalized(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	long := "A jurisprudência consolidada reconhece a responsabilidade objetiva do fornecedor de serviços quando presente o defeito na prestação, nos termos do regime consumerista vigente."
	byNode := map[string][]candidate.Fused{
		"n1": {
			chunk("short", "Responsabilidade objetiva.", "statute", 0.5),
			chunk("long", long, "statute", 0.5),
		},
	}

	refined, _ := svc.Refine(byNode)
	if refined["n1"].Chunks[0].ID() != "long" {
		t.Error("short chunk should rank below a full-length chunk at equal score")
	}
}

func TestRefine_IntraNodeConflict(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	byNode := map[string][]candidate.Fused{
		"n1": {
			chunk("pos", "O contrato é válido segundo o art. 5º da lei aplicável ao caso concreto em análise.", "case_law", 0.6),
			chunk("neg", "O contrato é nulo conforme o art. 5º da lei aplicável ao caso concreto em análise.", "case_law", 0.6),
		},
	}

	refined, conflicts := svc.Refine(byNode)
	if len(conflicts) == 0 {
		t.Fatal("expected an intra-node conflict")
	}
	c := conflicts[0]
	if c.Kind != "intra_node" {
		t.Errorf("kind: got %s, want intra_node", c.Kind)
	}
	if c.NodeA != "n1" || c.NodeB != "n1" {
		t.Errorf("conflict nodes: got %s/%s, want n1/n1", c.NodeA, c.NodeB)
	}
	if len(c.Signals) == 0 {
		t.Error("conflict must name its triggering signals")
	}
	if !refined["n1"].HasConflicts {
		t.Error("conflicted node set must be flagged")
	}
}

func TestRefine_CrossNodeConflict_FlagsBothNodes(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	byNode := map[string][]candidate.Fused{
		"na": {chunk("a1", "A cobrança é permitida e o pedido foi deferido com base na Súmula 7 pelos tribunais superiores.", "case_law", 0.6)},
		"nb": {chunk("b1", "O pedido foi indeferido pelos tribunais com fundamento direto na Súmula 7 em decisão recente.", "case_law", 0.6)},
	}

	refined, conflicts := svc.Refine(byNode)
	found := false
	for _, c := range conflicts {
		if c.Kind == "cross_node" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a cross-node conflict")
	}
	if !refined["na"].HasConflicts || !refined["nb"].HasConflicts {
		t.Error("both nodes touched by the conflict must be flagged")
	}
}

func TestRefine_NegationAsymmetry(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	byNode := map[string][]candidate.Fused{
		"n1": {
			chunk("forbid", "É vedado ao servidor público acumular cargos remunerados na administração direta e indireta.", "statute", 0.6),
			chunk("allow", "O servidor pode acumular dois cargos de professor quando houver compatibilidade de horários entre eles.", "statute", 0.6),
		},
	}

	_, conflicts := svc.Refine(byNode)
	if len(conflicts) == 0 {
		t.Fatal("expected a negation-asymmetry conflict")
	}
	hasSignal := false
	for _, s := range conflicts[0].Signals {
		if s == "negation_asymmetry" {
			hasSignal = true
		}
	}
	if !hasSignal {
		t.Errorf("expected negation_asymmetry signal, got %v", conflicts[0].Signals)
	}
}

func TestRefine_VocabularyNextToPunctuation(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	// Legal prose rarely leaves verdict words surrounded by spaces; commas
	// and periods must not hide them.
	sig := svc.extractSignals("É vedado, nos termos do estatuto, o exercício simultâneo dos cargos.")
	if _, ok := sig.negations["vedado"]; !ok {
		t.Error("comma-adjacent negation marker not detected")
	}
	sig = svc.extractSignals("O tribunal declarou o contrato nulo.")
	if !sig.negative {
		t.Error("period-adjacent negative verdict not detected")
	}

	byNode := map[string][]candidate.Fused{
		"n1": {
			chunk("forbid", "É vedado, nos termos do regime estatutário vigente, o acúmulo remunerado de cargos públicos.", "statute", 0.6),
			chunk("allow", "O acúmulo de cargos de professor é admitido quando comprovada a compatibilidade entre horários.", "statute", 0.6),
		},
	}
	_, conflicts := svc.Refine(byNode)
	if len(conflicts) == 0 {
		t.Fatal("expected a conflict despite punctuation around the negation marker")
	}
	hasSignal := false
	for _, s := range conflicts[0].Signals {
		if s == "negation_asymmetry" {
			hasSignal = true
		}
	}
	if !hasSignal {
		t.Errorf("expected negation_asymmetry signal, got %v", conflicts[0].Signals)
	}
}

func TestRefine_NoConflicts(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	byNode := map[string][]candidate.Fused{
		"n1": {chunk("a", "O prazo de contestação no procedimento comum é de quinze dias úteis contados da citação.", "statute", 0.6)},
		"n2": {chunk("b", "A petição inicial deve indicar os fundamentos jurídicos do pedido conforme exige a legislação processual.", "commentary", 0.6)},
	}

	refined, conflicts := svc.Refine(byNode)
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", conflicts)
	}
	for id, set := range refined {
		if set.HasConflicts {
			t.Errorf("node %s wrongly flagged", id)
		}
	}
}

func TestRefine_Deterministic(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	byNode := map[string][]candidate.Fused{
		"na": {chunk("a1", "O pedido é procedente conforme o art. 12 da norma aplicável ao presente caso em julgamento.", "case_law", 0.6)},
		"nb": {chunk("b1", "O pedido é improcedente segundo o art. 12 da norma aplicável ao presente caso em julgamento.", "case_law", 0.6)},
	}

	_, first := svc.Refine(byNode)
	for i := 0; i < 5; i++ {
		_, again := svc.Refine(byNode)
		if len(again) != len(first) {
			t.Fatalf("conflict count changed across runs: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].NodeA != first[j].NodeA || again[j].NodeB != first[j].NodeB {
				t.Fatalf("conflict order changed across runs")
			}
		}
	}
}

func TestConflictSignals_Symmetric(t *testing.T) {
	svc := New(DefaultConfig(), DefaultVocabulary())

	a := svc.extractSignals("É proibido e inválido o ato praticado, nos termos do art. 9º da lei de regência.")
	b := svc.extractSignals("O ato é válido e foi deferido conforme o art. 9º da lei de regência aplicável.")

	ab := conflictSignals(a, b)
	ba := conflictSignals(b, a)
	if len(ab) != len(ba) {
		t.Errorf("detection must be symmetric: %v vs %v", ab, ba)
	}
	if len(ab) == 0 {
		t.Error("expected conflict signals between opposing texts")
	}
}
