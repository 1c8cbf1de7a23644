package redis

import (
	"strconv"
	"strings"
	"testing"
)

func limitValue(t *testing.T, args []string) int {
	t.Helper()
	for i, a := range args {
		if a == "LIMIT" {
			if i+2 >= len(args) {
				t.Fatalf("truncated LIMIT clause in %v", args)
			}
			n, err := strconv.Atoi(args[i+2])
			if err != nil {
				t.Fatalf("bad LIMIT count %q: %v", args[i+2], err)
			}
			return n
		}
	}
	t.Fatalf("no LIMIT clause in %v", args)
	return 0
}

func TestTextSearchArgs_Limit(t *testing.T) {
	args := textSearchArgs("idx", "prazo contestação", "", 25)
	if got := limitValue(t, args); got != 25 {
		t.Errorf("LIMIT count: got %d, want 25", got)
	}
}

func TestKNNSearchArgs_LimitTracksTopK(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3}
	for _, topK := range []int{5, 10, 20, 50} {
		args := knnSearchArgs("idx", vec, "", topK)
		if got := limitValue(t, args); got != topK {
			t.Errorf("topK %d: LIMIT count got %d", topK, got)
		}
		if !strings.Contains(args[1], "[KNN "+strconv.Itoa(topK)+" ") {
			t.Errorf("topK %d: KNN clause missing from query %q", topK, args[1])
		}
	}
}

func TestKNNSearchArgs_ScopeFilter(t *testing.T) {
	args := knnSearchArgs("idx", []float32{0.1}, "civil", 10)
	if !strings.HasPrefix(args[1], "(@scope:{civil})=>") {
		t.Errorf("scoped query: got %q", args[1])
	}

	args = knnSearchArgs("idx", []float32{0.1}, "", 10)
	if !strings.HasPrefix(args[1], "*=>") {
		t.Errorf("unscoped query: got %q", args[1])
	}
}
