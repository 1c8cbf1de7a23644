package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbedding struct {
	err error
}

func (m *mockEmbedding) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockEmbedding{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status: got %s, want %s", report.Status, Healthy)
	}
	for _, name := range []string{"store", "graph", "embedding"} {
		if report.Checks[name] != CheckOK {
			t.Errorf("check %s: got %s, want ok", name, report.Checks[name])
		}
	}
}

func TestCheck_StoreDown_Degraded(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockPinger{}, &mockEmbedding{})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status: got %s, want %s", report.Status, Degraded)
	}
	if report.Checks["store"] != CheckError {
		t.Errorf("store check: got %s, want error", report.Checks["store"])
	}
	if report.Checks["graph"] != CheckOK {
		t.Errorf("graph check: got %s, want ok", report.Checks["graph"])
	}
}

func TestCheck_GraphDown_Degraded(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("bolt unreachable")}, nil)

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status: got %s, want %s", report.Status, Degraded)
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status: got %s, want %s", report.Status, Healthy)
	}
	if _, ok := report.Checks["graph"]; ok {
		t.Error("disabled graph must not appear in checks")
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("disabled embedding must not appear in checks")
	}
}

func TestCheck_EmbeddingDown_Degraded(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockEmbedding{err: errors.New("provider 503")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status: got %s, want %s", report.Status, Degraded)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("embedding check: got %s, want error", report.Checks["embedding"])
	}
}
