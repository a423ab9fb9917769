package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shaiso/Cascade/internal/domain"
)

func chainGraph() domain.Graph {
	// A → B → C
	return domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
			{ID: "B", Type: "http.request"},
			{ID: "C", Type: "transform.uppercase"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "B", To: "C"},
		},
	}
}

func diamondGraph() domain.Graph {
	// A → B → D
	// A → C → D
	return domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
			{ID: "B", Type: "http.request"},
			{ID: "C", Type: "http.request"},
			{ID: "D", Type: "transform.uppercase"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "A", To: "C"},
			{ID: "e3", From: "B", To: "D"},
			{ID: "e4", From: "C", To: "D"},
		},
	}
}

func TestBuild_SimpleChain(t *testing.T) {
	g, err := Build(chainGraph())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}

	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(g.Order(), want) {
		t.Errorf("expected order %v, got %v", want, g.Order())
	}

	// Проверяем индекс родителей/потомков
	if !reflect.DeepEqual(g.Parents("B"), []string{"A"}) {
		t.Errorf("B should have parent A, got %v", g.Parents("B"))
	}
	if !reflect.DeepEqual(g.Children("B"), []string{"C"}) {
		t.Errorf("B should have child C, got %v", g.Children("B"))
	}
	if len(g.Parents("A")) != 0 {
		t.Errorf("A should have no parents, got %v", g.Parents("A"))
	}
}

func TestBuild_Diamond(t *testing.T) {
	g, err := Build(diamondGraph())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range g.Order() {
		pos[id] = i
	}

	// A раньше B и C, оба раньше D
	if pos["A"] >= pos["B"] || pos["A"] >= pos["C"] {
		t.Errorf("A must precede B and C in %v", g.Order())
	}
	if pos["B"] >= pos["D"] || pos["C"] >= pos["D"] {
		t.Errorf("B and C must precede D in %v", g.Order())
	}

	parents := g.Parents("D")
	if len(parents) != 2 {
		t.Fatalf("D should have 2 parents, got %v", parents)
	}
}

func TestBuild_TopoOrderRespectsAllEdges(t *testing.T) {
	for _, raw := range []domain.Graph{chainGraph(), diamondGraph()} {
		g, err := Build(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		pos := make(map[string]int)
		for i, id := range g.Order() {
			pos[id] = i
		}

		// Для каждого ребра from раньше to
		for _, e := range raw.Edges {
			if pos[e.From] >= pos[e.To] {
				t.Errorf("edge %s: %s must precede %s in %v", e.ID, e.From, e.To, g.Order())
			}
		}
	}
}

func TestBuild_DeclarationOrderTieBreak(t *testing.T) {
	// Три независимых корня: порядок должен совпадать с порядком объявления
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "zeta", Type: "start"},
			{ID: "alpha", Type: "start"},
			{ID: "mid", Type: "start"},
		},
	}

	for i := 0; i < 10; i++ {
		g, err := Build(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"zeta", "alpha", "mid"}
		if !reflect.DeepEqual(g.Order(), want) {
			t.Fatalf("expected declaration order %v, got %v", want, g.Order())
		}
	}
}

func TestBuild_DuplicateNodeID(t *testing.T) {
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
			{ID: "A", Type: "http.request"},
		},
	}

	_, err := Build(raw)
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("expected *ValidationError")
	}
	if verr.NodeID != "A" {
		t.Errorf("error should name node A, got %q", verr.NodeID)
	}
}

func TestBuild_DanglingEdge(t *testing.T) {
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "missing"},
		},
	}

	_, err := Build(raw)
	if !errors.Is(err, ErrDanglingEdge) {
		t.Fatalf("expected ErrDanglingEdge, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("expected *ValidationError")
	}
	if verr.EdgeID != "e1" {
		t.Errorf("error should name edge e1, got %q", verr.EdgeID)
	}
}

func TestBuild_Cycle(t *testing.T) {
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
			{ID: "B", Type: "http.request"},
			{ID: "C", Type: "http.request"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
			{ID: "e2", From: "B", To: "C"},
			{ID: "e3", From: "C", To: "B"},
		},
	}

	g, err := Build(raw)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if g != nil {
		t.Error("no graph should be produced for a cyclic input")
	}
}

func TestBuild_SelfLoop(t *testing.T) {
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start"},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "A"},
		},
	}

	_, err := Build(raw)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle for self-loop, got %v", err)
	}
}

func TestBuild_EmptyGraph(t *testing.T) {
	_, err := Build(domain.Graph{})
	if !errors.Is(err, ErrEmptyGraph) {
		t.Fatalf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestGraph_WireRoundTrip(t *testing.T) {
	raw := domain.Graph{
		Nodes: []domain.Node{
			{ID: "A", Type: "start", Params: map[string]any{"payload": map[string]any{"x": float64(1)}}},
			{ID: "B", Type: "http.request", Params: map[string]any{"url": "https://example.com"}},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: "A", To: "B"},
		},
	}

	data, err := raw.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := domain.ParseGraph(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !reflect.DeepEqual(raw, parsed) {
		t.Errorf("round trip mismatch:\n  in:  %+v\n  out: %+v", raw, parsed)
	}

	// Wire-формат использует ключи from/to
	if want := `"from":"A"`; !strings.Contains(string(data), want) {
		t.Errorf("wire format should contain %s, got %s", want, data)
	}
}
