package dot

import (
	"bytes"
	"strings"
	"testing"
)

func TestParse_UndirectedWithWeights(t *testing.T) {
	src := `graph G {
  "a" -- "b" [weight=2.5];
  b -- c;
}`
	g, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.Directed {
		t.Error("expected undirected graph")
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %v", g.Nodes)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %v", g.Edges)
	}
	if g.Edges[0].Weight != 2.5 {
		t.Errorf("edge weight = %v, want 2.5", g.Edges[0].Weight)
	}
	if g.Edges[1].Weight != 1 {
		t.Errorf("unweighted edge should default to 1, got %v", g.Edges[1].Weight)
	}
}

func TestParse_Directed(t *testing.T) {
	src := `digraph G { a -> b; }`
	g, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !g.Directed {
		t.Error("expected directed graph")
	}
}

func TestParse_RejectsNonDOT(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"nodes": []}`))
	if err == nil {
		t.Fatal("expected an error for non-DOT input")
	}
}

func TestLooksLikeDOT(t *testing.T) {
	if !LooksLikeDOT("strict digraph G {}") {
		t.Error("strict digraph header should sniff as DOT")
	}
	if LooksLikeDOT(`{"a":1}`) {
		t.Error("JSON should not sniff as DOT")
	}
}

func TestWrite_OverlaysCommunity(t *testing.T) {
	g := &Graph{Nodes: []string{"a", "b"}, Edges: []Edge{{Source: "a", Target: "b", Weight: 1}}}
	var buf bytes.Buffer
	if err := Write(&buf, g, map[string]string{"a": "0", "b": "0"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `community="0"`) {
		t.Errorf("expected community overlay in output, got:\n%s", out)
	}
}

func TestRoundTrip_ParseThenWrite(t *testing.T) {
	src := `graph G { a -- b [weight=3]; }`
	g, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, g, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	g2, err := Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if len(g2.Edges) != 1 || g2.Edges[0].Weight != 3 {
		t.Errorf("round-trip lost the edge weight: %+v", g2.Edges)
	}
}
