// Package dot implements a minimal reader/writer for the small subset
// of the DOT graph language this engine's CLI needs: node and edge
// statements, an optional weight attribute, and on output, an overlay
// community attribute per node (spec.md §6). It intentionally does
// not attempt general DOT (subgraphs, ports, HTML labels): no library
// in this codebase's dependency set covers that ground, and the CLI's
// own DOT needs are this small.
package dot

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/novagraph/communities/internal/apperrors"
)

// Edge is one parsed DOT edge statement.
type Edge struct {
	Source, Target string
	Weight         float64
}

// Graph is the parsed result: declared nodes in first-seen order plus
// the edge list.
type Graph struct {
	Directed bool
	Nodes    []string
	Edges    []Edge
}

var headerRe = regexp.MustCompile(`(?i)^\s*(strict\s+)?(di)?graph\b`)

// LooksLikeDOT reports whether the content sniffs as DOT, per the
// CLI's auto-detect rule (spec.md §6).
func LooksLikeDOT(content string) bool {
	return headerRe.MatchString(content)
}

var (
	edgeOpRe  = regexp.MustCompile(`->|--`)
	attrRe    = regexp.MustCompile(`\[(.*)\]`)
	idRe      = regexp.MustCompile(`^[A-Za-z0-9_."]+`)
	keyValRe  = regexp.MustCompile(`(\w+)\s*=\s*"?([^",\]]+)"?`)
)

// Parse reads a DOT document and extracts node and edge statements.
// Attributes are parsed for a single "weight" key; any other key is
// ignored (the CLI only ever overlays "community" on output, and does
// not need to round-trip arbitrary attributes on input).
func Parse(r io.Reader) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if !LooksLikeDOT(text) {
		return nil, fmt.Errorf("%w: input does not look like a DOT graph", apperrors.ErrInput)
	}

	g := &Graph{Directed: strings.Contains(strings.ToLower(headerRe.FindString(text)), "digraph")}
	seen := map[string]bool{}
	addNode := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, id)
		}
	}

	body := stripBraces(text)
	for _, stmt := range splitStatements(body) {
		stmt = strings.TrimSpace(stripComments(stmt))
		if stmt == "" {
			continue
		}
		loc := edgeOpRe.FindStringIndex(stmt)
		if loc == nil {
			if id := idRe.FindString(stmt); id != "" {
				addNode(unquote(id))
			}
			continue
		}
		left := strings.TrimSpace(stmt[:loc[0]])
		right := strings.TrimSpace(stmt[loc[1]:])
		attrs := ""
		if m := attrRe.FindStringSubmatch(right); m != nil {
			attrs = m[1]
			right = strings.TrimSpace(right[:strings.Index(right, "[")])
		}
		src := unquote(idRe.FindString(left))
		dst := unquote(idRe.FindString(right))
		if src == "" || dst == "" {
			continue
		}
		addNode(src)
		addNode(dst)
		weight := 1.0
		for _, kv := range keyValRe.FindAllStringSubmatch(attrs, -1) {
			if strings.EqualFold(kv[1], "weight") {
				if f, err := strconv.ParseFloat(kv[2], 64); err == nil {
					weight = f
				}
			}
		}
		g.Edges = append(g.Edges, Edge{Source: src, Target: dst, Weight: weight})
	}
	return g, nil
}

// Write emits a DOT document for g, overlaying a community attribute
// per node from membership (node id -> community label); nodes absent
// from membership are written without the attribute.
func Write(w io.Writer, g *Graph, membership map[string]string) error {
	bw := bufio.NewWriter(w)
	kind := "graph"
	op := "--"
	if g.Directed {
		kind = "digraph"
		op = "->"
	}
	fmt.Fprintf(bw, "%s G {\n", kind)
	for _, n := range g.Nodes {
		if c, ok := membership[n]; ok {
			fmt.Fprintf(bw, "  %q [community=%q];\n", n, c)
		} else {
			fmt.Fprintf(bw, "  %q;\n", n)
		}
	}
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "  %q %s %q [weight=%g];\n", e.Source, op, e.Target, e.Weight)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func stripBraces(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start+1 : end]
}

func stripComments(stmt string) string {
	if i := strings.Index(stmt, "//"); i != -1 {
		stmt = stmt[:i]
	}
	return stmt
}

func splitStatements(body string) []string {
	return strings.Split(body, ";")
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
