package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/novagraph/communities/internal/apperrors"
	"github.com/novagraph/communities/internal/dot"
	communities "github.com/novagraph/communities/pkg/communities"
)

// jsonEdge is one element of the JSON array-of-edges input form.
type jsonEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Weight *float64 `json:"weight,omitempty"`
}

// jsonGraphDoc is the JSON {nodes, links} input form.
type jsonGraphDoc struct {
	Nodes []json.RawMessage `json:"nodes"`
	Links []jsonLink        `json:"links"`
}

type jsonLink struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Weight *float64 `json:"weight,omitempty"`
}

type jsonNode struct {
	ID   string         `json:"id"`
	Size *float64       `json:"size,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// cliError carries the process exit code a failure should produce.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func fail(code int, format string, args ...any) error {
	return &cliError{code: code, err: fmt.Errorf(format, args...)}
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// detectInFormat applies the extension-then-content-sniff rule (spec.md §6).
// CSV is recognized by its .csv extension only, for membership documents.
func detectInFormat(path, content string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".csv":
		return "csv", nil
	case ".dot", ".gv":
		return "dot", nil
	}
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return "json", nil
	case dot.LooksLikeDOT(trimmed):
		return "dot", nil
	default:
		return "", fail(exitUnknownInFormat, "%w: unrecognized input format", apperrors.ErrUnknownOption)
	}
}

// parseGraph parses content as either a JSON array of edges, a JSON
// {nodes,links} document, or DOT, per the detected format.
func parseGraph(format, content string) (communities.Graph, error) {
	switch format {
	case "json":
		return parseJSONGraph(content)
	case "dot":
		g, err := dot.Parse(strings.NewReader(content))
		if err != nil {
			return communities.Graph{}, err
		}
		return dotToGraph(g), nil
	default:
		return communities.Graph{}, fail(exitUnknownInFormat, "%w: unrecognized input format %q", apperrors.ErrUnknownOption, format)
	}
}

func parseJSONGraph(content string) (communities.Graph, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "[") {
		var edges []jsonEdge
		if err := json.Unmarshal([]byte(content), &edges); err != nil {
			return communities.Graph{}, fmt.Errorf("parsing JSON edge list: %w", err)
		}
		return edgesToGraph(edges), nil
	}
	var doc jsonGraphDoc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return communities.Graph{}, fmt.Errorf("parsing JSON graph document: %w", err)
	}
	var g communities.Graph
	for _, raw := range doc.Nodes {
		var n jsonNode
		if err := json.Unmarshal(raw, &n); err != nil {
			return communities.Graph{}, fmt.Errorf("parsing node: %w", err)
		}
		data := n.Data
		if n.Size != nil {
			if data == nil {
				data = map[string]any{}
			}
			data["size"] = *n.Size
		}
		g.Nodes = append(g.Nodes, communities.Node{ID: n.ID, Data: data})
	}
	for _, l := range doc.Links {
		g.Links = append(g.Links, jsonLinkToLink(l))
	}
	return g, nil
}

func edgesToGraph(edges []jsonEdge) communities.Graph {
	var g communities.Graph
	seen := map[string]bool{}
	addNode := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, communities.Node{ID: id})
		}
	}
	for _, e := range edges {
		addNode(e.Source)
		addNode(e.Target)
		g.Links = append(g.Links, jsonLinkToLink(jsonLink{Source: e.Source, Target: e.Target, Weight: e.Weight}))
	}
	return g
}

func jsonLinkToLink(l jsonLink) communities.Link {
	var data map[string]any
	if l.Weight != nil {
		data = map[string]any{"weight": *l.Weight}
	}
	return communities.Link{Source: l.Source, Target: l.Target, Data: data}
}

func dotToGraph(g *dot.Graph) communities.Graph {
	var out communities.Graph
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, communities.Node{ID: n})
	}
	for _, e := range g.Edges {
		out.Links = append(out.Links, communities.Link{
			Source: e.Source, Target: e.Target,
			Data: map[string]any{"weight": e.Weight},
		})
	}
	return out
}

func graphToDot(g communities.Graph, directed bool) *dot.Graph {
	out := &dot.Graph{Directed: directed}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, n.ID)
	}
	for _, l := range g.Links {
		w := 1.0
		if l.Data != nil {
			if v, ok := l.Data["weight"].(float64); ok {
				w = v
			}
		}
		out.Edges = append(out.Edges, dot.Edge{Source: l.Source, Target: l.Target, Weight: w})
	}
	return out
}

// writeMembership renders the detected/evaluated membership in the
// requested out-format (spec.md §6).
func writeMembership(w io.Writer, g communities.Graph, clusters *communities.Clusters, format string, membershipOnly, directed bool) error {
	switch format {
	case "json":
		if membershipOnly {
			membership := map[string]string{}
			for _, n := range g.Nodes {
				membership[n.ID], _ = clusters.GetClass(n.ID)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(membership)
		}
		data, err := clusters.ToJSON()
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "csv":
		return writeCSV(w, g, clusters)
	case "dot":
		dg := graphToDot(g, directed)
		membership := map[string]string{}
		for _, n := range g.Nodes {
			membership[n.ID], _ = clusters.GetClass(n.ID)
		}
		return dot.Write(w, dg, membership)
	default:
		return fail(exitUnknownOutFormat, "%w: unrecognized output format %q", apperrors.ErrUnknownOption, format)
	}
}

func writeCSV(w io.Writer, g communities.Graph, clusters *communities.Clusters) error {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	if _, err := fmt.Fprintln(w, "nodeId,communityId"); err != nil {
		return err
	}
	for _, id := range ids {
		label, _ := clusters.GetClass(id)
		if _, err := fmt.Fprintf(w, "%s,%s\n", id, label); err != nil {
			return err
		}
	}
	return nil
}

func parseMembershipCSV(content string) map[string]string {
	membership := map[string]string{}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i == 0 && strings.HasPrefix(strings.ToLower(line), "nodeid,") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		membership[parts[0]] = parts[1]
	}
	return membership
}

func parseMembershipJSON(content string) (map[string]string, error) {
	trimmed := strings.TrimSpace(content)
	var flat map[string]string
	if err := json.Unmarshal([]byte(trimmed), &flat); err == nil {
		return flat, nil
	}
	var doc struct {
		Membership map[string]string `json:"membership"`
	}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("parsing membership JSON: %w", err)
	}
	return doc.Membership, nil
}

func formatQuality(q float64) string {
	return strconv.FormatFloat(q, 'g', -1, 64)
}

func parseMembership(format, content string) (map[string]string, error) {
	switch format {
	case "json":
		return parseMembershipJSON(content)
	case "csv":
		return parseMembershipCSV(content), nil
	default:
		return nil, fail(exitUnknownInFormat, "%w: unrecognized membership format %q", apperrors.ErrUnknownOption, format)
	}
}
