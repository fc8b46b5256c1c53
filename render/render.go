package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	json "github.com/json-iterator/go"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/scope"
)

// pointsPerInch converts layout units to the inches graphviz expects for pinned positions.
const pointsPerInch = 72

// JSON encodes a graph or a navigator view for the rendering surface.
func JSON(v interface{}) ([]byte, error) {
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, api.InternalServerError("encode view: %v", err).WithCause(err)
	}
	return data, nil
}

// DOT converts a laid-out graph to Graphviz DOT. Every node is pinned to the centre of its
// computed box, so the neato engine only routes edges.
func DOT(g *scope.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if g.Name != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", g.Name)
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [fixedsize=true, fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n scope.Node) []string {
	cx := (n.Position.X + n.Width/2) / pointsPerInch
	// graphviz y grows upwards
	cy := -(n.Position.Y + n.Height/2) / pointsPerInch

	attrs := []string{
		fmt.Sprintf("label=%q", n.Label),
		fmt.Sprintf("pos=\"%.4f,%.4f!\"", cx, cy),
		fmt.Sprintf("width=%.4f", n.Width/pointsPerInch),
		fmt.Sprintf("height=%.4f", n.Height/pointsPerInch),
	}

	switch n.Kind {
	case bpmn.EventKind:
		attrs = append(attrs, "shape=ellipse")
	case bpmn.GatewayKind:
		attrs = append(attrs, "shape=diamond")
	case bpmn.SubProcessKind:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled,bold\"")
		if n.Style.HasNested {
			attrs = append(attrs, "peripheries=2")
		}
	default:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"")
	}
	if n.Style.Marker == "end" {
		attrs = append(attrs, "penwidth=3")
	}
	if n.Style.Active {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	if n.Style.TaskType != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Style.TaskType))
	}
	return attrs
}

// SVG renders a laid-out graph to SVG.
func SVG(ctx context.Context, g *scope.Graph) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, api.InternalServerError("init graphviz: %v", err).WithCause(err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	graph, err := graphviz.ParseBytes([]byte(DOT(g)))
	if err != nil {
		return nil, api.InternalServerError("parse DOT: %v", err).WithCause(err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err = gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, api.InternalServerError("render: %v", err).WithCause(err)
	}
	return buf.Bytes(), nil
}
