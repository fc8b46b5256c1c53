package layout

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/scope"
)

func graphOf(edges [][2]string, nodes ...string) *scope.Graph {
	g := &scope.Graph{}
	for _, id := range nodes {
		g.Nodes = append(g.Nodes, scope.Node{ID: id, Label: id})
	}
	for i, e := range edges {
		g.Edges = append(g.Edges, scope.Edge{ID: fmt.Sprintf("e%d", i), Source: e[0], Target: e[1]})
	}
	return g
}

func positions(g *scope.Graph) map[string]scope.Point {
	out := map[string]scope.Point{}
	for _, n := range g.Nodes {
		out[n.ID] = n.Position
	}
	return out
}

func TestChainTopBottom(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")
	out := Compute(g, Options{Orientation: api.TopBottom})

	want := map[string]scope.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 0, Y: 100},
		"c": {X: 0, Y: 200},
	}
	if diff := cmp.Diff(want, positions(out)); diff != "" {
		t.Fatal(diff)
	}
	for _, n := range out.Nodes {
		assert.Equal(t, float64(150), n.Width)
		assert.Equal(t, float64(50), n.Height)
	}
	// the input is untouched
	assert.Equal(t, scope.Point{}, g.Nodes[1].Position)
}

func TestChainLeftRight(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")
	out := Compute(g, Options{Orientation: api.LeftRight})

	want := map[string]scope.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 200, Y: 0},
		"c": {X: 400, Y: 0},
	}
	if diff := cmp.Diff(want, positions(out)); diff != "" {
		t.Fatal(diff)
	}
	assert.Equal(t, api.LeftRight, out.Orientation)
}

func TestCentreToTopLeft(t *testing.T) {
	nodes := Layout([]scope.Node{{ID: "a"}}, nil, api.TopBottom)
	require.Len(t, nodes, 1)
	// a single box centred on (75, 25)
	assert.Equal(t, scope.Point{X: 0, Y: 0}, nodes[0].Position)
}

func TestIdempotent(t *testing.T) {
	g := graphOf([][2]string{
		{"s", "a"}, {"s", "b"}, {"a", "c"}, {"b", "c"}, {"a", "d"}, {"c", "e"}, {"d", "e"}, {"s", "e"},
	}, "s", "a", "b", "c", "d", "e")

	first := Compute(g, DefaultOptions())
	second := Compute(g, DefaultOptions())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
}

func TestToggleTwice(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"a", "c"}, {"c", "d"}}, "a", "b", "c", "d")

	tb := Compute(g, Options{Orientation: api.TopBottom})
	lr := Compute(tb, Options{Orientation: tb.Orientation.Toggle()})
	back := Compute(lr, Options{Orientation: lr.Orientation.Toggle()})

	assert.NotEqual(t, positions(tb), positions(lr))
	if diff := cmp.Diff(positions(tb), positions(back)); diff != "" {
		t.Fatal(diff)
	}
}

func TestIsolatedNodes(t *testing.T) {
	g := graphOf(nil, "a", "b", "c")
	out := Compute(g, DefaultOptions())

	for _, n := range out.Nodes {
		assert.Equal(t, float64(0), n.Position.Y, n.ID)
	}
	assert.Equal(t, float64(0), out.Nodes[0].Position.X)
	assert.Equal(t, float64(200), out.Nodes[1].Position.X)
	assert.Equal(t, float64(400), out.Nodes[2].Position.X)
}

func TestMultiEdgesAndMalformed(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"a", "b"}, {"b", "b"}, {"a", "ghost"}}, "a", "b")
	out := Compute(g, DefaultOptions())

	require.Len(t, out.Edges, 3)
	assert.Len(t, out.Edges[0].Points, 2)
	assert.Equal(t, out.Edges[0].Points, out.Edges[1].Points)
	assert.Nil(t, out.Edges[2].Points)
	assert.Equal(t, float64(100), positions(out)["b"].Y)
}

func TestCycle(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, "a", "b", "c")
	out := Compute(g, DefaultOptions())

	p := positions(out)
	assert.Less(t, p["a"].Y, p["b"].Y)
	assert.Less(t, p["b"].Y, p["c"].Y)

	// the back edge c -> a still starts at c
	back := out.Edges[2]
	require.Len(t, back.Points, 3)
	assert.Equal(t, p["c"].Y+25, back.Points[0].Y)
	assert.Equal(t, p["a"].Y+25, back.Points[2].Y)
}

func TestLongEdgePoints(t *testing.T) {
	g := graphOf([][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}, "a", "b", "c")
	out := Compute(g, DefaultOptions())

	long := out.Edges[2]
	assert.Len(t, long.Points, 3)
}

func TestCrossingsReduced(t *testing.T) {
	// a->d and b->c cross in input order
	g := graphOf([][2]string{{"a", "d"}, {"b", "c"}}, "a", "b", "c", "d")
	out := Compute(g, DefaultOptions())

	p := positions(out)
	assert.Equal(t, p["a"].X < p["b"].X, p["d"].X < p["c"].X)
}

func TestCountLayerCrossings(t *testing.T) {
	// upper: 0 1, lower: 2 3; edges 0->3 and 1->2 cross once
	pos := []int{0, 1, 0, 1}
	down := [][]int{{3}, {2}, nil, nil}
	assert.Equal(t, 1, countLayerCrossings([]int{0, 1}, 2, pos, down))

	down = [][]int{{2}, {3}, nil, nil}
	assert.Equal(t, 0, countLayerCrossings([]int{0, 1}, 2, pos, down))

	assert.Equal(t, 0, countLayerCrossings(nil, 2, pos, down))
}

func TestEmptyGraph(t *testing.T) {
	out := Compute(&scope.Graph{}, DefaultOptions())
	assert.Empty(t, out.Nodes)
	assert.Nil(t, Compute(nil, DefaultOptions()))
}
