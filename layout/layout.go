package layout

import (
	"slices"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/scope"
)

const (
	DefaultNodeWidth  = 150
	DefaultNodeHeight = 50
	DefaultRankSep    = 50
	DefaultNodeSep    = 50
	DefaultSweeps     = 4
)

// Options configures the layered layout. Zero values fall back to the defaults.
type Options struct {
	Orientation api.Orientation
	NodeWidth   float64
	NodeHeight  float64
	// RankSep is the gap between two layers.
	RankSep float64
	// NodeSep is the gap between two neighbours of the same layer.
	NodeSep float64
	// Sweeps bounds the number of barycenter down/up sweep pairs.
	Sweeps int
}

func DefaultOptions() Options {
	return Options{
		Orientation: api.TopBottom,
		NodeWidth:   DefaultNodeWidth,
		NodeHeight:  DefaultNodeHeight,
		RankSep:     DefaultRankSep,
		NodeSep:     DefaultNodeSep,
		Sweeps:      DefaultSweeps,
	}
}

func (o Options) withDefaults() Options {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.RankSep <= 0 {
		o.RankSep = DefaultRankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = DefaultNodeSep
	}
	if o.Sweeps <= 0 {
		o.Sweeps = DefaultSweeps
	}
	return o
}

// Layout positions nodes with the default box size for orientation o and returns the
// positioned copies. The inputs are not modified.
func Layout(nodes []scope.Node, edges []scope.Edge, o api.Orientation) []scope.Node {
	opts := DefaultOptions()
	opts.Orientation = o
	g := Compute(&scope.Graph{Orientation: o, Nodes: nodes, Edges: edges}, opts)
	return g.Nodes
}

type link struct{ from, to int }

// Compute returns a laid-out copy of g. Edges with a missing endpoint are dropped from
// the copy, self loops are kept without points.
func Compute(g *scope.Graph, opts Options) *scope.Graph {
	if g == nil {
		return nil
	}
	opts = opts.withDefaults()
	out := g.Clone()
	out.Orientation = opts.Orientation

	n := len(out.Nodes)
	index := make(map[string]int, n)
	for i, node := range out.Nodes {
		if _, ok := index[node.ID]; !ok {
			index[node.ID] = i
		}
	}

	edges := make([]scope.Edge, 0, len(out.Edges))
	links := make([]link, 0, len(out.Edges))
	seen := map[link]struct{}{}
	for _, e := range out.Edges {
		s, sok := index[e.Source]
		t, tok := index[e.Target]
		if !sok || !tok {
			continue
		}
		edges = append(edges, e)
		if s == t {
			continue
		}
		l := link{s, t}
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			links = append(links, l)
		}
	}
	out.Edges = edges

	reversed := breakCycles(n, links)
	dag := make([]link, 0, len(links))
	seen = map[link]struct{}{}
	for _, l := range links {
		if _, ok := reversed[l]; ok {
			l = link{l.to, l.from}
		}
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			dag = append(dag, l)
		}
	}

	rank := assignRanks(n, dag)

	// split edges spanning several layers with dummy vertices
	up := make([][]int, n)
	down := make([][]int, n)
	chains := make(map[link][]int, len(dag))
	for _, l := range dag {
		chain := []int{l.from}
		for r := rank[l.from] + 1; r < rank[l.to]; r++ {
			rank = append(rank, r)
			up = append(up, nil)
			down = append(down, nil)
			chain = append(chain, len(rank)-1)
		}
		chain = append(chain, l.to)
		for i := 0; i+1 < len(chain); i++ {
			down[chain[i]] = append(down[chain[i]], chain[i+1])
			up[chain[i+1]] = append(up[chain[i+1]], chain[i])
		}
		chains[l] = chain
	}

	maxRank := 0
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	layers := make([][]int, maxRank+1)
	for v, r := range rank {
		layers[r] = append(layers[r], v)
	}
	pos := make([]int, len(rank))
	updatePositions(layers, pos)

	layers = minimizeCrossings(layers, pos, up, down, opts.Sweeps)
	updatePositions(layers, pos)

	centres := assignCoordinates(layers, opts)

	for i := range out.Nodes {
		c := centres[i]
		out.Nodes[i].Width = opts.NodeWidth
		out.Nodes[i].Height = opts.NodeHeight
		out.Nodes[i].Position = scope.Point{
			X: c.X - opts.NodeWidth/2,
			Y: c.Y - opts.NodeHeight/2,
		}
	}

	for i, e := range out.Edges {
		s, t := index[e.Source], index[e.Target]
		if s == t {
			out.Edges[i].Points = nil
			continue
		}
		l := link{s, t}
		flip := false
		if _, ok := reversed[l]; ok {
			l = link{t, s}
			flip = true
		}
		chain := chains[l]
		points := make([]scope.Point, 0, len(chain))
		for _, v := range chain {
			points = append(points, centres[v])
		}
		if flip {
			slices.Reverse(points)
		}
		out.Edges[i].Points = points
	}

	return out
}

// breakCycles returns the links that close a cycle in a depth first walk started from
// every vertex in input order. Reversing them makes the graph acyclic.
func breakCycles(n int, links []link) map[link]struct{} {
	adj := make([][]int, n)
	for _, l := range links {
		adj[l.from] = append(adj[l.from], l.to)
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, n)
	reversed := map[link]struct{}{}

	var visit func(u int)
	visit = func(u int) {
		state[u] = onStack
		for _, v := range adj[u] {
			switch state[v] {
			case unvisited:
				visit(v)
			case onStack:
				reversed[link{u, v}] = struct{}{}
			}
		}
		state[u] = done
	}
	for v := 0; v < n; v++ {
		if state[v] == unvisited {
			visit(v)
		}
	}
	return reversed
}

// assignRanks gives every vertex the length of the longest path reaching it. Vertices
// without incoming links, isolated ones included, land on layer 0.
func assignRanks(n int, dag []link) []int {
	indeg := make([]int, n)
	adj := make([][]int, n)
	for _, l := range dag {
		adj[l.from] = append(adj[l.from], l.to)
		indeg[l.to]++
	}

	rank := make([]int, n)
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if rank[u]+1 > rank[v] {
				rank[v] = rank[u] + 1
			}
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return rank
}

func updatePositions(layers [][]int, pos []int) {
	for _, layer := range layers {
		for i, v := range layer {
			pos[v] = i
		}
	}
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, layer := range layers {
		out[i] = append([]int{}, layer...)
	}
	return out
}

// minimizeCrossings runs barycenter sweeps and keeps the ordering with the fewest
// crossings seen.
func minimizeCrossings(layers [][]int, pos []int, up, down [][]int, sweeps int) [][]int {
	best := cloneLayers(layers)
	bestCrossings := countCrossings(layers, pos, down)

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		for r := 1; r < len(layers); r++ {
			reorder(layers[r], up, pos)
		}
		for r := len(layers) - 2; r >= 0; r-- {
			reorder(layers[r], down, pos)
		}
		if c := countCrossings(layers, pos, down); c < bestCrossings {
			best = cloneLayers(layers)
			bestCrossings = c
		}
	}
	return best
}

// reorder sorts layer by the mean position of each vertex's neighbours in the adjacent
// layer. Vertices without neighbours keep their current position as key.
func reorder(layer []int, neighbours [][]int, pos []int) {
	keys := make(map[int]float64, len(layer))
	for _, v := range layer {
		nbrs := neighbours[v]
		if len(nbrs) == 0 {
			keys[v] = float64(pos[v])
			continue
		}
		sum := 0
		for _, u := range nbrs {
			sum += pos[u]
		}
		keys[v] = float64(sum) / float64(len(nbrs))
	}
	slices.SortStableFunc(layer, func(a, b int) int {
		switch {
		case keys[a] < keys[b]:
			return -1
		case keys[a] > keys[b]:
			return 1
		default:
			return 0
		}
	})
	for i, v := range layer {
		pos[v] = i
	}
}

// assignCoordinates returns the centre of every vertex. Layers advance along the main
// axis (y for top-bottom, x for left-right) and each layer is centred on the cross axis.
func assignCoordinates(layers [][]int, opts Options) []scope.Point {
	total := 0
	widest := 0
	for _, layer := range layers {
		total += len(layer)
		if len(layer) > widest {
			widest = len(layer)
		}
	}

	crossSize, mainSize := opts.NodeWidth, opts.NodeHeight
	if opts.Orientation == api.LeftRight {
		crossSize, mainSize = opts.NodeHeight, opts.NodeWidth
	}
	crossStep := crossSize + opts.NodeSep
	mainStep := mainSize + opts.RankSep

	centres := make([]scope.Point, total)
	for r, layer := range layers {
		offset := float64(widest-len(layer)) * crossStep / 2
		main := float64(r)*mainStep + mainSize/2
		for i, v := range layer {
			cross := offset + float64(i)*crossStep + crossSize/2
			if opts.Orientation == api.LeftRight {
				centres[v] = scope.Point{X: main, Y: cross}
			} else {
				centres[v] = scope.Point{X: cross, Y: main}
			}
		}
	}
	return centres
}
