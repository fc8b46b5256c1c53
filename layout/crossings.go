package layout

import "slices"

// countCrossings sums the crossings between every pair of adjacent layers. Edges in
// down[v] run from v to vertices one layer below.
func countCrossings(layers [][]int, pos []int, down [][]int) int {
	total := 0
	for r := 0; r+1 < len(layers); r++ {
		total += countLayerCrossings(layers[r], len(layers[r+1]), pos, down)
	}
	return total
}

// countLayerCrossings counts the crossings between upper and the layer below it with a
// Fenwick tree in O(E log V). Two edges (u1,v1) and (u2,v2) cross iff
// pos(u1) < pos(u2) and pos(v1) > pos(v2), i.e. the crossings are the inversions of the
// target positions once edges are sorted by source position.
func countLayerCrossings(upper []int, lowerWidth int, pos []int, down [][]int) int {
	if len(upper) == 0 || lowerWidth == 0 {
		return 0
	}

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper))
	for _, u := range upper {
		for _, v := range down[u] {
			edges = append(edges, edge{pos[u], pos[v]})
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, lowerWidth+1)
	crossings, seen := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += seen - lessOrEqual

		seen++
		for i := e.lower + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}
