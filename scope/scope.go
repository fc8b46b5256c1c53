package scope

import (
	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style carries rendering hints. The rendering surface decides how to draw them.
type Style struct {
	// Active marks the root node of the sub-process currently drilled into.
	Active bool `json:"active,omitempty"`
	// HasNested is set on sub-process nodes that contain further sub-processes.
	HasNested bool `json:"hasNested,omitempty"`
	// Drillable is set on every sub-process node.
	Drillable bool   `json:"drillable,omitempty"`
	TaskType  string `json:"taskType,omitempty"`
	// Marker is "start" or "end" for those events and the element tag for gateways.
	Marker string `json:"marker,omitempty"`
	// Lane is the name of the innermost lane listing the node.
	Lane string `json:"lane,omitempty"`
}

type Node struct {
	ID    string    `json:"id"`
	Kind  bpmn.Kind `json:"kind"`
	Label string    `json:"label"`
	// Position is the top-left corner of the node box, zero until laid out.
	Position Point   `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Style    Style   `json:"style"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	// Points is the polyline from source centre to target centre through the
	// intermediate layers, empty until laid out.
	Points []Point `json:"points,omitempty"`
}

// Graph is the projection of one scope.
type Graph struct {
	// ScopeID is empty for the root.
	ScopeID     string          `json:"scopeId"`
	Name        string          `json:"name"`
	Orientation api.Orientation `json:"orientation"`
	Nodes       []Node          `json:"nodes"`
	Edges       []Edge          `json:"edges"`
}

// Node finds a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := *g
	out.Nodes = append(make([]Node, 0, len(g.Nodes)), g.Nodes...)
	out.Edges = make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Points != nil {
			e.Points = append([]Point{}, e.Points...)
		}
		out.Edges = append(out.Edges, e)
	}
	return &out
}

// Project builds the graph of the elements directly owned by c. At the root, elements
// contained in any sub-process are left out, and so is every flow with an endpoint that
// is not visible in the scope.
func Project(c bpmn.Container, o api.Orientation) *Graph {
	members := c.Members()
	g := &Graph{
		ScopeID:     c.ScopeID(),
		Name:        c.ScopeName(),
		Orientation: o,
		Nodes:       make([]Node, 0),
		Edges:       make([]Edge, 0),
	}

	lanes := laneNames(members.Lanes)
	visible := map[string]struct{}{}
	add := func(e bpmn.Element, style Style) {
		if c.IsRoot() && bpmn.IsContained(e.GetID(), members.SubProcesses) {
			return
		}
		if _, ok := visible[e.GetID()]; ok {
			return
		}
		visible[e.GetID()] = struct{}{}
		style.Marker = marker(e)
		style.Lane = lanes[e.GetID()]
		g.Nodes = append(g.Nodes, Node{
			ID:    e.GetID(),
			Kind:  e.GetKind(),
			Label: e.Label(),
			Style: style,
		})
	}

	for _, t := range members.Tasks {
		add(t, Style{TaskType: taskType(t)})
	}
	for _, e := range members.Events {
		add(e, Style{})
	}
	for _, gw := range members.Gateways {
		add(gw, Style{})
	}
	for _, sp := range members.SubProcesses {
		add(sp, Style{HasNested: sp.HasNested(), Drillable: true})
	}

	for _, f := range members.Flows {
		if c.IsRoot() && (bpmn.IsContained(f.SourceRef, members.SubProcesses) ||
			bpmn.IsContained(f.TargetRef, members.SubProcesses)) {
			continue
		}
		_, sok := visible[f.SourceRef]
		_, tok := visible[f.TargetRef]
		if !sok || !tok {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			ID:     f.Id,
			Source: f.SourceRef,
			Target: f.TargetRef,
			Label:  f.Label(),
		})
	}

	return g
}

func taskType(t *bpmn.Task) string {
	if t.Config == nil {
		return ""
	}
	return string(t.Config.Type)
}

func marker(e bpmn.Element) string {
	switch {
	case bpmn.IsStartEvent(e):
		return "start"
	case bpmn.IsEndEvent(e):
		return "end"
	case bpmn.IsGateway(e):
		return e.(*bpmn.Gateway).Type
	}
	return ""
}

// laneNames maps flow node ids to the lane listing them. Child lanes follow their parent,
// so the innermost lane wins.
func laneNames(lanes []*bpmn.Lane) map[string]string {
	out := make(map[string]string)
	for _, lane := range lanes {
		for _, ref := range lane.FlowNodeRefs {
			out[ref] = lane.Name
		}
	}
	return out
}
