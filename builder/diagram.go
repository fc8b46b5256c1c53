// Copyright 2023 Lack (xingyys@gmail.com).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builder

import (
	"github.com/beevik/etree"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/layout"
	"github.com/vine-io/flowview/scope"
)

// origin of every diagram plane
const (
	startCoordX = 100
	startCoordY = 100
)

type bounds struct {
	x, y, width, height float64
}

// draw emits one BPMNDiagram for p and one more for every sub-process below it, so each
// sub-process content is shown on a plane of its own.
func draw(root *etree.Element, p *ProcessBuilder, o api.Orientation) {
	diagram := root.CreateElement("bpmndi:BPMNDiagram")
	diagram.CreateAttr("id", "BPMNDiagram_"+p.id)
	plane := diagram.CreateElement("bpmndi:BPMNPlane")
	plane.CreateAttr("id", "BPMNPlane_"+p.id)
	plane.CreateAttr("bpmnElement", p.id)

	shapes := p.drawShapes(plane, o)
	p.Flows.Scan(func(key string, flow *Flow) bool {
		source, ok1 := shapes[flow.SourceRef]
		target, ok2 := shapes[flow.TargetRef]
		if !ok1 || !ok2 {
			return true
		}
		edge := plane.CreateElement("bpmndi:BPMNEdge")
		edge.CreateAttr("id", flow.Id+"_di")
		edge.CreateAttr("bpmnElement", flow.Id)
		for _, pt := range waypoints(source, target, o) {
			wp := edge.CreateElement("di:waypoint")
			wp.CreateAttr("x", formatFloat(pt.X))
			wp.CreateAttr("y", formatFloat(pt.Y))
		}
		return true
	})

	for _, sub := range p.subProcesses() {
		draw(root, sub, o)
	}
}

// drawShapes lays out the direct elements of p and writes their shapes.
func (p *ProcessBuilder) drawShapes(plane *etree.Element, o api.Orientation) map[string]bounds {
	g := &scope.Graph{ScopeID: p.id, Name: p.name, Orientation: o}
	p.Elements.Scan(func(key string, elem *Element) bool {
		g.Nodes = append(g.Nodes, scope.Node{ID: elem.id, Kind: elem.kind, Label: elem.name})
		return true
	})
	p.Flows.Scan(func(key string, flow *Flow) bool {
		g.Edges = append(g.Edges, scope.Edge{ID: flow.Id, Source: flow.SourceRef, Target: flow.TargetRef})
		return true
	})

	// every layout cell fits the largest shape
	cellWidth, cellHeight := getFlowSize(bpmn.TaskKind)
	g = layout.Compute(g, layout.Options{
		Orientation: o,
		NodeWidth:   cellWidth,
		NodeHeight:  cellHeight,
	})

	shapes := make(map[string]bounds, len(g.Nodes))
	for _, n := range g.Nodes {
		width, height := getFlowSize(n.Kind)
		// centre the shape inside its layout cell
		x := startCoordX + n.Position.X + cellWidth/2 - width/2
		y := startCoordY + n.Position.Y + cellHeight/2 - height/2
		b := bounds{x: x, y: y, width: width, height: height}
		shapes[n.ID] = b

		shape := plane.CreateElement("bpmndi:BPMNShape")
		shape.CreateAttr("id", n.ID+"_di")
		shape.CreateAttr("bpmnElement", n.ID)
		if elem, ok := p.Elements.Get(n.ID); ok && elem.sub != nil {
			shape.CreateAttr("isExpanded", "false")
		}
		dc := shape.CreateElement("dc:Bounds")
		dc.CreateAttr("x", formatFloat(b.x))
		dc.CreateAttr("y", formatFloat(b.y))
		dc.CreateAttr("width", formatFloat(b.width))
		dc.CreateAttr("height", formatFloat(b.height))
	}
	return shapes
}

// waypoints routes a flow from the exit side of source to the entry side of target, with
// an elbow when the two sides are not aligned.
func waypoints(source, target bounds, o api.Orientation) []scope.Point {
	var wps, wpt scope.Point
	if o == api.LeftRight {
		wps = scope.Point{X: source.x + source.width, Y: source.y + source.height/2}
		wpt = scope.Point{X: target.x, Y: target.y + target.height/2}
	} else {
		wps = scope.Point{X: source.x + source.width/2, Y: source.y + source.height}
		wpt = scope.Point{X: target.x + target.width/2, Y: target.y}
	}

	points := []scope.Point{wps}
	switch {
	case o == api.LeftRight && wps.Y != wpt.Y:
		x := wps.X + (wpt.X-wps.X)/2
		points = append(points, scope.Point{X: x, Y: wps.Y}, scope.Point{X: x, Y: wpt.Y})
	case o != api.LeftRight && wps.X != wpt.X:
		y := wps.Y + (wpt.Y-wps.Y)/2
		points = append(points, scope.Point{X: wps.X, Y: y}, scope.Point{X: wpt.X, Y: y})
	}
	return append(points, wpt)
}
