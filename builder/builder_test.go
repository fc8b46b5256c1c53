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
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

func sampleDefinitions(t *testing.T) *DefinitionsBuilder {
	review, err := NewTaskBuilder("userTask", "Review").
		SetId("Review").
		SetConfig(&bpmn.TaskConfig{
			Type:          bpmn.Planning,
			Duration:      decimal.RequireFromString("1.5"),
			AssignedRoles: []string{"clerk"},
		}).
		Out()
	require.NoError(t, err)

	pick := NewSubProcessBuilder("Pick").SetId("Pick").
		Start().
		Append(NewTask("Locate").SetId("Locate")).
		End()
	ship := NewSubProcessBuilder("Ship").SetId("Ship").
		Start().
		Append(pick.Elem()).
		Append(NewTask("Label").SetId("Label")).
		End()

	d, p := NewProcessDefinitionsBuilder("Orders")
	p.SetId("Orders").
		Start().
		Append(review).
		Append(ship.Elem()).
		End()
	return d.Id("Definitions_1")
}

func links(p *ProcessBuilder) map[string]string {
	out := map[string]string{}
	p.Flows.Scan(func(key string, flow *Flow) bool {
		out[flow.SourceRef] = flow.TargetRef
		return true
	})
	return out
}

func TestDefinitionsRoundTrip(t *testing.T) {
	text, err := sampleDefinitions(t).ToXML()
	require.NoError(t, err)

	m, err := bpmn.FromXML(text)
	require.NoError(t, err)
	assert.Equal(t, "Definitions_1", m.Id)
	assert.Equal(t, []string{"Orders"}, m.Processes)

	want := []bpmn.ScopeInfo{
		{ID: "", Name: "Orders", Depth: 0, Path: []string{}},
		{ID: "Ship", Name: "Ship", Depth: 1, Path: []string{"Ship"}},
		{ID: "Pick", Name: "Pick", Depth: 2, Path: []string{"Ship", "Pick"}},
	}
	if diff := cmp.Diff(want, m.Scopes()); diff != "" {
		t.Fatal(diff)
	}

	loc, ok := m.Lookup("Locate")
	if assert.True(t, ok) {
		assert.Equal(t, []string{"Ship", "Pick"}, loc.Path)
	}

	task, ok := m.Task("Review")
	require.True(t, ok)
	assert.Equal(t, "userTask", task.Type)
	require.NotNil(t, task.Config)
	assert.Equal(t, bpmn.Planning, task.Config.Type)
	assert.True(t, task.Config.Duration.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, []string{"clerk"}, task.Config.AssignedRoles)

	// start, review, ship, end
	assert.Len(t, m.Events, 2)
	assert.Len(t, m.Tasks, 1)
	assert.Len(t, m.SubProcesses, 1)
	assert.Len(t, m.Flows, 3)
}

func TestDefinitionsDiagram(t *testing.T) {
	doc, err := sampleDefinitions(t).ToDocument()
	require.NoError(t, err)

	diagrams := doc.Root().SelectElements("bpmndi:BPMNDiagram")
	require.Len(t, diagrams, 3)

	planes := make([]string, 0)
	for _, d := range diagrams {
		plane := d.SelectElement("bpmndi:BPMNPlane")
		require.NotNil(t, plane)
		planes = append(planes, plane.SelectAttrValue("bpmnElement", ""))
	}
	assert.Equal(t, []string{"Orders", "Ship", "Pick"}, planes)

	ship := diagrams[0].FindElement(".//bpmndi:BPMNShape[@bpmnElement='Ship']")
	require.NotNil(t, ship)
	assert.Equal(t, "false", ship.SelectAttrValue("isExpanded", ""))
}

func TestDrawChain(t *testing.T) {
	p := NewProcessBuilder("Chain").SetId("Chain")
	p.AppendElem(NewStartEvent().SetId("S")).
		AppendElem(NewTask("A").SetId("A")).
		AppendElem(NewEndEvent().SetId("E")).
		Link("S", "A", "").
		Link("A", "E", "")

	doc, err := NewDefinitionsBuilder("Chain").AddProcess(p).ToDocument()
	require.NoError(t, err)

	bounds := func(id string) []string {
		shape := doc.FindElement("//bpmndi:BPMNShape[@bpmnElement='" + id + "']")
		require.NotNil(t, shape, id)
		b := shape.SelectElement("dc:Bounds")
		return []string{
			b.SelectAttrValue("x", ""),
			b.SelectAttrValue("y", ""),
			b.SelectAttrValue("width", ""),
			b.SelectAttrValue("height", ""),
		}
	}
	assert.Equal(t, []string{"132", "122", "36", "36"}, bounds("S"))
	assert.Equal(t, []string{"250", "100", "100", "80"}, bounds("A"))
	assert.Equal(t, []string{"432", "122", "36", "36"}, bounds("E"))

	var edge *etree.Element
	p.Flows.Scan(func(key string, flow *Flow) bool {
		if flow.SourceRef == "S" {
			edge = doc.FindElement("//bpmndi:BPMNEdge[@bpmnElement='" + flow.Id + "']")
		}
		return true
	})
	require.NotNil(t, edge)
	points := edge.SelectElements("di:waypoint")
	require.Len(t, points, 2)
	assert.Equal(t, "168", points[0].SelectAttrValue("x", ""))
	assert.Equal(t, "140", points[0].SelectAttrValue("y", ""))
	assert.Equal(t, "250", points[1].SelectAttrValue("x", ""))
}

func TestInsertElem(t *testing.T) {
	p := NewProcessBuilder("p")
	p.AppendElem(NewStartEvent().SetId("S")).Seek("S").
		Append(NewTask("A").SetId("A")).
		Append(NewEndEvent().SetId("E"))
	assert.Equal(t, map[string]string{"S": "A", "A": "E"}, links(p))

	p.AfterInsertElem("A", NewTask("B").SetId("B"), "")
	assert.Equal(t, map[string]string{"S": "A", "A": "B", "B": "E"}, links(p))

	p.BeforeInsertElem("E", NewTask("C").SetId("C"), "")
	assert.Equal(t, map[string]string{"S": "A", "A": "B", "B": "C", "C": "E"}, links(p))

	a, _ := p.Elements.Get("A")
	assert.Len(t, a.outgoing, 1)
	e, _ := p.Elements.Get("E")
	assert.Len(t, e.incoming, 1)

	// unknown anchors leave the process alone
	p.BeforeInsertElem("missing", NewTask("D").SetId("D"), "")
	_, ok := p.Elements.Get("D")
	assert.False(t, ok)
}

func TestGatewayBranches(t *testing.T) {
	d, p := NewProcessDefinitionsBuilder("Branches")
	gw := NewExclusiveGateway("Approved?").SetId("GW")
	p.Start().Append(gw).
		Append(NewTask("Ship").SetId("Ship")).
		Seek("GW").
		Append(NewTask("Reject").SetId("Reject"))
	p.Link("GW", "missing", "")
	p.Rename("Ship", "Ship order")

	text, err := d.ToXML()
	require.NoError(t, err)

	m, err := bpmn.FromXML(text)
	require.NoError(t, err)
	require.Len(t, m.Gateways, 1)
	assert.Equal(t, "exclusiveGateway", m.Gateways[0].Type)
	// start -> gateway and both branches
	assert.Len(t, m.Flows, 3)

	task, ok := m.Task("Ship")
	require.True(t, ok)
	assert.Equal(t, "Ship order", task.Name)
	assert.Len(t, gw.outgoing, 2)
}

func TestConditionExpression(t *testing.T) {
	d, p := NewProcessDefinitionsBuilder("Cond")
	p.AppendElem(NewParallelGateway("").SetId("GW")).
		AppendElem(NewTask("A").SetId("A")).
		Link("GW", "A", "amount > 10")

	doc, err := d.ToDocument()
	require.NoError(t, err)
	expr := doc.FindElement("//bpmn:sequenceFlow/bpmn:conditionExpression")
	require.NotNil(t, expr)
	assert.Equal(t, "amount > 10", expr.Text())
	assert.Equal(t, "bpmn:tFormalExpression", expr.SelectAttrValue("xsi:type", ""))
}

func TestTaskBuilder(t *testing.T) {
	elem, err := NewTaskBuilder("serviceTask", "Notify").
		SetProperty("retries", 3).
		SetProperty("ratio", 0.5).
		SetProperty("enabled", true).
		SetProperty("tags", []string{"a"}).
		Out()
	require.NoError(t, err)
	assert.Equal(t, "serviceTask", elem.Tag())
	assert.Equal(t, bpmn.TaskKind, elem.Kind())
	assert.Equal(t, []item{
		{name: "retries", value: "3", typ: ItemTypeInteger},
		{name: "ratio", value: "0.5", typ: ItemTypeFloat},
		{name: "enabled", value: "true", typ: ItemTypeBoolean},
		{name: "tags", value: `["a"]`, typ: ItemTypeObject},
	}, elem.properties)

	// not a task tag
	elem, err = NewTaskBuilder("startEvent", "x").Out()
	require.NoError(t, err)
	assert.Equal(t, "task", elem.Tag())

	_, err = NewTaskBuilder("task", "bad").
		SetConfig(&bpmn.TaskConfig{Duration: decimal.NewFromInt(-1)}).
		Out()
	assert.ErrorIs(t, err, api.BadRequest(""))
}

func TestNewElement(t *testing.T) {
	assert.Equal(t, bpmn.GatewayKind, NewElement("inclusiveGateway", "").Kind())
	assert.Equal(t, bpmn.EventKind, NewElement("boundaryEvent", "").Kind())

	elem := NewElement("sequenceFlow", "x")
	assert.Equal(t, "task", elem.Tag())
	assert.Regexp(t, `^Activity_[a-z0-9]{7}$`, elem.ID())
	assert.Regexp(t, `^Gateway_`, NewParallelGateway("").ID())
}

func TestEmptyDefinitions(t *testing.T) {
	_, err := NewDefinitionsBuilder("empty").ToXML()
	assert.Error(t, err)

	p := NewProcessBuilder("p")
	_, err = NewDefinitionsBuilder("dup").AddProcess(p).AddProcess(p).ToXML()
	assert.Error(t, err)
}
