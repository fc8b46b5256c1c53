// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package navigator

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/scope"
)

func loadModel(t *testing.T) *bpmn.ProcessModel {
	t.Helper()
	data, err := os.ReadFile("../testdata/nested.bpmn")
	require.NoError(t, err)
	m, err := bpmn.FromXML(string(data))
	require.NoError(t, err)
	return m
}

func TestDrillInto(t *testing.T) {
	m := loadModel(t)

	s := DrillInto(m, Root(), "SP1")
	assert.Equal(t, []Entry{{ID: "SP1", Name: "Fulfil"}}, s.Entries())

	s = DrillInto(m, s, "SP1_1")
	assert.Equal(t, []string{"SP1", "SP1_1"}, s.Path())
	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, "Ship", top.Name)
}

func TestDrillIntoInvalid(t *testing.T) {
	m := loadModel(t)

	// nested sub-process is not owned by the root
	assert.True(t, DrillInto(m, Root(), "SP1_1").IsRoot())
	// tasks are not scopes
	assert.True(t, DrillInto(m, Root(), "T1").IsRoot())
	assert.True(t, DrillInto(m, Root(), "missing").IsRoot())

	s := DrillInto(m, Root(), "SP1")
	assert.Equal(t, s.Entries(), DrillInto(m, s, "SP1").Entries())
}

func TestStateIsImmutable(t *testing.T) {
	m := loadModel(t)

	root := Root()
	s1 := DrillInto(m, root, "SP1")
	s2 := DrillInto(m, s1, "SP1_1")

	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, 1, s1.Depth())
	assert.Equal(t, 2, s2.Depth())

	entries := s2.Entries()
	entries[0].ID = "changed"
	assert.Equal(t, "SP1", s2.Path()[0])
}

func TestNavigateTo(t *testing.T) {
	m := loadModel(t)
	s := NewState(Entry{ID: "SP1"}, Entry{ID: "SP1_1"})

	assert.True(t, NavigateTo(m, s, 0).IsRoot())
	assert.Equal(t, []string{"SP1"}, NavigateTo(m, s, 1).Path())
	assert.Equal(t, []string{"SP1", "SP1_1"}, NavigateTo(m, s, 2).Path())
	assert.Equal(t, []string{"SP1", "SP1_1"}, NavigateTo(m, s, 7).Path())
	assert.True(t, NavigateTo(m, s, -1).IsRoot())

	// names are refreshed from the model
	assert.Equal(t, "Fulfil", NavigateTo(m, s, 1).Entries()[0].Name)
}

func TestNavigateToStaleBreadcrumb(t *testing.T) {
	m := loadModel(t)
	s := DrillInto(m, DrillInto(m, Root(), "SP1"), "SP1_1")
	require.Equal(t, 2, s.Depth())

	sp1, ok := m.SubProcess("SP1")
	require.True(t, ok)
	sp1.SubProcesses = nil
	require.NoError(t, m.Reindex())

	next := NavigateTo(m, s, 2)
	assert.Equal(t, []string{"SP1"}, next.Path())

	_, c, dropped := Resolve(m, s)
	assert.True(t, dropped)
	assert.Equal(t, "SP1", c.ScopeID())
}

func TestControllerDrillAndActive(t *testing.T) {
	m := loadModel(t)
	c := NewController(m)

	v := c.View()
	assert.Nil(t, v.Nested)
	assert.Empty(t, v.Breadcrumb)

	assert.True(t, c.DrillInto("SP1"))
	v = c.View()
	require.NotNil(t, v.Nested)
	assert.Equal(t, "SP1", v.Nested.ScopeID)
	node, ok := v.Root.Node("SP1")
	require.True(t, ok)
	assert.True(t, node.Style.Active)
	node, _ = v.Root.Node("T1")
	assert.False(t, node.Style.Active)

	assert.False(t, c.DrillInto("T2"))
	assert.True(t, c.DrillInto("SP1_1"))
	assert.Equal(t, "SP1_1", c.Current().ScopeID())

	// the root keeps marking the top level sub-process
	node, _ = c.View().Root.Node("SP1")
	assert.True(t, node.Style.Active)

	assert.Equal(t, 0, c.NavigateTo(0))
	assert.True(t, c.Current().IsRoot())
	node, _ = c.View().Root.Node("SP1")
	assert.False(t, node.Style.Active)
}

func TestControllerToggleOrientation(t *testing.T) {
	m := loadModel(t)
	c := NewController(m)
	require.True(t, c.DrillInto("SP1"))

	before := c.View()
	assert.Equal(t, api.LeftRight, c.ToggleOrientation())
	during := c.View()
	assert.Equal(t, api.LeftRight, during.Nested.Orientation)
	assert.Equal(t, before.Breadcrumb, during.Breadcrumb)

	assert.Equal(t, api.TopBottom, c.ToggleOrientation())
	after := c.View()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatal(diff)
	}
}

func TestControllerStaleFallback(t *testing.T) {
	m := loadModel(t)
	c := NewController(m)
	require.True(t, c.DrillInto("SP1"))
	require.True(t, c.DrillInto("SP1_1"))

	sp1, _ := m.SubProcess("SP1")
	sp1.SubProcesses = nil
	require.NoError(t, m.Reindex())

	assert.Equal(t, 1, c.NavigateTo(2))
	assert.Equal(t, "SP1", c.Current().ScopeID())
}

func TestControllerReloadAndLayouter(t *testing.T) {
	m := loadModel(t)
	calls := 0
	c := NewController(m,
		WithOrientation(api.LeftRight),
		WithLayouter(func(c bpmn.Container, o api.Orientation) *scope.Graph {
			calls++
			return scope.Project(c, o)
		}),
	)
	assert.Equal(t, 1, calls)
	assert.Equal(t, api.LeftRight, c.Orientation())

	require.True(t, c.DrillInto("SP1"))
	assert.Equal(t, 3, calls)

	other, err := bpmn.FromXML(`<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <process id="P"><task id="X"/></process>
</definitions>`)
	require.NoError(t, err)
	c.Reload(other)

	v := c.View()
	assert.True(t, c.State().IsRoot())
	assert.Equal(t, api.LeftRight, v.Orientation)
	require.Len(t, v.Root.Nodes, 1)
	assert.Equal(t, "X", v.Root.Nodes[0].ID)
}
