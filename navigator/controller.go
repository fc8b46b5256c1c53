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
	"sync"

	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
	"github.com/vine-io/flowview/layout"
	"github.com/vine-io/flowview/scope"
)

// Layouter projects and lays out one scope.
type Layouter func(c bpmn.Container, o api.Orientation) *scope.Graph

// DefaultLayouter projects c and runs the layered layout with default options.
func DefaultLayouter(c bpmn.Container, o api.Orientation) *scope.Graph {
	opts := layout.DefaultOptions()
	opts.Orientation = o
	return layout.Compute(scope.Project(c, o), opts)
}

type Option func(*Controller)

func WithLayouter(fn Layouter) Option {
	return func(c *Controller) {
		c.layouter = fn
	}
}

func WithOrientation(o api.Orientation) Option {
	return func(c *Controller) {
		c.orientation = o
	}
}

// View is everything a rendering surface needs to draw the navigator.
type View struct {
	Root *scope.Graph `json:"root"`
	// Nested is the scope at the top of the breadcrumb, nil at the root.
	Nested      *scope.Graph    `json:"nested,omitempty"`
	Breadcrumb  []Entry         `json:"breadcrumb"`
	Orientation api.Orientation `json:"orientation"`
}

// Controller owns the navigation state of one model and keeps the projected graphs
// of the root and of the current scope in sync with it.
type Controller struct {
	sync.RWMutex

	model       *bpmn.ProcessModel
	state       State
	orientation api.Orientation
	layouter    Layouter

	root   *scope.Graph
	nested *scope.Graph
}

func NewController(model *bpmn.ProcessModel, opts ...Option) *Controller {
	c := &Controller{
		model:       model,
		state:       Root(),
		orientation: api.TopBottom,
		layouter:    DefaultLayouter,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresh()
	return c
}

// DrillInto pushes the sub-process id onto the breadcrumb. It reports false, leaving the
// state untouched, when id is not owned by the current scope.
func (c *Controller) DrillInto(id string) bool {
	c.Lock()
	defer c.Unlock()

	next := DrillInto(c.model, c.state, id)
	if next.Depth() == c.state.Depth() {
		log.Debugf("drill into %s ignored: not a sub-process of the current scope", id)
		return false
	}
	c.state = next
	c.refresh()
	return true
}

// NavigateTo truncates the breadcrumb to level and returns the level actually reached.
func (c *Controller) NavigateTo(level int) int {
	c.Lock()
	defer c.Unlock()

	want := level
	if want > c.state.Depth() {
		want = c.state.Depth()
	}
	if want < 0 {
		want = 0
	}
	c.state = NavigateTo(c.model, c.state, level)
	if c.state.Depth() < want {
		log.Warnf("breadcrumb level %d no longer resolves, stopped at level %d", want, c.state.Depth())
	}
	c.refresh()
	return c.state.Depth()
}

// ToggleOrientation flips the orientation of the root and the nested projection.
// The breadcrumb is kept.
func (c *Controller) ToggleOrientation() api.Orientation {
	c.Lock()
	defer c.Unlock()

	c.orientation = c.orientation.Toggle()
	c.refresh()
	return c.orientation
}

// Reload replaces the model and returns to the root scope.
func (c *Controller) Reload(model *bpmn.ProcessModel) {
	c.Lock()
	defer c.Unlock()

	c.model = model
	c.state = Root()
	c.refresh()
}

// Refresh re-resolves the breadcrumb and re-projects both panels, e.g. after the model
// was edited in place.
func (c *Controller) Refresh() {
	c.Lock()
	defer c.Unlock()
	c.refresh()
}

func (c *Controller) View() View {
	c.RLock()
	defer c.RUnlock()

	return View{
		Root:        c.root.Clone(),
		Nested:      c.nested.Clone(),
		Breadcrumb:  c.state.Entries(),
		Orientation: c.orientation,
	}
}

// Current returns the scope at the top of the breadcrumb.
func (c *Controller) Current() bpmn.Container {
	c.RLock()
	defer c.RUnlock()

	_, container, _ := Resolve(c.model, c.state)
	return container
}

func (c *Controller) State() State {
	c.RLock()
	defer c.RUnlock()
	return c.state
}

func (c *Controller) Orientation() api.Orientation {
	c.RLock()
	defer c.RUnlock()
	return c.orientation
}

func (c *Controller) refresh() {
	state, container, dropped := Resolve(c.model, c.state)
	if dropped {
		log.Warnf("dropped stale breadcrumb tail %v", c.state.Path()[state.Depth():])
	}
	c.state = state

	root := c.layouter(c.model, c.orientation).Clone()
	if top, ok := c.state.First(); ok {
		if node, ok := root.Node(top.ID); ok {
			node.Style.Active = true
		}
	}
	c.root = root

	c.nested = nil
	if !c.state.IsRoot() {
		c.nested = c.layouter(container, c.orientation).Clone()
	}
}
