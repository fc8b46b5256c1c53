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
	"github.com/vine-io/flowview/bpmn"
)

type item struct {
	name  string
	value string
	typ   string
}

// Element is a flow node under construction.
type Element struct {
	id         string
	name       string
	tag        string
	kind       bpmn.Kind
	incoming   []string
	outgoing   []string
	properties []item

	// sub is set for sub-process elements.
	sub *ProcessBuilder
}

// NewElement creates a flow node for a BPMN model tag such as userTask or exclusiveGateway.
// Unknown tags are built as plain tasks.
func NewElement(tag, name string) *Element {
	kind, ok := bpmn.KindOf(tag)
	if !ok || kind == bpmn.FlowKind {
		tag, kind = "task", bpmn.TaskKind
	}
	return &Element{
		id:   randShapeName(kind),
		name: name,
		tag:  tag,
		kind: kind,
	}
}

func NewStartEvent() *Element { return NewElement("startEvent", "") }

func NewEndEvent() *Element { return NewElement("endEvent", "") }

func NewTask(name string) *Element { return NewElement("task", name) }

func NewUserTask(name string) *Element { return NewElement("userTask", name) }

func NewExclusiveGateway(name string) *Element { return NewElement("exclusiveGateway", name) }

func NewParallelGateway(name string) *Element { return NewElement("parallelGateway", name) }

func (e *Element) ID() string { return e.id }

func (e *Element) Name() string { return e.name }

func (e *Element) Tag() string { return e.tag }

func (e *Element) Kind() bpmn.Kind { return e.kind }

func (e *Element) SetId(id string) *Element {
	e.id = id
	return e
}

func (e *Element) setIncoming(flow string) {
	e.incoming = append(e.incoming, flow)
}

func (e *Element) setOutgoing(flow string) {
	e.outgoing = append(e.outgoing, flow)
}

func removeRef(refs []string, id string) []string {
	out := refs[:0]
	for _, ref := range refs {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

// TaskBuilder builds a task element carrying task metadata properties.
type TaskBuilder struct {
	elem *Element
	cfg  *bpmn.TaskConfig
}

func NewTaskBuilder(tag, name string) *TaskBuilder {
	elem := NewElement(tag, name)
	if elem.kind != bpmn.TaskKind {
		elem = NewTask(name)
	}
	return &TaskBuilder{elem: elem}
}

func (b *TaskBuilder) SetId(id string) *TaskBuilder {
	b.elem.id = id
	return b
}

// SetConfig attaches the task metadata. The configuration is written out as the metadata
// property list by Out.
func (b *TaskBuilder) SetConfig(cfg *bpmn.TaskConfig) *TaskBuilder {
	b.cfg = cfg
	return b
}

func (b *TaskBuilder) SetProperty(name string, value any) *TaskBuilder {
	vv, vt := parseItemValue(value)
	b.elem.properties = append(b.elem.properties, item{name: name, value: vv, typ: vt})
	return b
}

func (b *TaskBuilder) Out() (*Element, error) {
	if b.cfg == nil {
		return b.elem, nil
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	properties, err := b.cfg.Properties()
	if err != nil {
		return nil, err
	}
	items := make([]item, 0, len(properties)+len(b.elem.properties))
	for _, p := range properties {
		items = append(items, item{name: p.Name, value: p.Value, typ: ItemTypeString})
	}
	b.elem.properties = append(items, b.elem.properties...)
	b.cfg = nil
	return b.elem, nil
}
