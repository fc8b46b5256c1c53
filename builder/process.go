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
	"github.com/tidwall/btree"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

const (
	DINamespace  = "http://www.omg.org/spec/DD/20100524/DI"
	DCNamespace  = "http://www.omg.org/spec/DD/20100524/DC"
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

	DefaultTargetNamespace = "http://bpmn.io/schema/bpmn"
)

// Flow is a sequence flow between two elements of the same process.
type Flow struct {
	Id        string
	Name      string
	SourceRef string
	TargetRef string
	Condition string
}

// ProcessBuilder builds the content of a process or of a sub-process. A cursor tracks the
// element the next Append links from.
type ProcessBuilder struct {
	id   string
	name string

	Elements *btree.Map[string, *Element]
	Flows    *btree.Map[string, *Flow]
	start    string
	end      string
	cur      string

	// elem is the sub-process element standing for this builder in its parent.
	elem *Element
}

func NewProcessBuilder(name string) *ProcessBuilder {
	return newProcessBuilder("Process_"+randName(), name)
}

// NewSubProcessBuilder creates a builder whose content becomes a sub-process, see Elem.
func NewSubProcessBuilder(name string) *ProcessBuilder {
	return newProcessBuilder(randShapeName(bpmn.SubProcessKind), name)
}

func newProcessBuilder(id, name string) *ProcessBuilder {
	return &ProcessBuilder{
		id:       id,
		name:     name,
		Elements: btree.NewMap[string, *Element](32),
		Flows:    btree.NewMap[string, *Flow](32),
	}
}

func (p *ProcessBuilder) Id() string { return p.id }

func (p *ProcessBuilder) SetId(id string) *ProcessBuilder {
	p.id = id
	if p.elem != nil {
		p.elem.id = id
	}
	return p
}

// Elem returns the sub-process element of the builder, to be appended to a parent process.
func (p *ProcessBuilder) Elem() *Element {
	if p.elem == nil {
		p.elem = &Element{
			id:   p.id,
			name: p.name,
			tag:  "subProcess",
			kind: bpmn.SubProcessKind,
			sub:  p,
		}
	}
	return p.elem
}

func (p *ProcessBuilder) Start() *ProcessBuilder {
	event := NewStartEvent()
	p.AppendElem(event)
	p.cur = event.id
	return p
}

// Append inserts elem after the cursor and moves the cursor onto it.
func (p *ProcessBuilder) Append(elem *Element) *ProcessBuilder {
	if p.cur == "" {
		p.AppendElem(elem)
	} else {
		p.AfterInsertElem(p.cur, elem, "")
	}
	p.cur = elem.id
	return p
}

// Seek moves the cursor, e.g. back onto a gateway to start another branch.
func (p *ProcessBuilder) Seek(id string) *ProcessBuilder {
	if _, ok := p.Elements.Get(id); ok {
		p.cur = id
	}
	return p
}

func (p *ProcessBuilder) End() *ProcessBuilder {
	return p.Append(NewEndEvent())
}

func (p *ProcessBuilder) AppendElem(elem *Element) *ProcessBuilder {
	p.Elements.Set(elem.id, elem)

	if IsStartEvent(elem) && p.start == "" {
		p.start = elem.id
	}
	if IsEndEvent(elem) {
		p.end = elem.id
	}

	return p
}

// Link connects two elements of the process with a new sequence flow. Unknown ids are ignored.
func (p *ProcessBuilder) Link(src, dst, cond string) *ProcessBuilder {
	source, ok := p.Elements.Get(src)
	if !ok {
		return p
	}
	target, ok := p.Elements.Get(dst)
	if !ok {
		return p
	}

	fid := randShapeName(bpmn.FlowKind)
	flow := &Flow{
		Id:        fid,
		SourceRef: source.id,
		TargetRef: target.id,
		Condition: cond,
	}
	p.Flows.Set(fid, flow)
	source.setOutgoing(fid)
	target.setIncoming(fid)

	return p
}

// Rename sets the name of an element or of a sequence flow.
func (p *ProcessBuilder) Rename(id, name string) *ProcessBuilder {
	if elem, ok := p.Elements.Get(id); ok {
		elem.name = name
	} else if flow, ok := p.Flows.Get(id); ok {
		flow.Name = name
	}
	return p
}

// AfterInsertElem inserts dst after the element src. The first flow leaving src now leaves
// dst instead, unless src is a gateway.
func (p *ProcessBuilder) AfterInsertElem(src string, dst *Element, cond string) *ProcessBuilder {
	source, ok := p.Elements.Get(src)
	if !ok {
		if source, ok = p.Elements.Get(p.start); !ok {
			p.AppendElem(dst)
			return p
		}
	}

	if !IsGateway(source) && len(source.outgoing) > 0 {
		fid := source.outgoing[0]
		if flow, ok := p.Flows.Get(fid); ok {
			flow.SourceRef = dst.id
			source.outgoing = removeRef(source.outgoing, fid)
			dst.setOutgoing(fid)
		}
	}

	p.AppendElem(dst)
	p.Link(source.id, dst.id, cond)

	return p
}

// BeforeInsertElem inserts src before the element dst. The first flow entering dst now
// enters src instead, unless dst is a gateway.
func (p *ProcessBuilder) BeforeInsertElem(dst string, src *Element, cond string) *ProcessBuilder {
	target, ok := p.Elements.Get(dst)
	if !ok {
		return p
	}

	if !IsGateway(target) && len(target.incoming) > 0 {
		fid := target.incoming[0]
		if flow, ok := p.Flows.Get(fid); ok {
			flow.TargetRef = src.id
			target.incoming = removeRef(target.incoming, fid)
			src.setIncoming(fid)
		}
	}

	p.AppendElem(src)
	p.Link(src.id, target.id, cond)

	return p
}

// subProcesses lists the sub-process builders directly owned by the process.
func (p *ProcessBuilder) subProcesses() []*ProcessBuilder {
	out := make([]*ProcessBuilder, 0)
	p.Elements.Scan(func(key string, elem *Element) bool {
		if elem.sub != nil {
			out = append(out, elem.sub)
		}
		return true
	})
	return out
}

// write emits the elements and flows of the process below parent.
func (p *ProcessBuilder) write(parent *etree.Element) {
	p.Elements.Scan(func(key string, elem *Element) bool {
		writeElement(parent, elem)
		return true
	})
	p.Flows.Scan(func(key string, flow *Flow) bool {
		f := parent.CreateElement("bpmn:sequenceFlow")
		f.CreateAttr("id", flow.Id)
		if flow.Name != "" {
			f.CreateAttr("name", flow.Name)
		}
		f.CreateAttr("sourceRef", flow.SourceRef)
		f.CreateAttr("targetRef", flow.TargetRef)
		if flow.Condition != "" {
			expr := f.CreateElement("bpmn:conditionExpression")
			expr.CreateAttr("xsi:type", "bpmn:tFormalExpression")
			expr.SetText(flow.Condition)
		}
		return true
	})
}

func writeElement(parent *etree.Element, elem *Element) {
	e := parent.CreateElement("bpmn:" + elem.tag)
	e.CreateAttr("id", elem.id)
	if elem.name != "" {
		e.CreateAttr("name", elem.name)
	}

	if len(elem.properties) > 0 {
		ext := e.CreateElement("bpmn:extensionElements")
		list := ext.CreateElement(bpmn.OlivePrefix + ":properties")
		for _, it := range elem.properties {
			property := list.CreateElement(bpmn.OlivePrefix + ":property")
			property.CreateAttr("name", it.name)
			property.CreateAttr("value", it.value)
			property.CreateAttr("type", it.typ)
		}
	}
	for _, ref := range elem.incoming {
		e.CreateElement("bpmn:incoming").SetText(ref)
	}
	for _, ref := range elem.outgoing {
		e.CreateElement("bpmn:outgoing").SetText(ref)
	}

	if elem.sub != nil {
		elem.sub.write(e)
	}
}

// DefinitionsBuilder assembles processes into one diagram document.
type DefinitionsBuilder struct {
	id          string
	name        string
	processes   []*ProcessBuilder
	orientation api.Orientation
}

func NewDefinitionsBuilder(name string) *DefinitionsBuilder {
	return &DefinitionsBuilder{
		id:          "Definitions_" + randName(),
		name:        name,
		processes:   make([]*ProcessBuilder, 0),
		orientation: api.LeftRight,
	}
}

// NewProcessDefinitionsBuilder returns a definitions builder holding one process of the
// same name, together with that process.
func NewProcessDefinitionsBuilder(name string) (*DefinitionsBuilder, *ProcessBuilder) {
	p := NewProcessBuilder(name)
	return NewDefinitionsBuilder(name).AddProcess(p), p
}

func (b *DefinitionsBuilder) Id(id string) *DefinitionsBuilder {
	b.id = id
	return b
}

func (b *DefinitionsBuilder) AddProcess(p *ProcessBuilder) *DefinitionsBuilder {
	b.processes = append(b.processes, p)
	return b
}

// Orientation sets the direction diagram shapes are laid out in.
func (b *DefinitionsBuilder) Orientation(o api.Orientation) *DefinitionsBuilder {
	b.orientation = o
	return b
}

func (b *DefinitionsBuilder) ToDocument() (*etree.Document, error) {
	if len(b.processes) == 0 {
		return nil, api.BadRequest("definitions %s has no process", b.id)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("bpmn:definitions")
	root.CreateAttr("xmlns:bpmn", bpmn.ModelNamespace)
	root.CreateAttr("xmlns:bpmndi", bpmn.DINamespace)
	root.CreateAttr("xmlns:dc", DCNamespace)
	root.CreateAttr("xmlns:di", DINamespace)
	root.CreateAttr("xmlns:xsi", XSINamespace)
	root.CreateAttr("xmlns:"+bpmn.OlivePrefix, bpmn.OliveNamespace)
	root.CreateAttr("id", b.id)
	if b.name != "" {
		root.CreateAttr("name", b.name)
	}
	root.CreateAttr("targetNamespace", DefaultTargetNamespace)

	seen := map[string]struct{}{}
	for _, p := range b.processes {
		if _, ok := seen[p.id]; ok {
			return nil, api.BadRequest("duplicate process %s", p.id)
		}
		seen[p.id] = struct{}{}

		proc := root.CreateElement("bpmn:process")
		proc.CreateAttr("id", p.id)
		if p.name != "" {
			proc.CreateAttr("name", p.name)
		}
		proc.CreateAttr("isExecutable", "true")
		p.write(proc)
	}

	for _, p := range b.processes {
		draw(root, p, b.orientation)
	}

	doc.Indent(2)
	return doc, nil
}

func (b *DefinitionsBuilder) ToXML() (string, error) {
	doc, err := b.ToDocument()
	if err != nil {
		return "", err
	}
	return doc.WriteToString()
}
