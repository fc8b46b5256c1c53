package bpmn

import (
	"fmt"

	"github.com/beevik/etree"
	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/flowview/api"
)

// Deserializer reads one model element into the scope that owns it.
type Deserializer interface {
	Deserialize(start *etree.Element, scope *Scope) error
}

var deserializers = map[string]Deserializer{
	"task":                   &taskSerde{},
	"userTask":               &taskSerde{},
	"serviceTask":            &taskSerde{},
	"scriptTask":             &taskSerde{},
	"manualTask":             &taskSerde{},
	"sendTask":               &taskSerde{},
	"receiveTask":            &taskSerde{},
	"businessRuleTask":       &taskSerde{},
	"callActivity":           &taskSerde{},
	"startEvent":             &eventSerde{},
	"endEvent":               &eventSerde{},
	"intermediateCatchEvent": &eventSerde{},
	"intermediateThrowEvent": &eventSerde{},
	"boundaryEvent":          &eventSerde{},
	"exclusiveGateway":       &gatewaySerde{},
	"parallelGateway":        &gatewaySerde{},
	"inclusiveGateway":       &gatewaySerde{},
	"eventBasedGateway":      &gatewaySerde{},
	"complexGateway":         &gatewaySerde{},
	"subProcess":             &subProcessSerde{},
	"transaction":            &subProcessSerde{},
	"adHocSubProcess":        &subProcessSerde{},
	"sequenceFlow":           &sequenceFlowSerde{},
	"laneSet":                &laneSetSerde{},
}

// Deserialize dispatches start to the deserializer registered for its tag. Elements
// outside the model namespace or without a registered deserializer are skipped.
func Deserialize(start *etree.Element, scope *Scope) error {
	if !IsModelElement(start) {
		return nil
	}
	deserializer, ok := deserializers[start.Tag]
	if !ok {
		return nil
	}
	return deserializer.Deserialize(start, scope)
}

func readScope(start *etree.Element, scope *Scope) error {
	for _, child := range start.ChildElements() {
		if err := Deserialize(child, scope); err != nil {
			return err
		}
	}
	return nil
}

type taskSerde struct{}

func (s *taskSerde) Deserialize(start *etree.Element, scope *Scope) error {
	task := &Task{Type: start.Tag}
	task.Id, _ = getAttr(start.Attr, "id")
	task.Name, _ = getAttr(start.Attr, "name")

	for _, child := range start.ChildElements() {
		if child.Tag != "extensionElements" || !IsModelElement(child) {
			continue
		}
		properties, found := readProperties(child)
		if !found {
			continue
		}
		cfg, err := ConfigFromProperties(properties)
		if err != nil {
			log.Warnf("task %s carries unreadable properties: %v", task.Id, err)
			continue
		}
		task.Config = cfg
	}

	scope.Tasks = append(scope.Tasks, task)
	return nil
}

// readProperties collects the name/value pairs of the metadata property list inside
// an extensionElements container.
func readProperties(ext *etree.Element) ([]Property, bool) {
	for _, child := range ext.ChildElements() {
		if child.Tag != "properties" || !IsOliveElement(child) {
			continue
		}
		properties := make([]Property, 0)
		for _, item := range child.ChildElements() {
			if item.Tag != "property" {
				continue
			}
			p := Property{}
			p.Name, _ = getAttr(item.Attr, "name")
			p.Value, _ = getAttr(item.Attr, "value")
			properties = append(properties, p)
		}
		return properties, true
	}
	return nil, false
}

type eventSerde struct{}

func (s *eventSerde) Deserialize(start *etree.Element, scope *Scope) error {
	event := &Event{Type: start.Tag}
	event.Id, _ = getAttr(start.Attr, "id")
	event.Name, _ = getAttr(start.Attr, "name")
	scope.Events = append(scope.Events, event)
	return nil
}

type gatewaySerde struct{}

func (s *gatewaySerde) Deserialize(start *etree.Element, scope *Scope) error {
	gw := &Gateway{Type: start.Tag}
	gw.Id, _ = getAttr(start.Attr, "id")
	gw.Name, _ = getAttr(start.Attr, "name")
	scope.Gateways = append(scope.Gateways, gw)
	return nil
}

type subProcessSerde struct{}

func (s *subProcessSerde) Deserialize(start *etree.Element, scope *Scope) error {
	sp := &SubProcess{Type: start.Tag}
	sp.Id, _ = getAttr(start.Attr, "id")
	sp.Name, _ = getAttr(start.Attr, "name")
	if err := readScope(start, &sp.Scope); err != nil {
		return err
	}
	scope.SubProcesses = append(scope.SubProcesses, sp)
	return nil
}

type sequenceFlowSerde struct{}

func (s *sequenceFlowSerde) Deserialize(start *etree.Element, scope *Scope) error {
	flow := &SequenceFlow{}
	for _, attr := range start.Attr {
		switch attr.FullKey() {
		case "id":
			flow.Id = attr.Value
		case "name":
			flow.Name = attr.Value
		case "sourceRef":
			flow.SourceRef = attr.Value
		case "targetRef":
			flow.TargetRef = attr.Value
		}
	}
	scope.Flows = append(scope.Flows, flow)
	return nil
}

type laneSetSerde struct{}

func (s *laneSetSerde) Deserialize(start *etree.Element, scope *Scope) error {
	for _, child := range start.ChildElements() {
		if child.Tag == "lane" {
			s.readLane(child, scope)
		}
	}
	return nil
}

func (s *laneSetSerde) readLane(start *etree.Element, scope *Scope) {
	lane := &Lane{FlowNodeRefs: make([]string, 0)}
	lane.Id, _ = getAttr(start.Attr, "id")
	lane.Name, _ = getAttr(start.Attr, "name")
	scope.Lanes = append(scope.Lanes, lane)

	for _, child := range start.ChildElements() {
		switch child.Tag {
		case "flowNodeRef":
			lane.FlowNodeRefs = append(lane.FlowNodeRefs, child.Text())
		case "childLaneSet":
			for _, nested := range child.ChildElements() {
				if nested.Tag == "lane" {
					s.readLane(nested, scope)
				}
			}
		}
	}
}

// FromXML parses a diagram description document into a ProcessModel.
func FromXML(text string) (*ProcessModel, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, api.InvalidDocument("parse document: %v", err).WithCause(err)
	}
	return FromDocument(doc)
}

// FromDocument builds a ProcessModel from an already parsed document. The root model is
// the union of every process, ordered by collaboration participants first and then by
// document order.
func FromDocument(doc *etree.Document) (*ProcessModel, error) {
	root := doc.Root()
	if root == nil {
		return nil, api.InvalidDocument("document has no root element")
	}
	if root.Tag != "definitions" || !IsModelElement(root) {
		return nil, api.InvalidDocument("unexpected root element <%s>", root.FullTag())
	}

	model := &ProcessModel{Processes: make([]string, 0)}
	model.Id, _ = getAttr(root.Attr, "id")
	model.Name, _ = getAttr(root.Attr, "name")
	model.TargetNamespace, _ = getAttr(root.Attr, "targetNamespace")

	processes := map[string]*etree.Element{}
	order := make([]string, 0)
	refs := make([]string, 0)
	for _, child := range root.ChildElements() {
		if !IsModelElement(child) {
			continue
		}
		switch child.Tag {
		case "process":
			id, _ := getAttr(child.Attr, "id")
			if _, ok := processes[id]; ok {
				return nil, api.InvalidDocument("duplicate process id %q", id)
			}
			processes[id] = child
			order = append(order, id)
		case "collaboration":
			for _, participant := range child.ChildElements() {
				if participant.Tag != "participant" {
					continue
				}
				if ref, ok := getAttr(participant.Attr, "processRef"); ok && ref != "" {
					refs = append(refs, ref)
				}
			}
		}
	}

	seen := map[string]struct{}{}
	for _, id := range append(refs, order...) {
		if _, ok := seen[id]; ok {
			continue
		}
		process, ok := processes[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		if err := readScope(process, &model.Scope); err != nil {
			return nil, api.InvalidDocument("read process %s: %v", id, err).WithCause(err)
		}
		model.Processes = append(model.Processes, id)
	}

	if err := model.Reindex(); err != nil {
		return nil, err
	}

	log.Debugf("ingested model %s: %s", model.Id, model.summary())
	return model, nil
}

func (m *ProcessModel) summary() string {
	var tasks, events, gateways, subs, flows int
	m.Walk(func(c Container, depth int) bool {
		s := c.Members()
		tasks += len(s.Tasks)
		events += len(s.Events)
		gateways += len(s.Gateways)
		subs += len(s.SubProcesses)
		flows += len(s.Flows)
		return true
	})
	return fmt.Sprintf("%d tasks, %d events, %d gateways, %d sub-processes, %d flows",
		tasks, events, gateways, subs, flows)
}

// IsTaskTag reports whether tag names an element read as a Task.
func IsTaskTag(tag string) bool {
	_, ok := deserializers[tag].(*taskSerde)
	return ok
}

// KindOf reports the element kind a registered model tag deserializes into.
func KindOf(tag string) (Kind, bool) {
	switch deserializers[tag].(type) {
	case *taskSerde:
		return TaskKind, true
	case *eventSerde:
		return EventKind, true
	case *gatewaySerde:
		return GatewayKind, true
	case *subProcessSerde:
		return SubProcessKind, true
	case *sequenceFlowSerde:
		return FlowKind, true
	}
	return 0, false
}
