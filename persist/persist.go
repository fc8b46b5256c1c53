package persist

import (
	"bytes"

	"github.com/beevik/etree"
	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

const (
	extensionTag  = "extensionElements"
	propertiesTag = "properties"
	propertyTag   = "property"
	documentation = "documentation"
)

// change replaces the bytes [start, end) of the source text with text.
type change struct {
	start int64
	end   int64
	text  string
}

// Persist writes cfg as the property list of task taskID inside document and returns the
// updated document. Only the property list of that task changes: a previous list is
// replaced in place, and every other byte of document is kept as written.
func Persist(document, taskID string, cfg *bpmn.TaskConfig) (string, error) {
	if cfg == nil {
		return "", api.BadRequest("missing task config")
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	properties, err := cfg.Properties()
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	if err = doc.ReadFromString(document); err != nil {
		return "", api.InvalidDocument("parse document: %v", err).WithCause(err)
	}
	root := doc.Root()
	if root == nil {
		return "", api.InvalidDocument("document has no root element")
	}
	spans, err := scan(document)
	if err != nil {
		return "", err
	}

	a := newArena(root)
	if len(a.nodes) != len(spans) {
		return "", api.InternalServerError("document has %d elements, scanned %d", len(a.nodes), len(spans))
	}
	idx, ok := a.find(taskID, func(e *etree.Element) bool {
		return bpmn.IsModelElement(e) && bpmn.IsTaskTag(e.Tag)
	})
	if !ok {
		return "", api.ElementNotFound("task %s not found", taskID)
	}

	c := plan(a, spans, idx, properties)
	log.Debugf("wrote %d properties on task %s (scope %v)", len(properties), taskID, a.ancestors(idx))
	return document[:c.start] + c.text + document[c.end:], nil
}

// plan works out the smallest change that gives task idx the property list properties.
func plan(a *arena, spans []span, idx int, properties []bpmn.Property) change {
	task := a.element(idx)

	var ext, doc *etree.Element
	for _, child := range task.ChildElements() {
		if child.Tag == extensionTag && bpmn.IsModelElement(child) {
			ext = child
			break
		}
		if child.Tag == documentation {
			doc = child
		}
	}

	if ext != nil {
		list := newProperties(ext, properties)
		for _, child := range ext.ChildElements() {
			if child.Tag == propertiesTag && bpmn.IsOliveElement(child) {
				s := spans[a.indexOf(child)]
				return change{start: s.start, end: s.end, text: write(list)}
			}
		}
		return appendChild(spans[a.indexOf(ext)], ext, write(list))
	}

	ext = etree.NewElement(extensionTag)
	ext.Space = task.Space
	ext.AddChild(newProperties(task, properties))
	text := write(ext)

	children := task.ChildElements()
	switch {
	case doc != nil:
		at := spans[a.indexOf(doc)].end
		return change{start: at, end: at, text: text}
	case len(children) > 0:
		at := spans[a.indexOf(children[0])].start
		return change{start: at, end: at, text: text}
	default:
		return appendChild(spans[idx], task, text)
	}
}

// appendChild inserts text as the last child of parent, opening a self-closing tag.
func appendChild(s span, parent *etree.Element, text string) change {
	if !s.selfClosing() {
		return change{start: s.close, end: s.close, text: text}
	}
	// "/>" becomes ">" text "</tag>"
	return change{
		start: s.end - 2,
		end:   s.end,
		text:  ">" + text + "</" + parent.FullTag() + ">",
	}
}

// newProperties builds a property list holding properties, using the extension prefix
// declared in the scope of parent or declaring it on the list.
func newProperties(parent *etree.Element, properties []bpmn.Property) *etree.Element {
	prefix, declared := bpmn.PrefixFor(parent, bpmn.OliveNamespace)
	if !declared || prefix == "" {
		prefix = bpmn.OlivePrefix
		declared = false
	}

	list := etree.NewElement(propertiesTag)
	list.Space = prefix
	if !declared {
		list.CreateAttr("xmlns:"+prefix, bpmn.OliveNamespace)
	}
	for _, p := range properties {
		item := list.CreateElement(prefix + ":" + propertyTag)
		item.CreateAttr("name", p.Name)
		item.CreateAttr("value", p.Value)
		item.CreateAttr("type", "string")
	}
	return list
}

func write(e *etree.Element) string {
	var buf bytes.Buffer
	e.WriteTo(&buf, &etree.WriteSettings{})
	return buf.String()
}
