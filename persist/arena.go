package persist

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/vine-io/flowview/api"
	"github.com/vine-io/flowview/bpmn"
)

type arenaNode struct {
	elem   *etree.Element
	parent int
}

// arena flattens the element tree of a document in depth first order, so the index of a
// node is the position of its start tag among all start tags of the document. Ids are
// indexed so any container kind (process, participant, lane set, nested sub-process) is
// searched by the same walk. Ids inside the diagram interchange subtree are not indexed:
// its shapes point at model elements but are not model elements.
type arena struct {
	nodes []arenaNode
	ids   map[string][]int
	index map[*etree.Element]int
}

func newArena(root *etree.Element) *arena {
	a := &arena{ids: map[string][]int{}, index: map[*etree.Element]int{}}
	if root == nil {
		return a
	}

	var walk func(e *etree.Element, parent int, diagram bool)
	walk = func(e *etree.Element, parent int, diagram bool) {
		diagram = diagram || bpmn.NamespaceOf(e) == bpmn.DINamespace
		idx := len(a.nodes)
		a.nodes = append(a.nodes, arenaNode{elem: e, parent: parent})
		a.index[e] = idx
		if id := e.SelectAttrValue("id", ""); id != "" && !diagram {
			a.ids[id] = append(a.ids[id], idx)
		}
		for _, child := range e.ChildElements() {
			walk(child, idx, diagram)
		}
	}
	walk(root, -1, false)
	return a
}

// find returns the first element in document order with the given id accepted by match.
func (a *arena) find(id string, match func(e *etree.Element) bool) (int, bool) {
	for _, idx := range a.ids[id] {
		if match == nil || match(a.nodes[idx].elem) {
			return idx, true
		}
	}
	return -1, false
}

func (a *arena) element(idx int) *etree.Element {
	return a.nodes[idx].elem
}

func (a *arena) indexOf(e *etree.Element) int {
	idx, ok := a.index[e]
	if !ok {
		return -1
	}
	return idx
}

// ancestors lists the ids of the enclosing elements that carry one, outermost first.
func (a *arena) ancestors(idx int) []string {
	out := make([]string, 0)
	for p := a.nodes[idx].parent; p >= 0; p = a.nodes[p].parent {
		if id := a.nodes[p].elem.SelectAttrValue("id", ""); id != "" {
			out = append([]string{id}, out...)
		}
	}
	return out
}

// span is the byte range of one element in the source text.
type span struct {
	start int64
	// inner is the end of the start tag.
	inner int64
	// close is the start of the end tag, equal to end for a self-closing tag.
	close int64
	end   int64
}

func (s span) selfClosing() bool { return s.close == s.end }

// scan returns the span of every element of text, in start tag order. It reads the
// raw token stream etree builds its tree from, so spans[i] belongs to arena node i.
func scan(text string) ([]span, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	spans := make([]span, 0)
	open := make([]int, 0)
	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, api.InvalidDocument("parse document: %v", err).WithCause(err)
		}

		switch tok.(type) {
		case xml.StartElement:
			open = append(open, len(spans))
			spans = append(spans, span{start: start, inner: dec.InputOffset()})
		case xml.EndElement:
			if len(open) == 0 {
				return nil, api.InvalidDocument("parse document: unexpected end tag at offset %d", start)
			}
			i := open[len(open)-1]
			open = open[:len(open)-1]
			spans[i].close = start
			spans[i].end = dec.InputOffset()
		}
	}
	if len(open) != 0 {
		return nil, api.InvalidDocument("parse document: unclosed element")
	}
	return spans, nil
}
