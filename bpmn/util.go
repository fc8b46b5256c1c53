package bpmn

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

const (
	// ModelNamespace is the BPMN 2.0 model namespace.
	ModelNamespace = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	// DINamespace is the BPMN 2.0 diagram interchange namespace.
	DINamespace = "http://www.omg.org/spec/BPMN/20100524/DI"
)

func getAttr(attrs []etree.Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if attr.FullKey() == name {
			return attr.Value, true
		}
	}
	return "", false
}

// NamespaceOf resolves the namespace bound to the prefix of elem by walking the
// xmlns declarations of elem and its ancestors.
func NamespaceOf(elem *etree.Element) string {
	key := "xmlns"
	if elem.Space != "" {
		key = "xmlns:" + elem.Space
	}
	for e := elem; e != nil; e = e.Parent() {
		if v, ok := getAttr(e.Attr, key); ok {
			return v
		}
	}
	return ""
}

// PrefixFor returns the prefix bound to namespace on elem or its ancestors.
func PrefixFor(elem *etree.Element, namespace string) (string, bool) {
	for e := elem; e != nil; e = e.Parent() {
		for _, attr := range e.Attr {
			if attr.Value != namespace {
				continue
			}
			if attr.Space == "xmlns" {
				return attr.Key, true
			}
			if attr.Space == "" && attr.Key == "xmlns" {
				return "", true
			}
		}
	}
	return "", false
}

// IsModelElement reports whether elem belongs to the BPMN model namespace. Documents
// without namespace declarations are accepted by their conventional prefixes.
func IsModelElement(elem *etree.Element) bool {
	if ns := NamespaceOf(elem); ns != "" {
		return ns == ModelNamespace
	}
	switch elem.Space {
	case "bpmn", "bpmn2", "":
		return true
	}
	return false
}

// IsOliveElement reports whether elem belongs to the task metadata extension.
func IsOliveElement(elem *etree.Element) bool {
	if ns := NamespaceOf(elem); ns != "" {
		return ns == OliveNamespace
	}
	return elem.Space == OlivePrefix
}

// typeLabel turns an element tag into a display label: "startEvent" -> "Start Event".
func typeLabel(tag string) string {
	if tag == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range tag {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
