package bpmn

import (
	"github.com/tidwall/btree"

	"github.com/vine-io/flowview/api"
)

// Location describes where an element lives in the model tree.
type Location struct {
	Element Element
	// Path holds the ids of the enclosing sub-processes from the root down to the owner.
	// It is empty for elements owned by the root.
	Path []string
}

// Owner returns the id of the owning scope, empty for the root.
func (l Location) Owner() string {
	if len(l.Path) == 0 {
		return ""
	}
	return l.Path[len(l.Path)-1]
}

// ScopeInfo summarizes one navigable scope.
type ScopeInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Depth int      `json:"depth"`
	Path  []string `json:"path"`
}

// Walk visits the root and every sub-process depth first. fn returns false to skip
// the children of the visited container.
func (m *ProcessModel) Walk(fn func(c Container, depth int) bool) {
	if !fn(m, 0) {
		return
	}
	walkScope(&m.Scope, 1, fn)
}

func walkScope(s *Scope, depth int, fn func(c Container, depth int) bool) {
	for _, sp := range s.SubProcesses {
		if fn(sp, depth) {
			walkScope(&sp.Scope, depth+1, fn)
		}
	}
}

// Reindex rebuilds the id index. Ids must be unique across the whole model.
func (m *ProcessModel) Reindex() error {
	index := btree.NewMap[string, Location](32)
	var err error
	add := func(e Element, path []string) bool {
		if e.GetID() == "" {
			return true
		}
		if _, replaced := index.Set(e.GetID(), Location{Element: e, Path: path}); replaced {
			err = api.InvalidDocument("duplicate element id %q", e.GetID())
			return false
		}
		return true
	}

	var visit func(s *Scope, path []string) bool
	visit = func(s *Scope, path []string) bool {
		for _, t := range s.Tasks {
			if !add(t, path) {
				return false
			}
		}
		for _, e := range s.Events {
			if !add(e, path) {
				return false
			}
		}
		for _, g := range s.Gateways {
			if !add(g, path) {
				return false
			}
		}
		for _, f := range s.Flows {
			if !add(f, path) {
				return false
			}
		}
		for _, sp := range s.SubProcesses {
			if !add(sp, path) {
				return false
			}
			next := append(append(make([]string, 0, len(path)+1), path...), sp.Id)
			if !visit(&sp.Scope, next) {
				return false
			}
		}
		return true
	}

	if !visit(&m.Scope, []string{}) {
		return err
	}
	m.index = index
	return nil
}

func (m *ProcessModel) ensureIndex() {
	if m.index == nil {
		// duplicates leave the index unset; lookups then see an empty model
		if err := m.Reindex(); err != nil {
			m.index = btree.NewMap[string, Location](32)
		}
	}
}

// Lookup finds an element anywhere in the model.
func (m *ProcessModel) Lookup(id string) (Location, bool) {
	m.ensureIndex()
	return m.index.Get(id)
}

// Task finds a task at any depth.
func (m *ProcessModel) Task(id string) (*Task, bool) {
	loc, ok := m.Lookup(id)
	if !ok {
		return nil, false
	}
	t, ok := loc.Element.(*Task)
	return t, ok
}

// SubProcess finds a sub-process at any depth.
func (m *ProcessModel) SubProcess(id string) (*SubProcess, bool) {
	loc, ok := m.Lookup(id)
	if !ok {
		return nil, false
	}
	sp, ok := loc.Element.(*SubProcess)
	return sp, ok
}

// Resolve walks path from the root, each id naming a sub-process directly owned by the
// previous one. It returns the deepest sub-process reached (nil for the root) and the
// number of path entries that resolved.
func (m *ProcessModel) Resolve(path []string) (*SubProcess, int) {
	var current *SubProcess
	scope := &m.Scope
	for i, id := range path {
		child, ok := scope.Child(id)
		if !ok {
			return current, i
		}
		current = child
		scope = &child.Scope
	}
	return current, len(path)
}

// Scopes lists every navigable scope, the root first.
func (m *ProcessModel) Scopes() []ScopeInfo {
	out := make([]ScopeInfo, 0)
	var path []string
	m.Walk(func(c Container, depth int) bool {
		if c.IsRoot() {
			out = append(out, ScopeInfo{ID: "", Name: c.ScopeName(), Depth: 0, Path: []string{}})
			return true
		}
		path = append(path[:depth-1], c.ScopeID())
		out = append(out, ScopeInfo{
			ID:    c.ScopeID(),
			Name:  c.ScopeName(),
			Depth: depth,
			Path:  append([]string{}, path...),
		})
		return true
	})
	return out
}
