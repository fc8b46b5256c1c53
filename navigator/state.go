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
	"github.com/vine-io/flowview/bpmn"
)

// Entry is one breadcrumb level, pointing at a sub-process.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// State is the breadcrumb stack from the root to the viewed scope. The zero value is the
// root. A State is never modified in place, transitions return a new value.
type State struct {
	entries []Entry
}

func Root() State { return State{} }

// NewState builds a state from raw entries without checking them against a model.
func NewState(entries ...Entry) State {
	return State{entries: append([]Entry{}, entries...)}
}

func (s State) Depth() int { return len(s.entries) }

func (s State) IsRoot() bool { return len(s.entries) == 0 }

func (s State) Entries() []Entry {
	return append([]Entry{}, s.entries...)
}

func (s State) Top() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// First returns the entry directly below the root.
func (s State) First() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Path returns the sub-process ids of the breadcrumb.
func (s State) Path() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.ID)
	}
	return out
}

func (s State) truncate(level int) State {
	if level < 0 {
		level = 0
	}
	if level >= len(s.entries) {
		return s
	}
	return State{entries: append([]Entry{}, s.entries[:level]...)}
}

func (s State) push(e Entry) State {
	entries := make([]Entry, 0, len(s.entries)+1)
	entries = append(entries, s.entries...)
	return State{entries: append(entries, e)}
}

// Resolve walks the model along the breadcrumb. It returns the state cut down to its
// deepest resolvable prefix, with names refreshed from the model, the container backing
// that level and whether a stale tail was dropped.
func Resolve(m *bpmn.ProcessModel, s State) (State, bpmn.Container, bool) {
	sp, n := m.Resolve(s.Path())
	entries := make([]Entry, 0, n)
	scope := &m.Scope
	for _, id := range s.Path()[:n] {
		child, _ := scope.Child(id)
		entries = append(entries, Entry{ID: child.Id, Name: child.Label()})
		scope = &child.Scope
	}
	next := State{entries: entries}
	if sp == nil {
		return next, m, n < s.Depth()
	}
	return next, sp, n < s.Depth()
}

// DrillInto pushes id when it names a sub-process directly owned by the scope at the top
// of s. Otherwise s is returned unchanged.
func DrillInto(m *bpmn.ProcessModel, s State, id string) State {
	resolved, c, dropped := Resolve(m, s)
	if dropped {
		return s
	}
	child, ok := c.Members().Child(id)
	if !ok {
		return s
	}
	return resolved.push(Entry{ID: child.Id, Name: child.Label()})
}

// NavigateTo truncates s to level entries, 0 being the root, and re-resolves the result.
// Entries that no longer resolve are dropped and navigation stops at the last valid level.
func NavigateTo(m *bpmn.ProcessModel, s State, level int) State {
	next, _, _ := Resolve(m, s.truncate(level))
	return next
}
