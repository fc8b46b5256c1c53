package bpmn

import (
	"fmt"

	"github.com/tidwall/btree"
)

// Kind tags the shape family of an element.
type Kind int32

const (
	TaskKind Kind = iota + 1
	EventKind
	GatewayKind
	SubProcessKind
	FlowKind
)

func (k Kind) String() string {
	switch k {
	case TaskKind:
		return "task"
	case EventKind:
		return "event"
	case GatewayKind:
		return "gateway"
	case SubProcessKind:
		return "subprocess"
	case FlowKind:
		return "flow"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, kind := range []Kind{TaskKind, EventKind, GatewayKind, SubProcessKind, FlowKind} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown element kind %q", text)
}

type Element interface {
	GetKind() Kind
	GetID() string
	GetName() string
	// Label is the text shown for the element in a diagram.
	Label() string
}

// Scope holds the elements directly owned by the root model or by one sub-process.
type Scope struct {
	Tasks        []*Task
	Events       []*Event
	Gateways     []*Gateway
	SubProcesses []*SubProcess
	Flows        []*SequenceFlow
	Lanes        []*Lane
}

// Owns reports whether the task, event or gateway id is a direct member of the scope.
func (s *Scope) Owns(id string) bool {
	for _, t := range s.Tasks {
		if t.Id == id {
			return true
		}
	}
	for _, e := range s.Events {
		if e.Id == id {
			return true
		}
	}
	for _, g := range s.Gateways {
		if g.Id == id {
			return true
		}
	}
	return false
}

// Child returns the sub-process directly owned by the scope.
func (s *Scope) Child(id string) (*SubProcess, bool) {
	for _, sp := range s.SubProcesses {
		if sp.Id == id {
			return sp, true
		}
	}
	return nil, false
}

// Container is either the root ProcessModel or a single SubProcess.
type Container interface {
	// ScopeID is empty for the root model.
	ScopeID() string
	ScopeName() string
	Members() *Scope
	IsRoot() bool
}

var _ Container = (*ProcessModel)(nil)

// ProcessModel is the root container built from one diagram document.
type ProcessModel struct {
	Id              string
	Name            string
	TargetNamespace string
	// Processes lists the ids of the merged process elements in read order.
	Processes []string

	Scope

	index *btree.Map[string, Location]
}

func (m *ProcessModel) ScopeID() string { return "" }

func (m *ProcessModel) ScopeName() string { return m.Name }

func (m *ProcessModel) Members() *Scope { return &m.Scope }

func (m *ProcessModel) IsRoot() bool { return true }

var (
	_ Element   = (*SubProcess)(nil)
	_ Container = (*SubProcess)(nil)
)

type SubProcess struct {
	Id   string
	Name string
	// Type is the element tag, e.g. subProcess or transaction.
	Type string

	Scope
}

func (p *SubProcess) GetKind() Kind { return SubProcessKind }

func (p *SubProcess) GetID() string { return p.Id }

func (p *SubProcess) GetName() string { return p.Name }

func (p *SubProcess) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Id
}

func (p *SubProcess) ScopeID() string { return p.Id }

func (p *SubProcess) ScopeName() string { return p.Label() }

func (p *SubProcess) Members() *Scope { return &p.Scope }

func (p *SubProcess) IsRoot() bool { return false }

// HasNested reports whether the sub-process contains further sub-processes.
func (p *SubProcess) HasNested() bool {
	return len(p.SubProcesses) > 0
}

// Lane groups flow nodes of a process by reference only; elements stay owned by the process.
type Lane struct {
	Id           string
	Name         string
	FlowNodeRefs []string
}
