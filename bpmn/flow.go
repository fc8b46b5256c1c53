package bpmn

var _ Element = (*SequenceFlow)(nil)

type SequenceFlow struct {
	Id        string
	Name      string
	SourceRef string
	TargetRef string
}

func (f *SequenceFlow) GetKind() Kind { return FlowKind }

func (f *SequenceFlow) GetID() string { return f.Id }

func (f *SequenceFlow) GetName() string { return f.Name }

func (f *SequenceFlow) Label() string { return f.Name }
