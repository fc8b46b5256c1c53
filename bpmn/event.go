package bpmn

var _ Element = (*Event)(nil)

type Event struct {
	Id   string
	Name string
	// Type is the element tag, e.g. startEvent.
	Type string
}

func (e *Event) GetKind() Kind { return EventKind }

func (e *Event) GetID() string { return e.Id }

func (e *Event) GetName() string { return e.Name }

// Label falls back to the event type, "startEvent" reads "Start Event".
func (e *Event) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return typeLabel(e.Type)
}

func IsStartEvent(elem Element) bool {
	e, ok := elem.(*Event)
	return ok && e.Type == "startEvent"
}

func IsEndEvent(elem Element) bool {
	e, ok := elem.(*Event)
	return ok && e.Type == "endEvent"
}
