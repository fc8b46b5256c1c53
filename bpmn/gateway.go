package bpmn

var _ Element = (*Gateway)(nil)

type Gateway struct {
	Id   string
	Name string
	// Type is the element tag, e.g. exclusiveGateway.
	Type string
}

func (g *Gateway) GetKind() Kind { return GatewayKind }

func (g *Gateway) GetID() string { return g.Id }

func (g *Gateway) GetName() string { return g.Name }

func (g *Gateway) Label() string {
	if g.Name != "" {
		return g.Name
	}
	return typeLabel(g.Type)
}

func IsGateway(elem Element) bool {
	return elem.GetKind() == GatewayKind
}
