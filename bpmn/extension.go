package bpmn

import (
	"strings"

	json "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/vine-io/flowview/api"
)

const (
	// OliveNamespace is the namespace of the task metadata extension.
	OliveNamespace = "http://olive.io/spec/BPMN/MODEL"
	OlivePrefix    = "olive"
)

const (
	PropertyType          = "type"
	PropertyDuration      = "duration"
	PropertyAssignedRoles = "assignedRoles"
	PropertyAssignedUsers = "assignedUsers"
	PropertyDescription   = "description"
	PropertyCustomFields  = "customFields"
)

// Property is one name/value pair of the extension property list.
type Property struct {
	Name  string
	Value string
}

// Properties flattens the configuration into the stored property list. Every scalar field
// becomes one pair; the custom field list is stored as a single JSON value.
func (c *TaskConfig) Properties() ([]Property, error) {
	fields := c.CustomFields
	if fields == nil {
		fields = []CustomField{}
	}
	data, err := json.MarshalToString(fields)
	if err != nil {
		return nil, api.BadRequest("encode custom fields: %v", err).WithCause(err)
	}

	return []Property{
		{Name: PropertyType, Value: string(c.Type)},
		{Name: PropertyDuration, Value: c.Duration.String()},
		{Name: PropertyAssignedRoles, Value: strings.Join(c.AssignedRoles, ",")},
		{Name: PropertyAssignedUsers, Value: strings.Join(c.AssignedUsers, ",")},
		{Name: PropertyDescription, Value: c.Description},
		{Name: PropertyCustomFields, Value: data},
	}, nil
}

// ConfigFromProperties rebuilds a configuration from a stored property list.
// Unknown names are ignored.
func ConfigFromProperties(properties []Property) (*TaskConfig, error) {
	c := &TaskConfig{}
	for _, p := range properties {
		switch p.Name {
		case PropertyType:
			c.Type = TaskType(p.Value)
		case PropertyDuration:
			if p.Value == "" {
				continue
			}
			d, err := decimal.NewFromString(p.Value)
			if err != nil {
				return nil, api.BadRequest("property duration: %v", err).WithCause(err)
			}
			c.Duration = d
		case PropertyAssignedRoles:
			c.AssignedRoles = splitList(p.Value)
		case PropertyAssignedUsers:
			c.AssignedUsers = splitList(p.Value)
		case PropertyDescription:
			c.Description = p.Value
		case PropertyCustomFields:
			if p.Value == "" {
				continue
			}
			fields := make([]CustomField, 0)
			if err := json.UnmarshalFromString(p.Value, &fields); err != nil {
				return nil, api.BadRequest("property customFields: %v", err).WithCause(err)
			}
			c.CustomFields = fields
		}
	}
	return c, nil
}

func splitList(text string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
