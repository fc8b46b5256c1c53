package bpmn

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vine-io/flowview/api"
)

func TestTaskConfigValidate(t *testing.T) {
	c := &TaskConfig{
		Type:          Resource,
		Duration:      decimal.NewFromInt(3),
		AssignedRoles: []string{"ops"},
		CustomFields:  []CustomField{{Key: "k", Type: "number"}},
	}
	assert.NoError(t, c.Validate())

	bad := c.Clone()
	bad.Duration = decimal.NewFromInt(-1)
	err := bad.Validate()
	assert.Error(t, err)
	assert.Equal(t, int32(api.BadRequest("").Code), api.FromErr(err).Code)

	bad = c.Clone()
	bad.Type = "review"
	assert.Error(t, bad.Validate())

	bad = c.Clone()
	bad.CustomFields = []CustomField{{Key: "", Type: "string"}}
	assert.Error(t, bad.Validate())

	assert.NoError(t, (&TaskConfig{}).Validate())
}

func TestTaskConfigMerge(t *testing.T) {
	base := &TaskConfig{
		Type:          Planning,
		Duration:      decimal.NewFromFloat(2.5),
		AssignedRoles: []string{"a"},
		AssignedUsers: []string{"u1"},
		Description:   "keep",
	}
	merged := base.Merge(&TaskConfig{
		Duration:      decimal.NewFromInt(4),
		AssignedUsers: []string{},
	})

	assert.Equal(t, Planning, merged.Type)
	assert.True(t, decimal.NewFromInt(4).Equal(merged.Duration))
	assert.Equal(t, []string{"a"}, merged.AssignedRoles)
	assert.Equal(t, []string{}, merged.AssignedUsers)
	assert.Equal(t, "keep", merged.Description)

	// the receiver is untouched
	assert.Equal(t, []string{"u1"}, base.AssignedUsers)
	assert.True(t, decimal.NewFromFloat(2.5).Equal(base.Duration))

	var empty *TaskConfig
	assert.Equal(t, Notification, empty.Merge(&TaskConfig{Type: Notification}).Type)
}

func TestPropertiesRoundTrip(t *testing.T) {
	c := &TaskConfig{
		Type:          Authorization,
		Duration:      decimal.RequireFromString("1.25"),
		AssignedRoles: []string{"r1", "r2"},
		AssignedUsers: []string{"u1"},
		Description:   "approve, then notify",
		CustomFields: []CustomField{
			{Key: "amount", Type: "number", Required: true},
			{Key: "note", Type: "string"},
		},
	}
	properties, err := c.Properties()
	if !assert.NoError(t, err) {
		return
	}
	assert.Len(t, properties, 6)
	assert.Equal(t, Property{Name: PropertyAssignedRoles, Value: "r1,r2"}, properties[2])
	assert.Equal(t, PropertyCustomFields, properties[5].Name)

	back, err := ConfigFromProperties(properties)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, c.Type, back.Type)
	assert.True(t, c.Duration.Equal(back.Duration))
	assert.Equal(t, c.AssignedRoles, back.AssignedRoles)
	assert.Equal(t, c.Description, back.Description)
	assert.Equal(t, c.CustomFields, back.CustomFields)
}

func TestConfigFromPropertiesErrors(t *testing.T) {
	_, err := ConfigFromProperties([]Property{{Name: PropertyDuration, Value: "soon"}})
	assert.Error(t, err)

	_, err = ConfigFromProperties([]Property{{Name: PropertyCustomFields, Value: "{"}})
	assert.Error(t, err)

	c, err := ConfigFromProperties([]Property{{Name: "legacy", Value: "x"}, {Name: PropertyAssignedRoles, Value: ""}})
	assert.NoError(t, err)
	assert.Equal(t, []string{}, c.AssignedRoles)
}
