package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTable_Gating(t *testing.T) {
	plans := NewPlanTable([]string{"Companion", "devoted"}, []string{"devoted"})

	assert.True(t, plans.AllowsRomantic("companion"))
	assert.True(t, plans.AllowsRomantic(" Devoted "))
	assert.False(t, plans.AllowsRomantic("basic"))
	assert.False(t, plans.AllowsRomantic(""))

	assert.True(t, plans.AllowsIntimate("devoted"))
	assert.False(t, plans.AllowsIntimate("companion"))
}

func TestPlanTable_EmptyListDisablesGating(t *testing.T) {
	plans := NewPlanTable(nil, nil)

	assert.True(t, plans.AllowsRomantic(""))
	assert.True(t, plans.AllowsRomantic("anything"))
	assert.True(t, plans.AllowsIntimate("anything"))
}
