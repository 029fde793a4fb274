package award

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	m := New(nil)

	plant, ok := m.Lookup("plant")
	require.True(t, ok)
	assert.Equal(t, Award{Points: 10, CO2: 5}, plant)

	clean, ok := m.Lookup("clean")
	require.True(t, ok)
	assert.Equal(t, Award{Points: 8, CO2: 2}, clean)

	awareness, ok := m.Lookup("awareness")
	require.True(t, ok)
	assert.Equal(t, Award{Points: 5, CO2: 1}, awareness)

	assert.Equal(t, []string{"awareness", "clean", "plant"}, m.Actions())
}

func TestLookupIgnoresCase(t *testing.T) {
	m := New(nil)

	upper, ok := m.Lookup("PLANT")
	require.True(t, ok)
	mixed, ok := m.Lookup("Plant")
	require.True(t, ok)
	assert.Equal(t, upper, mixed)
}

func TestUnknownActionYieldsZeroAward(t *testing.T) {
	m := New(nil)

	a, ok := m.Lookup("recycle")
	assert.False(t, ok)
	assert.Equal(t, Award{}, a)
}

func TestCustomTableLowercasesKeys(t *testing.T) {
	m := New(map[string]Award{"Compost": {Points: 3, CO2: 1}})

	a, ok := m.Lookup("compost")
	require.True(t, ok)
	assert.Equal(t, Award{Points: 3, CO2: 1}, a)

	_, ok = m.Lookup("plant")
	assert.False(t, ok)
}
