package crime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		label    string
		expected Category
	}{
		{"Break and Enter Commercial", CategoryCommercial},
		{"Break and Enter Residential/Other", CategoryResidential},
		{"Theft of Vehicle", CategoryTheft},
		{"Theft of Bicycle", CategoryTheft},
		{"Other Theft", CategoryTheft},
		{"Theft from Vehicle", CategoryVehicle},
		{"Homicide", CategoryPerson},
		{"Assault with a Weapon", CategoryPerson},
		{"Domestic Violence", CategoryPerson},
		{"Mischief", CategoryMischief},
		{"Offence Against a Person", CategoryOther},
		{"Vehicle Collision or Pedestrian Struck (with Injury)", CategoryOther},
		{"", CategoryOther},
		{"other theft", CategoryOther},
		{"Other Theft ", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.label))
		})
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// Matches both the person rule (Violence) and the mischief rule.
	assert.Equal(t, CategoryPerson, Categorize("Mischief with Violence"))
	// Prefix rules take priority over the contains rules further down.
	assert.Equal(t, CategoryCommercial, Categorize("Break and Enter Commercial Mischief"))
}

func TestCategorize_Total(t *testing.T) {
	inputs := []string{"", " ", "\x00", "???", "Break and Enter", "Theft", "ASSAULT"}
	for _, in := range inputs {
		c := Categorize(in)
		assert.Contains(t, Categories, c, "input %q", in)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Theft")
	require.NoError(t, err)
	assert.Equal(t, CategoryTheft, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	c, err = ParseCategory(" ALL ")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	_, err = ParseCategory("arson")
	assert.Error(t, err)
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryAll.Valid())
	assert.True(t, CategoryMischief.Valid())
	assert.False(t, Category("arson").Valid())
}
