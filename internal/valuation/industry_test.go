package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapToIndustryGroup(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected IndustryGroup
	}{
		{"Manufacturing section", "C29", GroupManufacturing},
		{"Manufacturing full code", "C26410", GroupManufacturing},
		{"IT section", "J61", GroupITServices},
		{"Software publishing override", "J58221", GroupPlatformSoftware},
		{"Programming override", "J62010", GroupPlatformSoftware},
		{"Portal override", "J63120", GroupPlatformSoftware},
		{"Publishing without override", "J581", GroupITServices},
		{"Wholesale", "G46", GroupDistribution},
		{"Transport", "H49", GroupDistribution},
		{"Professional services", "M71", GroupServices},
		{"Lowercase and spaces", "  j62  ", GroupPlatformSoftware},
		{"Construction falls back", "F41", GroupOther},
		{"Unknown letter", "Z99", GroupOther},
		{"Digits only", "1234", GroupOther},
		{"Empty", "", GroupOther},
		{"Hangul", "제조", GroupOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapToIndustryGroup(tt.code)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestOverridesTakePrecedence(t *testing.T) {
	for _, override := range subCodeOverrides {
		section := sectionGroups[override.prefix[0]]
		assert.NotEqual(t, section, override.group, "override %s should differ from its section", override.prefix)
		assert.Equal(t, override.group, MapToIndustryGroup(override.prefix+"99"))
	}
}

func TestResolveGroupPrefersExplicitGroup(t *testing.T) {
	p := Profile{IndustryCode: "C29", IndustryGroup: GroupServices}
	assert.Equal(t, GroupServices, resolveGroup(p))

	p.IndustryGroup = "NOT_A_GROUP"
	assert.Equal(t, GroupManufacturing, resolveGroup(p))
}

func TestParseIndustryGroup(t *testing.T) {
	tests := []struct {
		input    string
		expected IndustryGroup
		ok       bool
	}{
		{"MANUFACTURING", GroupManufacturing, true},
		{"platform-software", GroupPlatformSoftware, true},
		{"제조업", GroupManufacturing, true},
		{"유통/도소매", GroupDistribution, true},
		{"mining", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseIndustryGroup(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMultipleTableIsCopied(t *testing.T) {
	table := DefaultMultiples()
	table[GroupManufacturing] = Triple{Low: 1, Median: 1, High: 1}
	assert.Equal(t, Triple{Low: 4.0, Median: 5.5, High: 7.0}, DefaultMultiples().Lookup(GroupManufacturing))
	assert.Equal(t, DefaultMultiples()[GroupOther], DefaultMultiples().Lookup("UNKNOWN"))
}
