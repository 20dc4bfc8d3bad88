package valuation

import (
	"sort"
	"strings"
)

// IndustryGroup is the coarse industry classification the multiple table is keyed by.
type IndustryGroup string

const (
	GroupManufacturing    IndustryGroup = "MANUFACTURING"
	GroupITServices       IndustryGroup = "IT_SERVICES"
	GroupPlatformSoftware IndustryGroup = "PLATFORM_SOFTWARE"
	GroupDistribution     IndustryGroup = "DISTRIBUTION"
	GroupServices         IndustryGroup = "SERVICES"
	GroupOther            IndustryGroup = "OTHER"
)

// Groups lists every industry group in display order.
var Groups = []IndustryGroup{
	GroupManufacturing,
	GroupITServices,
	GroupPlatformSoftware,
	GroupDistribution,
	GroupServices,
	GroupOther,
}

var groupLabels = map[IndustryGroup]string{
	GroupManufacturing:    "제조업",
	GroupITServices:       "IT서비스",
	GroupPlatformSoftware: "플랫폼/SW",
	GroupDistribution:     "유통/도소매",
	GroupServices:         "서비스업",
	GroupOther:            "기타",
}

// Label returns the Korean display label of the group.
func (g IndustryGroup) Label() string {
	if label, ok := groupLabels[g]; ok {
		return label
	}
	return groupLabels[GroupOther]
}

// Valid reports whether g is one of the six defined groups.
func (g IndustryGroup) Valid() bool {
	_, ok := groupLabels[g]
	return ok
}

// ParseIndustryGroup accepts a group code ("MANUFACTURING", "manufacturing")
// or its Korean label ("제조업"). The second return is false for anything else.
func ParseIndustryGroup(value string) (IndustryGroup, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	candidate := IndustryGroup(strings.ToUpper(strings.ReplaceAll(trimmed, "-", "_")))
	if candidate.Valid() {
		return candidate, true
	}
	for group, label := range groupLabels {
		if label == trimmed {
			return group, true
		}
	}
	return "", false
}

// KSIC top-level section letters.
var sectionGroups = map[byte]IndustryGroup{
	'C': GroupManufacturing,
	'J': GroupITServices,
	'G': GroupDistribution,
	'H': GroupDistribution,
	'I': GroupServices,
	'M': GroupServices,
	'N': GroupServices,
	'P': GroupServices,
	'Q': GroupServices,
	'R': GroupServices,
	'S': GroupServices,
}

type codeOverride struct {
	prefix string
	group  IndustryGroup
}

// Sub-codes reclassified ahead of the section letter. Sorted longest prefix
// first at init so the most specific override wins.
var subCodeOverrides = []codeOverride{
	{prefix: "J582", group: GroupPlatformSoftware}, // software publishing
	{prefix: "J62", group: GroupPlatformSoftware},  // programming, system integration
	{prefix: "J631", group: GroupPlatformSoftware}, // data processing, hosting, portals
}

func init() {
	sort.SliceStable(subCodeOverrides, func(i, j int) bool {
		return len(subCodeOverrides[i].prefix) > len(subCodeOverrides[j].prefix)
	})
}

// MapToIndustryGroup resolves a KSIC-style code (e.g. "C29", "J62010") to an
// industry group. Unknown or empty codes resolve to GroupOther.
func MapToIndustryGroup(code string) IndustryGroup {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return GroupOther
	}

	for _, override := range subCodeOverrides {
		if strings.HasPrefix(normalized, override.prefix) {
			return override.group
		}
	}

	if group, ok := sectionGroups[normalized[0]]; ok {
		return group
	}
	return GroupOther
}

// resolveGroup prefers an explicit group over the coded taxonomy value.
func resolveGroup(p Profile) IndustryGroup {
	if p.IndustryGroup.Valid() {
		return p.IndustryGroup
	}
	return MapToIndustryGroup(p.IndustryCode)
}
