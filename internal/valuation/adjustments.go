package valuation

import "strings"

// EmployeeBand is the headcount bracket of a company.
type EmployeeBand string

const (
	Employees1To9    EmployeeBand = "1-9"
	Employees10To49  EmployeeBand = "10-49"
	Employees50To99  EmployeeBand = "50-99"
	Employees100Plus EmployeeBand = "100+"
)

var bandFloor = map[EmployeeBand]float64{
	Employees1To9:    1,
	Employees10To49:  10,
	Employees50To99:  50,
	Employees100Plus: 100,
}

// ParseEmployeeBand accepts the canonical labels and a few common spellings.
func ParseEmployeeBand(value string) (EmployeeBand, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	v = strings.ReplaceAll(v, "~", "-")
	v = strings.TrimSuffix(v, "명")
	switch v {
	case "1-9", "1-10":
		return Employees1To9, true
	case "10-49", "10-50":
		return Employees10To49, true
	case "50-99", "50-100":
		return Employees50To99, true
	case "100+", "100", "100명이상", "100이상":
		return Employees100Plus, true
	}
	return "", false
}

// Band is one row of an adjustment table: values at or above Threshold get
// Adjustment. Tables are evaluated top-down.
type Band struct {
	Threshold  float64
	Adjustment float64
	Label      string
}

// BandTable is an ordered list of bands plus the adjustment used when no
// band matches.
type BandTable struct {
	Bands    []Band
	Fallback Band
}

// Lookup returns the first band whose threshold value reaches.
func (t BandTable) Lookup(value float64) Band {
	for _, band := range t.Bands {
		if value >= band.Threshold {
			return band
		}
	}
	return t.Fallback
}

// GrowthBands keys on revenue growth in percent.
var GrowthBands = BandTable{
	Bands: []Band{
		{Threshold: 15, Adjustment: 0.15, Label: "very high growth"},
		{Threshold: 10, Adjustment: 0.10, Label: "high growth"},
		{Threshold: 5, Adjustment: 0.05, Label: "moderate growth"},
		{Threshold: 0, Adjustment: 0, Label: "flat growth"},
	},
	Fallback: Band{Adjustment: -0.10, Label: "negative growth"},
}

// SizeBands keys on the lower bound of the employee band.
var SizeBands = BandTable{
	Bands: []Band{
		{Threshold: 100, Adjustment: 0, Label: "100+ employees"},
		{Threshold: 50, Adjustment: -0.05, Label: "50-99 employees"},
		{Threshold: 10, Adjustment: -0.10, Label: "10-49 employees"},
	},
	Fallback: Band{Adjustment: -0.15, Label: "fewer than 10 employees"},
}

// AgeBands keys on company age in years.
var AgeBands = BandTable{
	Bands: []Band{
		{Threshold: 10, Adjustment: 0, Label: "mature (10+ years)"},
		{Threshold: 5, Adjustment: -0.05, Label: "established (5-9 years)"},
		{Threshold: 3, Adjustment: -0.10, Label: "young (3-4 years)"},
	},
	Fallback: Band{Adjustment: -0.15, Label: "early stage (under 3 years)"},
}

// Adjustments holds the three multiplicative adjustments and their product.
type Adjustments struct {
	Growth          float64 `json:"growth" yaml:"growth"`
	GrowthLabel     string  `json:"growthLabel" yaml:"growthLabel"`
	Size            float64 `json:"size" yaml:"size"`
	SizeLabel       string  `json:"sizeLabel" yaml:"sizeLabel"`
	Age             float64 `json:"age" yaml:"age"`
	AgeLabel        string  `json:"ageLabel" yaml:"ageLabel"`
	TotalMultiplier float64 `json:"totalMultiplier" yaml:"totalMultiplier"`
}

func computeAdjustments(p Profile, valuationYear int) Adjustments {
	growth := GrowthBands.Lookup(p.RevenueGrowthPct)
	size := SizeBands.Lookup(bandFloor[p.EmployeeBand])

	var age Band
	if p.FoundedYear <= 0 {
		age = AgeBands.Fallback
	} else {
		age = AgeBands.Lookup(float64(valuationYear - p.FoundedYear))
	}

	total := (1 + growth.Adjustment) * (1 + size.Adjustment) * (1 + age.Adjustment)
	return Adjustments{
		Growth:          growth.Adjustment,
		GrowthLabel:     growth.Label,
		Size:            size.Adjustment,
		SizeLabel:       size.Label,
		Age:             age.Adjustment,
		AgeLabel:        age.Label,
		TotalMultiplier: roundFactor(total),
	}
}
