package valuation

import (
	"fmt"

	"github.com/iwvelando/exit-valuation/pkg/mathutil"
)

// Triple holds a low/median/high set of EV/EBITDA multiples.
type Triple struct {
	Low    float64 `json:"low" yaml:"low"`
	Median float64 `json:"median" yaml:"median"`
	High   float64 `json:"high" yaml:"high"`
}

func (t Triple) scale(f float64) Triple {
	return Triple{Low: t.Low * f, Median: t.Median * f, High: t.High * f}
}

func (t Triple) round() Triple {
	return Triple{Low: mathutil.Round4(t.Low), Median: mathutil.Round4(t.Median), High: mathutil.Round4(t.High)}
}

// MultipleTable maps each industry group to its EV/EBITDA triple.
type MultipleTable map[IndustryGroup]Triple

// defaultMultiples is compiled-in reference data; never mutated.
var defaultMultiples = MultipleTable{
	GroupManufacturing:    {Low: 4.0, Median: 5.5, High: 7.0},
	GroupITServices:       {Low: 6.0, Median: 8.0, High: 10.0},
	GroupPlatformSoftware: {Low: 8.0, Median: 11.0, High: 14.0},
	GroupDistribution:     {Low: 3.5, Median: 5.0, High: 6.5},
	GroupServices:         {Low: 4.0, Median: 6.0, High: 8.0},
	GroupOther:            {Low: 3.5, Median: 5.0, High: 6.5},
}

// DefaultMultiples returns a copy of the compiled-in multiple table.
func DefaultMultiples() MultipleTable {
	table := make(MultipleTable, len(defaultMultiples))
	for group, triple := range defaultMultiples {
		table[group] = triple
	}
	return table
}

// Lookup returns the triple for group, falling back to GroupOther.
func (m MultipleTable) Lookup(group IndustryGroup) Triple {
	if triple, ok := m[group]; ok {
		return triple
	}
	return m[GroupOther]
}

// Params holds the calibration constants of the relative valuation.
type Params struct {
	PeerMarkup          float64 `json:"peerMarkup" yaml:"peerMarkup" mapstructure:"peerMarkup"`
	IlliquidityDiscount float64 `json:"illiquidityDiscount" yaml:"illiquidityDiscount" mapstructure:"illiquidityDiscount"`
	IndustryWeight      float64 `json:"industryWeight" yaml:"industryWeight" mapstructure:"industryWeight"`
	PeerWeight          float64 `json:"peerWeight" yaml:"peerWeight" mapstructure:"peerWeight"`
	Spread              float64 `json:"spread" yaml:"spread" mapstructure:"spread"`
	WideSpread          float64 `json:"wideSpread" yaml:"wideSpread" mapstructure:"wideSpread"`
	// WideSpreadWarnings is how many non-fatal warnings widen the range.
	WideSpreadWarnings int `json:"wideSpreadWarnings" yaml:"wideSpreadWarnings" mapstructure:"wideSpreadWarnings"`
}

// DefaultParams returns the compiled-in calibration.
func DefaultParams() Params {
	return Params{
		PeerMarkup:          1.2,
		IlliquidityDiscount: 0.25,
		IndustryWeight:      0.7,
		PeerWeight:          0.3,
		Spread:              0.10,
		WideSpread:          0.15,
		WideSpreadWarnings:  2,
	}
}

// Normalize fills zero-valued fields from DefaultParams.
func (p *Params) Normalize() {
	if p == nil {
		return
	}
	d := DefaultParams()
	if p.PeerMarkup <= 0 {
		p.PeerMarkup = d.PeerMarkup
	}
	if p.IlliquidityDiscount <= 0 {
		p.IlliquidityDiscount = d.IlliquidityDiscount
	}
	if p.IndustryWeight <= 0 && p.PeerWeight <= 0 {
		p.IndustryWeight = d.IndustryWeight
		p.PeerWeight = d.PeerWeight
	}
	if p.Spread <= 0 {
		p.Spread = d.Spread
	}
	if p.WideSpread <= 0 {
		p.WideSpread = d.WideSpread
	}
	if p.WideSpreadWarnings <= 0 {
		p.WideSpreadWarnings = d.WideSpreadWarnings
	}
}

// Validate returns an error when the calibration is unusable.
func (p Params) Validate() error {
	if p.IlliquidityDiscount < 0 || p.IlliquidityDiscount >= 1 {
		return fmt.Errorf("illiquidity discount %.4f must be in [0, 1)", p.IlliquidityDiscount)
	}
	if p.PeerMarkup <= 0 {
		return fmt.Errorf("peer markup %.4f must be positive", p.PeerMarkup)
	}
	if p.IndustryWeight < 0 || p.PeerWeight < 0 {
		return fmt.Errorf("blend weights must not be negative")
	}
	if !mathutil.WithinTolerance(p.IndustryWeight+p.PeerWeight, 1, 1e-6) {
		return fmt.Errorf("industry weight %.4f and peer weight %.4f must sum to 1", p.IndustryWeight, p.PeerWeight)
	}
	if p.Spread <= 0 || p.Spread >= 1 {
		return fmt.Errorf("spread %.4f must be in (0, 1)", p.Spread)
	}
	if p.WideSpread < p.Spread || p.WideSpread >= 1 {
		return fmt.Errorf("wide spread %.4f must be in [spread, 1)", p.WideSpread)
	}
	return nil
}

// blend returns the discounted peer proxy and the final blended triple.
func blend(industry Triple, p Params) (peer Triple, final Triple) {
	peer = industry.scale(p.PeerMarkup * (1 - p.IlliquidityDiscount)).round()
	final = Triple{
		Low:    p.IndustryWeight*industry.Low + p.PeerWeight*peer.Low,
		Median: p.IndustryWeight*industry.Median + p.PeerWeight*peer.Median,
		High:   p.IndustryWeight*industry.High + p.PeerWeight*peer.High,
	}.round()
	return peer, final
}
