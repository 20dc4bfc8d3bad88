package cashflow

import (
	"strings"
	"testing"

	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func referenceInput() Input {
	return Input{
		EquityValueBasis: 10000000000,
		LockInYears:      3,
		EquityScenarios:  []float64{100},
		Payout:           PayoutStructure{UpfrontPct: 50, EscrowPct: 30, EarnoutPct: 20},
		DiscountRate:     0.12,
		Escrow:           ScheduleConfig{Type: ScheduleLumpSumEnd, Probability: ptr(0.9)},
		Earnout:          ScheduleConfig{Type: ScheduleEqualAnnual, Probability: ptr(0.6)},
	}
}

func TestSimulateReferenceScenario(t *testing.T) {
	res := Simulate(referenceInput())

	require.Len(t, res.Scenarios, 1)
	sc := res.Scenarios[0]
	assert.Equal(t, int64(10000000000), sc.TotalProceeds)

	assert.Equal(t, []int64{5000000000, 0, 0, 0}, sc.Guaranteed.Cashflows)
	assert.Equal(t, []int64{5000000000, 400000000, 400000000, 3100000000}, sc.Expected.Cashflows)
	assert.Equal(t, []int64{5000000000, 666666667, 666666667, 3666666666}, sc.Best.Cashflows)

	assert.Equal(t, int64(5000000000), sc.Guaranteed.TotalNominal)
	assert.Equal(t, int64(8900000000), sc.Expected.TotalNominal)
	assert.Equal(t, int64(10000000000), sc.Best.TotalNominal)

	assert.Equal(t, int64(5000000000), sc.Guaranteed.PresentValue)
	assert.InDelta(t, 7882539176, sc.Expected.PresentValue, 1)
	assert.InDelta(t, 8736561589, sc.Best.PresentValue, 1)

	assert.Equal(t, int64(5000000000), sc.Expected.Immediate)
	assert.Equal(t, int64(3100000000), sc.Expected.FinalYear)
	assert.InDelta(t, 1.0, sc.Guaranteed.PVRatio, 1e-9)
	assert.Empty(t, sc.Warnings)

	assert.Empty(t, res.Warnings)
	assert.Contains(t, res.Explanation, "3-year lock-in")
	require.Len(t, res.EscrowSchedule, 1)
	assert.Equal(t, 3, res.EscrowSchedule[0].Year)
	assert.Len(t, res.EarnoutSchedule, 3)
}

func TestCashflowSumsAndCaseOrdering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"Reference", func(*Input) {}},
		{"Partial sales", func(in *Input) { in.EquityScenarios = []float64{1, 33.3, 51, 77, 100} }},
		{"One year lock-in", func(in *Input) { in.LockInYears = 1 }},
		{"Five year equal escrow", func(in *Input) {
			in.LockInYears = 5
			in.Escrow = ScheduleConfig{Type: ScheduleEqualAnnual}
		}},
		{"All upfront", func(in *Input) {
			in.Payout = PayoutStructure{UpfrontPct: 100}
		}},
		{"Custom earn-out", func(in *Input) {
			in.Earnout = ScheduleConfig{Type: ScheduleCustom, Items: []ScheduleItem{
				{Year: 1, PercentOfTotal: 5, Probability: ptr(0.8)},
				{Year: 2, PercentOfTotal: 5, Probability: ptr(0.5)},
				{Year: 3, PercentOfTotal: 10, Probability: ptr(0.3)},
			}}
		}},
		{"Odd basis", func(in *Input) { in.EquityValueBasis = 1234567891 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := referenceInput()
			tt.mutate(&in)
			res := Simulate(in)

			for _, sc := range res.Scenarios {
				for _, c := range []Case{sc.Guaranteed, sc.Expected, sc.Best} {
					require.Len(t, c.Cashflows, in.LockInYears+1)
					var sum int64
					for _, cf := range c.Cashflows {
						sum += cf
					}
					assert.Equal(t, sum, c.TotalNominal)
				}
				assert.LessOrEqual(t, sc.Guaranteed.TotalNominal, sc.Expected.TotalNominal)
				assert.LessOrEqual(t, sc.Expected.TotalNominal, sc.Best.TotalNominal)
				assert.LessOrEqual(t, sc.Guaranteed.PresentValue, sc.Expected.PresentValue)
				assert.LessOrEqual(t, sc.Expected.PresentValue, sc.Best.PresentValue)
				assert.Empty(t, sc.Warnings)
			}
		})
	}
}

func TestBestCaseMatchesProceedsForBuiltInSchedules(t *testing.T) {
	in := referenceInput()
	in.EquityValueBasis = 7777777777
	in.EquityScenarios = []float64{33, 100}
	in.LockInYears = 5
	in.Escrow = ScheduleConfig{Type: ScheduleEqualAnnual}

	for _, sc := range Simulate(in).Scenarios {
		assert.Equal(t, sc.TotalProceeds, sc.Best.TotalNominal, "sale %v%%", sc.EquitySalePct)
	}
}

func TestPresentValueDecreasesWithRate(t *testing.T) {
	flows := [][]int64{
		{0, 100},
		{5000000000, 400000000, 400000000, 3100000000},
		{1, 0, 0, 0, 0, 999999999},
	}
	rates := []float64{0.08, 0.10, 0.12, 0.15, 0.20}

	for _, cf := range flows {
		prev := PresentValue(cf, rates[0])
		for _, r := range rates[1:] {
			pv := PresentValue(cf, r)
			assert.Less(t, pv, prev, "rate %v for %v", r, cf)
			prev = pv
		}
	}

	assert.Equal(t, int64(7688583874), PresentValue(flows[1], 0.15))
	assert.Equal(t, int64(42), PresentValue([]int64{42, 0, 0}, 0.2))
}

func TestGlobalWarnings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Input)
		contains string
	}{
		{"High discount rate", func(in *Input) { in.DiscountRate = 0.18 }, "discount rate"},
		{"Low upfront", func(in *Input) { in.Payout = PayoutStructure{UpfrontPct: 20, EscrowPct: 40, EarnoutPct: 40} }, "upfront share"},
		{"Low escrow probability", func(in *Input) { in.Escrow.Probability = ptr(0.5) }, "escrow release probability"},
		{"Custom schedule mismatch", func(in *Input) {
			in.Earnout = ScheduleConfig{Type: ScheduleCustom, Items: []ScheduleItem{{Year: 2, PercentOfTotal: 15}}}
		}, "earn-out schedule items total 15.00%"},
		{"Custom item outside lock-in", func(in *Input) {
			in.Earnout = ScheduleConfig{Type: ScheduleCustom, Items: []ScheduleItem{
				{Year: 1, PercentOfTotal: 10},
				{Year: 4, PercentOfTotal: 10},
			}}
		}, "outside the 3-year lock-in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := referenceInput()
			tt.mutate(&in)
			res := Simulate(in)
			require.NotEmpty(t, res.Warnings)
			found := false
			for _, w := range res.Warnings {
				if strings.Contains(w, tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "warnings %v should mention %q", res.Warnings, tt.contains)
			assert.Contains(t, res.Explanation, "Risk flags")
		})
	}
}

func TestCustomScheduleUsesDefaultProbability(t *testing.T) {
	in := referenceInput()
	in.Earnout = ScheduleConfig{Type: ScheduleCustom, Items: []ScheduleItem{{Year: 2, PercentOfTotal: 20}}}

	sim, err := NewSimulator(Assumptions{EarnoutProbability: 0.5})
	require.NoError(t, err)
	res := sim.Simulate(in)

	require.Len(t, res.EarnoutSchedule, 1)
	assert.InDelta(t, 0.5, res.EarnoutSchedule[0].Probability, 1e-12)
	assert.Equal(t, int64(1000000000), res.Scenarios[0].Expected.Cashflows[2])
	assert.Equal(t, int64(2000000000), res.Scenarios[0].Best.Cashflows[2])
}

func TestProbabilityAboveOneRaisesOrderingWarning(t *testing.T) {
	in := referenceInput()
	in.Earnout = ScheduleConfig{Type: ScheduleCustom, Items: []ScheduleItem{
		{Year: 1, PercentOfTotal: 20, Probability: ptr(1.5)},
	}}

	sc := Simulate(in).Scenarios[0]
	assert.Greater(t, sc.Expected.PresentValue, sc.Best.PresentValue)
	require.Len(t, sc.Warnings, 1)
	assert.Contains(t, sc.Warnings[0], "exceeds best-case PV")
}

func TestDefaultProbabilities(t *testing.T) {
	in := referenceInput()
	in.Escrow.Probability = nil
	in.Earnout.Probability = nil

	res := Simulate(in)
	assert.InDelta(t, DefaultEscrowProbability, res.EscrowSchedule[0].Probability, 1e-12)
	assert.InDelta(t, DefaultEarnoutProbability, res.EarnoutSchedule[0].Probability, 1e-12)
}

func TestNewSimulatorRejectsBadAssumptions(t *testing.T) {
	_, err := NewSimulator(Assumptions{EscrowProbability: 1.2})
	assert.Error(t, err)
}

func TestBasisFromValuation(t *testing.T) {
	v := valuation.Result{Evaluable: true, EquityValue: valuation.Range{Low: 4000000000, High: 5000000000}}

	tests := []struct {
		basis    Basis
		expected int64
	}{
		{BasisLow, 4000000000},
		{BasisMedian, 4500000000},
		{"", 4500000000},
		{BasisHigh, 5000000000},
	}
	for _, tt := range tests {
		got, err := BasisFromValuation(v, tt.basis)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := BasisFromValuation(v, "mode")
	assert.Error(t, err)

	_, err = BasisFromValuation(valuation.Result{}, BasisMedian)
	assert.ErrorIs(t, err, ErrNotEvaluable)
}
