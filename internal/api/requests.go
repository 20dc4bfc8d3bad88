// Package api holds the snake_case wire types of the HTTP API and CLI request
// files, and the single mapping layer between them and the engine types.
package api

import (
	"errors"
	"fmt"

	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/iwvelando/exit-valuation/pkg/validation"
)

// ProfileRequest is the financial profile of the company being valued.
type ProfileRequest struct {
	IndustryCode     string  `json:"industry_code,omitempty" yaml:"industry_code,omitempty" mapstructure:"industry_code"`
	IndustryGroup    string  `json:"industry_group,omitempty" yaml:"industry_group,omitempty" mapstructure:"industry_group"`
	FoundedYear      int     `json:"founded_year" yaml:"founded_year" mapstructure:"founded_year" validate:"gte=0"`
	EmployeeBand     string  `json:"employee_band" yaml:"employee_band" mapstructure:"employee_band" validate:"required"`
	Revenue          int64   `json:"revenue" yaml:"revenue" mapstructure:"revenue" validate:"gte=0"`
	EBITDA           int64   `json:"ebitda" yaml:"ebitda" mapstructure:"ebitda"`
	EBITDAType       string  `json:"ebitda_type,omitempty" yaml:"ebitda_type,omitempty" mapstructure:"ebitda_type" validate:"omitempty,oneof=ebitda operating_income"`
	NetIncome        int64   `json:"net_income" yaml:"net_income" mapstructure:"net_income"`
	RevenueGrowthPct float64 `json:"revenue_growth_pct" yaml:"revenue_growth_pct" mapstructure:"revenue_growth_pct"`
	TotalDebt        int64   `json:"total_debt" yaml:"total_debt" mapstructure:"total_debt" validate:"gte=0"`
	Cash             int64   `json:"cash" yaml:"cash" mapstructure:"cash" validate:"gte=0"`
	AsOfYear         int     `json:"as_of_year,omitempty" yaml:"as_of_year,omitempty" mapstructure:"as_of_year" validate:"gte=0"`
}

// Validate checks the profile. currentYear bounds the founding year when
// AsOfYear is not set.
func (r ProfileRequest) Validate(currentYear int) error {
	errs := []error{validation.Struct(r)}
	if r.AsOfYear > 0 {
		currentYear = r.AsOfYear
	}
	errs = append(errs,
		validation.FoundedYear(r.FoundedYear, currentYear),
		validation.GrowthPct(r.RevenueGrowthPct),
	)
	if r.IndustryGroup != "" {
		if _, ok := valuation.ParseIndustryGroup(r.IndustryGroup); !ok {
			errs = append(errs, fmt.Errorf("%w: industry_group %q is not a known group", validation.ErrInvalid, r.IndustryGroup))
		}
	}
	if r.EmployeeBand != "" {
		if _, ok := valuation.ParseEmployeeBand(r.EmployeeBand); !ok {
			errs = append(errs, fmt.Errorf("%w: employee_band %q must be one of 1-9, 10-49, 50-99, 100+", validation.ErrInvalid, r.EmployeeBand))
		}
	}
	return errors.Join(errs...)
}

// ToProfile maps the request to the engine profile. Call Validate first.
func (r ProfileRequest) ToProfile() valuation.Profile {
	group, _ := valuation.ParseIndustryGroup(r.IndustryGroup)
	band, _ := valuation.ParseEmployeeBand(r.EmployeeBand)
	return valuation.Profile{
		IndustryCode:     r.IndustryCode,
		IndustryGroup:    group,
		FoundedYear:      r.FoundedYear,
		EmployeeBand:     band,
		Revenue:          r.Revenue,
		EBITDA:           r.EBITDA,
		EBITDAType:       valuation.EBITDAType(r.EBITDAType),
		NetIncome:        r.NetIncome,
		RevenueGrowthPct: r.RevenueGrowthPct,
		TotalDebt:        r.TotalDebt,
		Cash:             r.Cash,
		AsOfYear:         r.AsOfYear,
	}
}

// ScheduleItemRequest is one custom schedule payment.
type ScheduleItemRequest struct {
	Year           int      `json:"year" yaml:"year" mapstructure:"year" validate:"gte=1"`
	PercentOfTotal float64  `json:"percent_of_total" yaml:"percent_of_total" mapstructure:"percent_of_total" validate:"gte=0,lte=100"`
	Probability    *float64 `json:"probability,omitempty" yaml:"probability,omitempty" mapstructure:"probability" validate:"omitempty,gte=0,lte=1"`
}

// ScheduleRequest configures the escrow or earn-out schedule.
type ScheduleRequest struct {
	Type        string                `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type" validate:"omitempty,oneof=lump_sum_end equal_annual custom"`
	Probability *float64              `json:"probability,omitempty" yaml:"probability,omitempty" mapstructure:"probability" validate:"omitempty,gte=0,lte=1"`
	Items       []ScheduleItemRequest `json:"items,omitempty" yaml:"items,omitempty" mapstructure:"items" validate:"dive"`
}

// PayoutRequest is the upfront/escrow/earn-out split in percent.
type PayoutRequest struct {
	UpfrontPct float64 `json:"upfront_pct" yaml:"upfront_pct" mapstructure:"upfront_pct" validate:"gte=0,lte=100"`
	EscrowPct  float64 `json:"escrow_pct" yaml:"escrow_pct" mapstructure:"escrow_pct" validate:"gte=0,lte=100"`
	EarnoutPct float64 `json:"earnout_pct" yaml:"earnout_pct" mapstructure:"earnout_pct" validate:"gte=0,lte=100"`
}

// CashflowRequest drives the cashflow simulator. EquityValueBasis is
// ignored when the basis is taken from a valuation.
type CashflowRequest struct {
	EquityValueBasis int64           `json:"equity_value_basis,omitempty" yaml:"equity_value_basis,omitempty" mapstructure:"equity_value_basis" validate:"gte=0"`
	LockInYears      int             `json:"lock_in_years" yaml:"lock_in_years" mapstructure:"lock_in_years"`
	EquityScenarios  []float64       `json:"equity_scenarios" yaml:"equity_scenarios" mapstructure:"equity_scenarios"`
	Payout           PayoutRequest   `json:"payout" yaml:"payout" mapstructure:"payout"`
	DiscountRate     float64         `json:"discount_rate" yaml:"discount_rate" mapstructure:"discount_rate"`
	Escrow           ScheduleRequest `json:"escrow" yaml:"escrow" mapstructure:"escrow"`
	Earnout          ScheduleRequest `json:"earnout" yaml:"earnout" mapstructure:"earnout"`
}

// Validate runs the tag checks and the cross-field rules.
func (r CashflowRequest) Validate() error {
	errs := []error{
		validation.Struct(r),
		validation.LockInYears(r.LockInYears),
		validation.EquityScenarios(r.EquityScenarios),
		validation.PayoutSum(r.Payout.UpfrontPct, r.Payout.EscrowPct, r.Payout.EarnoutPct),
		validation.DiscountRate(r.DiscountRate),
	}
	for name, s := range map[string]ScheduleRequest{"escrow": r.Escrow, "earnout": r.Earnout} {
		for _, item := range s.Items {
			errs = append(errs, validation.ScheduleYear(name, item.Year, r.LockInYears))
		}
	}
	return errors.Join(errs...)
}

// ToInput maps the request to the simulator input with the given basis.
func (r CashflowRequest) ToInput(basis int64) cashflow.Input {
	return cashflow.Input{
		EquityValueBasis: basis,
		LockInYears:      r.LockInYears,
		EquityScenarios:  append([]float64(nil), r.EquityScenarios...),
		Payout: cashflow.PayoutStructure{
			UpfrontPct: r.Payout.UpfrontPct,
			EscrowPct:  r.Payout.EscrowPct,
			EarnoutPct: r.Payout.EarnoutPct,
		},
		DiscountRate: r.DiscountRate,
		Escrow:       r.Escrow.toSchedule(cashflow.ScheduleLumpSumEnd),
		Earnout:      r.Earnout.toSchedule(cashflow.ScheduleEqualAnnual),
	}
}

func (s ScheduleRequest) toSchedule(fallback cashflow.ScheduleType) cashflow.ScheduleConfig {
	cfg := cashflow.ScheduleConfig{Type: cashflow.ScheduleType(s.Type), Probability: s.Probability}
	if !cfg.Type.Valid() {
		cfg.Type = fallback
	}
	for _, item := range s.Items {
		cfg.Items = append(cfg.Items, cashflow.ScheduleItem{
			Year:           item.Year,
			PercentOfTotal: item.PercentOfTotal,
			Probability:    item.Probability,
		})
	}
	return cfg
}

// CapTableRequest is the ownership split in percent.
type CapTableRequest struct {
	FounderShare  float64 `json:"founder_share" yaml:"founder_share" mapstructure:"founder_share" validate:"gte=0,lte=100"`
	InvestorShare float64 `json:"investor_share" yaml:"investor_share" mapstructure:"investor_share" validate:"gte=0,lte=100"`
	OptionPool    float64 `json:"option_pool" yaml:"option_pool" mapstructure:"option_pool" validate:"gte=0,lte=100"`
}

// CostsRequest holds the deal cost assumptions in percent.
type CostsRequest struct {
	EscrowPct             *float64 `json:"escrow_pct,omitempty" yaml:"escrow_pct,omitempty" mapstructure:"escrow_pct" validate:"omitempty,gte=0,lte=100"`
	EarnoutProbabilityPct *float64 `json:"earnout_probability_pct,omitempty" yaml:"earnout_probability_pct,omitempty" mapstructure:"earnout_probability_pct" validate:"omitempty,gte=0,lte=100"`
	AdvisoryFeeRatePct    float64  `json:"advisory_fee_rate_pct" yaml:"advisory_fee_rate_pct" mapstructure:"advisory_fee_rate_pct" validate:"gte=0,lte=100"`
	TaxRatePct            float64  `json:"tax_rate_pct" yaml:"tax_rate_pct" mapstructure:"tax_rate_pct" validate:"gte=0,lte=100"`
	TaxEnabled            bool     `json:"tax_enabled" yaml:"tax_enabled" mapstructure:"tax_enabled"`
}

// DealRequest drives the deal-structure generator. The equity range is
// ignored when it is taken from a valuation.
type DealRequest struct {
	EquityLow             int64           `json:"equity_low,omitempty" yaml:"equity_low,omitempty" mapstructure:"equity_low" validate:"gte=0"`
	EquityHigh            int64           `json:"equity_high,omitempty" yaml:"equity_high,omitempty" mapstructure:"equity_high" validate:"gte=0"`
	EquityMedian          *int64          `json:"equity_median,omitempty" yaml:"equity_median,omitempty" mapstructure:"equity_median" validate:"omitempty,gte=0"`
	CapTable              CapTableRequest `json:"cap_table" yaml:"cap_table" mapstructure:"cap_table"`
	HopeToSell            string          `json:"hope_to_sell" yaml:"hope_to_sell" mapstructure:"hope_to_sell"`
	ExpectedExitDate      string          `json:"expected_exit_date,omitempty" yaml:"expected_exit_date,omitempty" mapstructure:"expected_exit_date"`
	AsOf                  string          `json:"as_of,omitempty" yaml:"as_of,omitempty" mapstructure:"as_of"`
	SecondarySaleRatioPct float64         `json:"secondary_sale_ratio_pct" yaml:"secondary_sale_ratio_pct" mapstructure:"secondary_sale_ratio_pct" validate:"gte=0,lte=100"`
	IssueNewShares        bool            `json:"issue_new_shares" yaml:"issue_new_shares" mapstructure:"issue_new_shares"`
	RevenueGrowthPct      float64         `json:"revenue_growth_pct" yaml:"revenue_growth_pct" mapstructure:"revenue_growth_pct"`
	EBITDATrend3Y         string          `json:"ebitda_trend_3y,omitempty" yaml:"ebitda_trend_3y,omitempty" mapstructure:"ebitda_trend_3y"`
	CompanyProfile        string          `json:"company_profile,omitempty" yaml:"company_profile,omitempty" mapstructure:"company_profile"`
	Costs                 CostsRequest    `json:"costs" yaml:"costs" mapstructure:"costs"`
}

// Validate runs the tag checks and the cross-field rules.
func (r DealRequest) Validate() error {
	errs := []error{
		validation.Struct(r),
		validation.CapTableSum(r.CapTable.FounderShare, r.CapTable.InvestorShare, r.CapTable.OptionPool),
		validation.Month("expected_exit_date", r.ExpectedExitDate),
		validation.Month("as_of", r.AsOf),
	}
	if r.HopeToSell != "" {
		if _, ok := deal.ParseSaleIntent(r.HopeToSell); !ok {
			errs = append(errs, fmt.Errorf("%w: hope_to_sell %q must be full/partial (전체/일부)", validation.ErrInvalid, r.HopeToSell))
		}
	}
	if r.EBITDATrend3Y != "" {
		if _, ok := deal.ParseEBITDATrend(r.EBITDATrend3Y); !ok {
			errs = append(errs, fmt.Errorf("%w: ebitda_trend_3y %q must be rising, flat or volatile", validation.ErrInvalid, r.EBITDATrend3Y))
		}
	}
	return errors.Join(errs...)
}

// ToInput maps the request to the generator input over the given equity
// range. median may be nil.
func (r DealRequest) ToInput(low, high int64, median *int64) deal.Input {
	intent, _ := deal.ParseSaleIntent(r.HopeToSell)
	trend, _ := deal.ParseEBITDATrend(r.EBITDATrend3Y)
	return deal.Input{
		EquityLow:    low,
		EquityHigh:   high,
		EquityMedian: median,
		CapTable: deal.CapTable{
			FounderShare:  r.CapTable.FounderShare,
			InvestorShare: r.CapTable.InvestorShare,
			OptionPool:    r.CapTable.OptionPool,
		},
		SaleIntent:            intent,
		ExpectedExit:          r.ExpectedExitDate,
		AsOf:                  r.AsOf,
		SecondarySaleRatioPct: r.SecondarySaleRatioPct,
		IssueNewShares:        r.IssueNewShares,
		RevenueGrowthPct:      r.RevenueGrowthPct,
		EBITDATrend:           trend,
		CompanyProfile:        r.CompanyProfile,
		Costs: deal.Costs{
			EscrowPct:             r.Costs.EscrowPct,
			EarnoutProbabilityPct: r.Costs.EarnoutProbabilityPct,
			AdvisoryFeeRatePct:    r.Costs.AdvisoryFeeRatePct,
			TaxRatePct:            r.Costs.TaxRatePct,
			TaxEnabled:            r.Costs.TaxEnabled,
		},
	}
}

// EvaluateRequest runs the full pipeline: the valuation feeds the equity
// basis of the cashflow simulation and the equity range of the deals.
type EvaluateRequest struct {
	Profile  ProfileRequest   `json:"profile" yaml:"profile" mapstructure:"profile"`
	Basis    string           `json:"basis,omitempty" yaml:"basis,omitempty" mapstructure:"basis" validate:"omitempty,oneof=low median high"`
	Cashflow *CashflowRequest `json:"cashflow,omitempty" yaml:"cashflow,omitempty" mapstructure:"cashflow"`
	Deals    *DealRequest     `json:"deals,omitempty" yaml:"deals,omitempty" mapstructure:"deals"`
}

// Validate validates every present section.
func (r EvaluateRequest) Validate(currentYear int) error {
	errs := []error{r.Profile.Validate(currentYear)}
	if r.Basis != "" {
		switch cashflow.Basis(r.Basis) {
		case cashflow.BasisLow, cashflow.BasisMedian, cashflow.BasisHigh:
		default:
			errs = append(errs, fmt.Errorf("%w: basis %q must be low, median or high", validation.ErrInvalid, r.Basis))
		}
	}
	if r.Cashflow != nil {
		errs = append(errs, r.Cashflow.Validate())
	}
	if r.Deals != nil {
		errs = append(errs, r.Deals.Validate())
	}
	return errors.Join(errs...)
}
