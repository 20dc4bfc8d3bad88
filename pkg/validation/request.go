package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/datetime"
	"github.com/iwvelando/exit-valuation/pkg/mathutil"
)

// ErrInvalid is wrapped by every boundary validation failure.
var ErrInvalid = errors.New("invalid input")

// Limits enforced at the boundary.
const (
	MinDiscountRate    = 0.08
	MaxDiscountRate    = 0.20
	MinGrowthPct       = -100.0
	MaxGrowthPct       = 300.0
	MaxEquityScenarios = 10
	MinSalePct         = 1.0
	MaxSalePct         = 100.0
)

// AllowedLockInYears are the supported lock-in horizons.
var AllowedLockInYears = []int{1, 3, 5}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct runs the `validate` tags of v and reports every failing field by
// its JSON name.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "gte", "min":
		msg = "must be at least " + fe.Param()
	case "lte", "max":
		msg = "must be at most " + fe.Param()
	case "gt":
		msg = "must be greater than " + fe.Param()
	case "oneof":
		msg = "must be one of [" + fe.Param() + "]"
	case "unique":
		msg = "must not contain duplicates"
	default:
		msg = "failed the " + fe.Tag() + " check"
	}
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, msg)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// PayoutSum checks that upfront, escrow and earn-out shares sum to 100
// within the shared tolerance.
func PayoutSum(upfront, escrow, earnout float64) error {
	if !mathutil.SumsTo100(upfront, escrow, earnout) {
		return invalidf("payout structure must sum to 100%%, got %.4g%%", upfront+escrow+earnout)
	}
	return nil
}

// CapTableSum checks that founder, investor and option pool shares sum to 100.
func CapTableSum(founder, investor, optionPool float64) error {
	if !mathutil.SumsTo100(founder, investor, optionPool) {
		return invalidf("cap table must sum to 100%%, got %.4g%%", founder+investor+optionPool)
	}
	return nil
}

// LockInYears checks the horizon is one of AllowedLockInYears.
func LockInYears(years int) error {
	for _, y := range AllowedLockInYears {
		if years == y {
			return nil
		}
	}
	return invalidf("lock_in_years must be one of %v, got %d", AllowedLockInYears, years)
}

// EquityScenarios checks there are 1 to 10 distinct sale percentages in
// [1,100].
func EquityScenarios(pcts []float64) error {
	if len(pcts) == 0 || len(pcts) > MaxEquityScenarios {
		return invalidf("equity_scenarios must hold 1 to %d values, got %d", MaxEquityScenarios, len(pcts))
	}
	seen := make(map[float64]bool, len(pcts))
	var errs []error
	for _, p := range pcts {
		if p < MinSalePct || p > MaxSalePct {
			errs = append(errs, invalidf("equity sale percentage %v is outside [%v, %v]", p, MinSalePct, MaxSalePct))
		}
		if seen[p] {
			errs = append(errs, invalidf("equity sale percentage %v is repeated", p))
		}
		seen[p] = true
	}
	return errors.Join(errs...)
}

// DiscountRate checks the rate is a fraction in [0.08, 0.20].
func DiscountRate(rate float64) error {
	if rate < MinDiscountRate-1e-12 || rate > MaxDiscountRate+1e-12 {
		return invalidf("discount_rate must be in [%v, %v], got %v", MinDiscountRate, MaxDiscountRate, rate)
	}
	return nil
}

// Probability checks p is a fraction in [0,1].
func Probability(name string, p float64) error {
	if p < 0 || p > 1 {
		return invalidf("%s must be in [0, 1], got %v", name, p)
	}
	return nil
}

// Percent checks v is in [0,100].
func Percent(name string, v float64) error {
	if v < 0 || v > constants.PercentageMultiplier {
		return invalidf("%s must be in [0, 100], got %v", name, v)
	}
	return nil
}

// GrowthPct checks revenue growth is in [-100, 300].
func GrowthPct(g float64) error {
	if g < MinGrowthPct || g > MaxGrowthPct {
		return invalidf("revenue_growth_pct must be in [%v, %v], got %v", MinGrowthPct, MaxGrowthPct, g)
	}
	return nil
}

// FoundedYear rejects a founding year after currentYear. Zero means unknown
// and is accepted.
func FoundedYear(year, currentYear int) error {
	if year > currentYear {
		return invalidf("founded_year %d is in the future", year)
	}
	return nil
}

// NonNegative rejects negative money amounts.
func NonNegative(name string, v int64) error {
	if v < 0 {
		return invalidf("%s must not be negative, got %d", name, v)
	}
	return nil
}

// Month checks an optional "YYYY-MM" value.
func Month(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := datetime.ParseMonth(value); err != nil {
		return invalidf("%s: %v", name, err)
	}
	return nil
}

// ScheduleYear checks a custom schedule item lands within the lock-in.
func ScheduleYear(name string, year, lockIn int) error {
	if year < 1 || year > lockIn {
		return invalidf("%s year %d must be within 1..%d", name, year, lockIn)
	}
	return nil
}
