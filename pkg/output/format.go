// Package output renders evaluation results for the command line.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// ErrNoCashflow is returned by CsvFormat when the report holds no cashflow simulation.
var ErrNoCashflow = errors.New("csv output requires a cashflow simulation")

// Report is everything one CLI run produced. Sections that were not run are nil.
type Report struct {
	RunID     string                 `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Valuation *api.ValuationResponse `json:"valuation,omitempty" yaml:"valuation,omitempty"`
	Basis     string                 `json:"basis,omitempty" yaml:"basis,omitempty"`
	Cashflow  *api.CashflowResponse  `json:"cashflow,omitempty" yaml:"cashflow,omitempty"`
	Deals     *api.DealsResponse     `json:"deals,omitempty" yaml:"deals,omitempty"`
	Warnings  []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FromEvaluation builds a report from a full pipeline response.
func FromEvaluation(runID string, r api.EvaluateResponse) Report {
	v := r.Valuation
	return Report{
		RunID:     runID,
		Valuation: &v,
		Basis:     r.Basis,
		Cashflow:  r.Cashflow,
		Deals:     r.Deals,
		Warnings:  r.Warnings,
	}
}

// Write renders the report in the named format.
func Write(w io.Writer, outputFormat string, r Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		PrettyFormat(w, r)
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, r)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, r)
	case constants.OutputFormatCSV:
		return CsvFormat(w, r)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, r Report) {
	p := message.NewPrinter(language.English)
	if r.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run %s\n\n", r.RunID)
	}
	if r.Valuation != nil {
		prettyValuation(w, p, *r.Valuation)
	}
	if r.Cashflow != nil {
		prettyCashflow(w, p, r.Basis, *r.Cashflow)
	}
	if r.Deals != nil {
		prettyDeals(w, p, *r.Deals)
	}
	if len(r.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "--- Notes ---\n")
		for _, warning := range r.Warnings {
			_, _ = fmt.Fprintf(w, "  * %s\n", warning)
		}
	}
}

func prettyValuation(w io.Writer, p *message.Printer, v api.ValuationResponse) {
	_, _ = fmt.Fprintf(w, "--- Valuation (%s) ---\n", v.IndustryLabel)
	if !v.Evaluable {
		_, _ = fmt.Fprintf(w, "Not evaluable: %s\n", v.Explanation)
		prettyFindings(w, v.Warnings)
		_, _ = fmt.Fprintln(w)
		return
	}
	_, _ = p.Fprintf(w, "EBITDA (%s)      | %s\n", v.EBITDAType, format.Currency(v.EBITDA))
	_, _ = p.Fprintf(w, "Multiple          | %.2fx ~ %.2fx (median %.2fx)\n", v.FinalMultiple.Low, v.FinalMultiple.High, v.FinalMultiple.Median)
	_, _ = p.Fprintf(w, "Adjustments       | growth %+.0f%% (%s), size %+.0f%% (%s), age %+.0f%% (%s)\n",
		v.Adjustments.Growth*100, v.Adjustments.GrowthLabel,
		v.Adjustments.Size*100, v.Adjustments.SizeLabel,
		v.Adjustments.Age*100, v.Adjustments.AgeLabel)
	_, _ = fmt.Fprintf(w, "Enterprise value  | %s\n", v.EnterpriseValue.Display)
	_, _ = fmt.Fprintf(w, "Net debt          | %s\n", format.Currency(v.NetDebt))
	_, _ = fmt.Fprintf(w, "Equity value      | %s\n", v.EquityValue.Display)
	_, _ = fmt.Fprintf(w, "                  | %s\n", format.ShortRange(v.EquityValue.Low, v.EquityValue.High))
	_, _ = fmt.Fprintf(w, "%s\n", v.Explanation)
	prettyFindings(w, v.Warnings)
	_, _ = fmt.Fprintln(w)
}

func prettyFindings(w io.Writer, findings []api.WarningResponse) {
	for _, f := range findings {
		_, _ = fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(f.Severity), f.Code, f.Message)
	}
}

func prettyCashflow(w io.Writer, p *message.Printer, basis string, c api.CashflowResponse) {
	_, _ = fmt.Fprintf(w, "--- Cashflow (basis %s, %d-year lock-in, discount %s) ---\n",
		orDefault(basis, "input"), c.LockInYears, format.Percent(c.DiscountRate*100))
	_, _ = fmt.Fprintf(w, "Equity basis %s, payout %s upfront / %s escrow / %s earn-out\n",
		format.Currency(c.EquityValueBasis),
		format.Percent(c.Payout.UpfrontPct), format.Percent(c.Payout.EscrowPct), format.Percent(c.Payout.EarnoutPct))
	for _, s := range c.Scenarios {
		_, _ = fmt.Fprintf(w, "\nSale %s of equity, proceeds %s\n", format.Percent(s.EquitySalePct), format.Currency(s.TotalProceeds))
		_, _ = fmt.Fprintf(w, "Case       | Nominal             | Present value       | PV ratio\n")
		_, _ = fmt.Fprintf(w, "____       | ___________________ | ___________________ | ________\n")
		for _, row := range cases(s) {
			_, _ = p.Fprintf(w, "%-10s | %19s | %19s | %.4f\n", row.name,
				format.Currency(row.c.TotalNominal), format.Currency(row.c.PresentValue), row.c.PVRatio)
		}
		for _, warning := range s.Warnings {
			_, _ = fmt.Fprintf(w, "  * %s\n", warning)
		}
	}
	for _, warning := range c.Warnings {
		_, _ = fmt.Fprintf(w, "  * %s\n", warning)
	}
	if c.Explanation != "" {
		_, _ = fmt.Fprintf(w, "%s\n", c.Explanation)
	}
	_, _ = fmt.Fprintln(w)
}

func prettyDeals(w io.Writer, p *message.Printer, d api.DealsResponse) {
	_, _ = fmt.Fprintf(w, "--- Deal structures (%s) ---\n", format.ShortRange(d.EquityLow, d.EquityHigh))
	_, _ = fmt.Fprintf(w, "Rank | Code | Score | Total value         | Founder net         | Name\n")
	_, _ = fmt.Fprintf(w, "____ | ____ | _____ | ___________________ | ___________________ | ____\n")

	byCode := make(map[string]api.DealScenarioResponse, len(d.Scenarios))
	for _, s := range d.Scenarios {
		byCode[s.Code] = s
	}
	for i, code := range d.Ranking {
		s, ok := byCode[code]
		if !ok {
			continue
		}
		net := "n/a"
		if s.FounderNet != nil {
			net = format.Currency(s.FounderNet.NetExpected)
		}
		_, _ = p.Fprintf(w, "%4d | %-4s | %5d | %19s | %19s | %s\n", i+1, s.Code, s.Score.Total,
			format.Currency(s.Breakdown.Total), net, s.Name)
	}
	for _, s := range d.Scenarios {
		if !s.Eligible {
			_, _ = fmt.Fprintf(w, "  %s not eligible: %s\n", s.Code, strings.Join(s.EligibilityReasons, "; "))
		}
	}
	if len(d.Top3) > 0 {
		_, _ = fmt.Fprintf(w, "Top picks: %s\n", strings.Join(d.Top3, ", "))
	}
	for _, warning := range d.Warnings {
		_, _ = fmt.Fprintf(w, "  * %s\n", warning)
	}
	_, _ = fmt.Fprintln(w)
}

// CsvFormat outputs the per-year cashflows of every sale scenario and case
// in comma-separated value format.
func CsvFormat(w io.Writer, r Report) error {
	if r.Cashflow == nil {
		return ErrNoCashflow
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"equity_sale_pct", "case", "year", "cashflow", "discounted"}); err != nil {
		return err
	}
	rate := r.Cashflow.DiscountRate
	for _, s := range r.Cashflow.Scenarios {
		pct := strconv.FormatFloat(s.EquitySalePct, 'f', -1, 64)
		for _, row := range cases(s) {
			factor := 1.0
			for year, amount := range row.c.Cashflows {
				record := []string{
					pct,
					row.name,
					strconv.Itoa(year),
					strconv.FormatInt(amount, 10),
					strconv.FormatFloat(float64(amount)/factor, 'f', 0, 64),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
				factor *= 1 + rate
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAMLFormat outputs the report as YAML.
func YAMLFormat(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

type namedCase struct {
	name string
	c    api.CaseResponse
}

func cases(s api.ScenarioResponse) []namedCase {
	return []namedCase{
		{"guaranteed", s.Guaranteed},
		{"expected", s.Expected},
		{"best", s.Best},
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
