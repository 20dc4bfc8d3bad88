// Package runs evaluates requests through the engines and records each
// evaluation as a run.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/deal"
	"github.com/iwvelando/exit-valuation/internal/store"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"go.uber.org/zap"
)

// Service runs the valuation, cashflow and deal engines and stores results.
type Service struct {
	calculator *valuation.Calculator
	simulator  *cashflow.Simulator
	generator  *deal.Generator
	store      store.Store
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewService wires the engines to a store. A nil store keeps runs in memory;
// a nil logger discards logs.
func NewService(calc *valuation.Calculator, sim *cashflow.Simulator, gen *deal.Generator, st store.Store, logger *zap.Logger) (*Service, error) {
	if calc == nil || sim == nil {
		return nil, errors.New("calculator and simulator are required")
	}
	if gen == nil {
		gen = deal.NewGenerator()
	}
	if st == nil {
		st = store.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		calculator: calc,
		simulator:  sim,
		generator:  gen,
		store:      st,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// WithClock returns a copy of the service whose engines and run timestamps
// read now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	cp.calculator = s.calculator.WithClock(now)
	cp.generator = s.generator.WithClock(now)
	return &cp
}

// Valuation validates and values a profile.
func (s *Service) Valuation(ctx context.Context, req api.ProfileRequest) (string, api.ValuationResponse, error) {
	if err := req.Validate(s.now().Year()); err != nil {
		return "", api.ValuationResponse{}, err
	}
	res := s.calculator.Evaluate(req.ToProfile())
	s.logger.Debug("valuation evaluated",
		zap.String("op", "runs.Service.Valuation"),
		zap.String("industry_group", string(res.IndustryGroup)),
		zap.Bool("evaluable", res.Evaluable),
		zap.Int64("equity_low", res.EquityValue.Low),
		zap.Int64("equity_high", res.EquityValue.High),
		zap.Int("warnings", len(res.Warnings)),
	)
	resp := api.NewValuationResponse(res)
	return s.record(ctx, store.KindValuation, req, resp), resp, nil
}

// Cashflow validates and simulates a cashflow request on its own basis.
func (s *Service) Cashflow(ctx context.Context, req api.CashflowRequest) (string, api.CashflowResponse, error) {
	if err := req.Validate(); err != nil {
		return "", api.CashflowResponse{}, err
	}
	res := s.simulator.Simulate(req.ToInput(req.EquityValueBasis))
	s.logCashflow("runs.Service.Cashflow", res)
	resp := api.NewCashflowResponse(res)
	return s.record(ctx, store.KindCashflow, req, resp), resp, nil
}

// Deals validates and generates deal structures over the request's range.
func (s *Service) Deals(ctx context.Context, req api.DealRequest) (string, api.DealsResponse, error) {
	if err := req.Validate(); err != nil {
		return "", api.DealsResponse{}, err
	}
	out := s.generator.Generate(req.ToInput(req.EquityLow, req.EquityHigh, req.EquityMedian))
	s.logDeals("runs.Service.Deals", out)
	resp := api.NewDealsResponse(out)
	return s.record(ctx, store.KindDeals, req, resp), resp, nil
}

// Evaluate runs the full pipeline. The valuation's equity range feeds the
// cashflow basis and the deal range; both later stages are skipped when the
// company is not evaluable.
func (s *Service) Evaluate(ctx context.Context, req api.EvaluateRequest) (string, api.EvaluateResponse, error) {
	if err := req.Validate(s.now().Year()); err != nil {
		return "", api.EvaluateResponse{}, err
	}

	val := s.calculator.Evaluate(req.Profile.ToProfile())
	resp := api.EvaluateResponse{
		Valuation: api.NewValuationResponse(val),
		Basis:     string(cashflow.BasisMedian),
		Warnings:  []string{},
	}
	if req.Basis != "" {
		resp.Basis = req.Basis
	}

	if req.Cashflow != nil {
		basis, err := cashflow.BasisFromValuation(val, cashflow.Basis(resp.Basis))
		switch {
		case errors.Is(err, cashflow.ErrNotEvaluable):
			resp.Warnings = append(resp.Warnings, "valuation is not evaluable; cashflow simulation skipped")
		case err != nil:
			return "", api.EvaluateResponse{}, fmt.Errorf("failed to pick equity basis: %w", err)
		default:
			res := s.simulator.Simulate(req.Cashflow.ToInput(basis))
			s.logCashflow("runs.Service.Evaluate", res)
			cf := api.NewCashflowResponse(res)
			resp.Cashflow = &cf
		}
	}

	if req.Deals != nil {
		if !val.Evaluable {
			resp.Warnings = append(resp.Warnings, "valuation is not evaluable; deal structures skipped")
		} else {
			out := s.generator.Generate(req.Deals.ToInput(val.EquityValue.Low, val.EquityValue.High, req.Deals.EquityMedian))
			s.logDeals("runs.Service.Evaluate", out)
			d := api.NewDealsResponse(out)
			resp.Deals = &d
		}
	}

	return s.record(ctx, store.KindEvaluate, req, resp), resp, nil
}

// Get returns a stored run.
func (s *Service) Get(ctx context.Context, id string) (store.Run, error) {
	return s.store.Get(ctx, id)
}

// List returns stored runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]store.Summary, error) {
	return s.store.List(ctx, limit)
}

// Close releases the store.
func (s *Service) Close() {
	s.store.Close()
}

// record stores the run and returns its ID. A failed save is logged and
// yields an empty ID; the evaluation itself still succeeds.
func (s *Service) record(ctx context.Context, kind store.Kind, req, resp any) string {
	run := store.Run{
		ID:        s.newID(),
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}
	var err error
	if run.Request, err = json.Marshal(req); err == nil {
		run.Result, err = json.Marshal(resp)
	}
	if err == nil {
		err = s.store.Save(ctx, run)
	}
	if err != nil {
		s.logger.Warn("failed to save run",
			zap.String("op", "runs.Service.record"),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return ""
	}
	return run.ID
}

func (s *Service) logCashflow(op string, res cashflow.Step2Result) {
	s.logger.Debug("cashflow simulated",
		zap.String("op", op),
		zap.Int64("basis", res.EquityValueBasis),
		zap.Int("lock_in_years", res.LockInYears),
		zap.Int("scenarios", len(res.Scenarios)),
		zap.Int("warnings", len(res.Warnings)),
	)
}

func (s *Service) logDeals(op string, out deal.Output) {
	top := make([]string, 0, len(out.Top3))
	for _, c := range out.Top3 {
		top = append(top, string(c))
	}
	s.logger.Debug("deal structures generated",
		zap.String("op", op),
		zap.Int64("equity_median", out.EquityMedian),
		zap.Strings("top3", top),
		zap.Int("warnings", len(out.Warnings)),
	)
}
