package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/config"
	"github.com/iwvelando/exit-valuation/internal/runs"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/output"
	"github.com/iwvelando/exit-valuation/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// evaluate runs the configured request in the given mode and collects the
// sections it produced.
func evaluate(ctx context.Context, svc *runs.Service, mode string, req api.EvaluateRequest) (output.Report, error) {
	switch mode {
	case constants.ModeValuation:
		id, resp, err := svc.Valuation(ctx, req.Profile)
		if err != nil {
			return output.Report{}, err
		}
		return output.Report{RunID: id, Valuation: &resp}, nil

	case constants.ModeCashflow:
		if req.Cashflow == nil {
			return output.Report{}, errors.New("mode cashflow requires a request.cashflow section")
		}
		id, resp, err := svc.Cashflow(ctx, *req.Cashflow)
		if err != nil {
			return output.Report{}, err
		}
		return output.Report{RunID: id, Cashflow: &resp}, nil

	case constants.ModeDeals:
		if req.Deals == nil {
			return output.Report{}, errors.New("mode deals requires a request.deals section")
		}
		id, resp, err := svc.Deals(ctx, *req.Deals)
		if err != nil {
			return output.Report{}, err
		}
		return output.Report{RunID: id, Deals: &resp}, nil

	case constants.ModeAll, "":
		id, resp, err := svc.Evaluate(ctx, req)
		if err != nil {
			return output.Report{}, err
		}
		return output.FromEvaluation(id, resp), nil
	}
	return output.Report{}, fmt.Errorf("unsupported mode %q", mode)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	modeFlag := flag.String("mode", "", "evaluation mode override: valuation, cashflow, deals, all")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, json, yaml, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	if *outputFormatFlag != "" {
		conf.Output.Format = strings.ToLower(*outputFormatFlag)
	}
	if *modeFlag != "" {
		conf.Output.Mode = strings.ToLower(*modeFlag)
	}
	if err := errors.Join(validation.ValidateOutputFormat(conf.Output.Format), validation.ValidateMode(conf.Output.Mode)); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx := context.Background()
	svc, err := runs.Open(ctx, conf.Engine, conf.Storage, logger)
	if err != nil {
		logger.Fatal("failed to initialize evaluation service",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer svc.Close()

	report, err := evaluate(ctx, svc, conf.Output.Mode, conf.Request)
	if err != nil {
		logger.Fatal("failed to evaluate request",
			zap.String("op", "main"),
			zap.String("mode", conf.Output.Mode),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, conf.Output.Format, report); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.String("format", conf.Output.Format),
			zap.Error(err),
		)
	}
}
