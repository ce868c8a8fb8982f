package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/config"
	"github.com/iwvelando/franchise-forecast/internal/harness"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
)

var (
	validateSuitePath   string
	validateConcurrency int
	validateJSON        bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run a validation suite of what-if scenarios against expected metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		suite, err := harness.LoadSuite(validateSuitePath)
		if err != nil {
			return err
		}
		if suite.Tolerances == nil {
			tol := configuredTolerances(cfg.Harness)
			suite.Tolerances = &tol
		}

		concurrency := validateConcurrency
		if concurrency <= 0 && suite.Concurrency <= 0 {
			concurrency = cfg.Harness.Concurrency
		}

		results, err := harness.Run(cmd.Context(), suite, harness.Options{Concurrency: concurrency}, logger)
		if err != nil {
			return err
		}

		if validateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return eris.Wrap(err, "encode results")
			}
		} else if err := writeResults(os.Stdout, results); err != nil {
			return err
		}

		passed, failed := harness.Summarize(results)
		logger.Info("validation complete",
			zap.String("op", "main.validate"),
			zap.String("suite", suite.Name),
			zap.Int("passed", passed),
			zap.Int("failed", failed),
		)
		if failed > 0 {
			return eris.Errorf("%d of %d scenarios failed", failed, passed+failed)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSuitePath, "suite", "", "path to suite YAML file (required)")
	validateCmd.Flags().IntVar(&validateConcurrency, "concurrency", 0, "scenarios run in parallel (default from config)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print results as JSON")
	_ = validateCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(validateCmd)
}

func configuredTolerances(hc config.HarnessConfig) harness.Tolerances {
	tol := harness.DefaultTolerances()
	if hc.CurrencyTolerance > 0 {
		tol.Currency = hc.CurrencyTolerance
	}
	if hc.PercentageTolerance > 0 {
		tol.Percentage = hc.PercentageTolerance
	}
	if hc.MonthsTolerance > 0 {
		tol.Months = hc.MonthsTolerance
	}
	return tol
}

func writeResults(w io.Writer, results []harness.ScenarioResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\n", status, r.Name)
		if r.Error != "" {
			fmt.Fprintf(tw, "\terror\t%s\n", r.Error)
		}
		for _, c := range r.Comparisons {
			if c.Passed {
				continue
			}
			detail := c.Error
			if detail == "" {
				detail = "expected " + formatMetric(c.Kind, c.Expected) + ", actual " + formatMetric(c.Kind, c.Actual)
			}
			fmt.Fprintf(tw, "\t%s\t%s\n", c.Metric, detail)
		}
		for _, check := range r.FailedChecks {
			fmt.Fprintf(tw, "\tidentity %s\texpected %d, actual %d\n", check.Name, check.Expected, check.Actual)
		}
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write results")
	}
	passed, failed := harness.Summarize(results)
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed\n", passed, failed)
	return eris.Wrap(err, "write results")
}

func formatMetric(kind harness.Kind, v float64) string {
	switch kind {
	case harness.KindCurrency:
		return strconv.FormatFloat(v/constants.CentsPerDollar, 'f', 2, 64)
	case harness.KindMonths:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
