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

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/optimizer"
	"github.com/iwvelando/franchise-forecast/pkg/format"
	"github.com/iwvelando/franchise-forecast/pkg/optimization"
)

var (
	optimizeBrandPath string
	optimizeSets      []string
	optimizeTarget    optimizer.Target
	optimizeJSON      bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the field value at which a cash constraint stops holding",
	Example: "  franchise-forecast optimize --brand brands/quick-service.yaml \\\n" +
		"    --field revenue.monthlyAuv --min 10000 --max 60000 --break-even-by 24",
	RunE: func(cmd *cobra.Command, _ []string) error {
		target := optimizeTarget
		target.Objective = optimizer.ObjectiveMinCash
		if cmd.Flags().Changed("break-even-by") {
			if cmd.Flags().Changed("min-cash") {
				return eris.New("--min-cash and --break-even-by are mutually exclusive")
			}
			target.Objective = optimizer.ObjectiveBreakEven
		}

		b, err := brand.LoadBrandFile(optimizeBrandPath)
		if err != nil {
			return err
		}
		summary, err := optimizeBrand(b, optimizeSets, target)
		if err != nil {
			return err
		}

		if optimizeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(summary), "encode summary")
		}
		return writeSummary(os.Stdout, summary)
	},
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVar(&optimizeBrandPath, "brand", "", "path to brand YAML file (required)")
	f.StringArrayVar(&optimizeSets, "set", nil, "field override as path=value, repeatable")
	f.StringVar(&optimizeTarget.Field, "field", "", "plan field to search (required)")
	f.Float64Var(&optimizeTarget.Min, "min", 0, "lower search bound")
	f.Float64Var(&optimizeTarget.Max, "max", 0, "upper search bound")
	f.Float64Var(&optimizeTarget.MinCash, "min-cash", 0, "lowest acceptable cash position in dollars")
	f.IntVar(&optimizeTarget.BreakEvenBy, "break-even-by", 0, "latest acceptable break-even month")
	f.Float64Var(&optimizeTarget.Tolerance, "tolerance", 0, "search precision in field units (default 0.01% of the range)")
	f.IntVar(&optimizeTarget.MaxIterations, "max-iterations", 0, "bisection iteration limit (default 50)")
	f.BoolVar(&optimizeJSON, "json", false, "print the summary as JSON")
	_ = optimizeCmd.MarkFlagRequired("brand")
	_ = optimizeCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(optimizeCmd)
}

func optimizeBrand(b *brand.Brand, sets []string, target optimizer.Target) (optimization.Summary, error) {
	inputs, err := overriddenInputs(b, sets)
	if err != nil {
		return optimization.Summary{}, err
	}
	runner, err := optimizer.NewRunner(logger, inputs, brand.StartupCosts(b))
	if err != nil {
		return optimization.Summary{}, err
	}
	return runner.Run(target)
}

func writeSummary(w io.Writer, s optimization.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	status := "converged"
	if !s.Converged {
		status = "not converged"
	}
	fmt.Fprintf(tw, "field\t%s\n", s.Field)
	fmt.Fprintf(tw, "objective\t%s (%s)\n", s.Objective, status)
	fmt.Fprintf(tw, "value\t%s\n", strconv.FormatFloat(s.Value, 'f', -1, 64))
	fmt.Fprintf(tw, "original\t%s\n", strconv.FormatFloat(s.Original, 'f', -1, 64))
	if s.Objective == string(optimizer.ObjectiveBreakEven) {
		achieved := "never"
		if s.Achieved > 0 {
			achieved = "month " + strconv.FormatFloat(s.Achieved, 'f', 0, 64)
		}
		fmt.Fprintf(tw, "break-even\t%s (deadline month %s)\n", achieved, strconv.FormatFloat(s.Floor, 'f', 0, 64))
	} else {
		fmt.Fprintf(tw, "lowest cash\t%s (floor %s)\n", format.Currency(int64(s.Achieved)), format.Currency(int64(s.Floor)))
	}
	fmt.Fprintf(tw, "iterations\t%d\n", s.Iterations)
	for _, note := range s.Notes {
		fmt.Fprintf(tw, "note\t%s\n", note)
	}
	return eris.Wrap(tw.Flush(), "write summary")
}
