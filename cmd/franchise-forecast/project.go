package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/export"
	"github.com/iwvelando/franchise-forecast/internal/projection"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/output"
	"github.com/iwvelando/franchise-forecast/pkg/validation"
)

var (
	projectBrandPath string
	projectSets      []string
	outputFormatFlag string
	outputPath       string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a brand file with optional field overrides",
	Example: "  franchise-forecast project --brand brands/quick-service.yaml \\\n" +
		"    --set revenue.monthlyAuv=30000 --set financing.interestRate=0.09 --format xlsx --out plan.xlsx",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		b, err := brand.LoadBrandFile(projectBrandPath)
		if err != nil {
			return err
		}
		out, err := projectBrand(b, projectSets)
		if err != nil {
			return err
		}
		return emit(format, b.Name, out)
	},
}

func init() {
	projectCmd.Flags().StringVar(&projectBrandPath, "brand", "", "path to brand YAML file (required)")
	projectCmd.Flags().StringArrayVar(&projectSets, "set", nil, "field override as path=value, repeatable")
	addOutputFlags(projectCmd)
	_ = projectCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(projectCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormatFlag, "format", "", "output format override: "+strings.Join(constants.OutputFormats, ", "))
	cmd.Flags().StringVar(&outputPath, "out", "", "write output to this file instead of stdout")
}

// resolveFormat applies the CLI override over the configured output format.
func resolveFormat() (string, error) {
	format := cfg.Output.Format
	if outputFormatFlag != "" {
		format = outputFormatFlag
	}
	if format == "" {
		format = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// projectBrand applies path=value overrides to the brand defaults and runs
// the projection.
func projectBrand(b *brand.Brand, sets []string) (engine.EngineOutput, error) {
	inputs, err := overriddenInputs(b, sets)
	if err != nil {
		return engine.EngineOutput{}, err
	}

	out, err := projection.NewService(nil, logger).Compute(brand.Unwrap(inputs, brand.StartupCosts(b)))
	if err != nil {
		return engine.EngineOutput{}, err
	}
	logger.Info("projection complete",
		zap.String("op", "main.projectBrand"),
		zap.String("brand", b.Name),
		zap.Strings("overrides", inputs.CustomFields()),
		zap.Bool("checks_passed", out.AllChecksPassed()),
	)
	return out, nil
}

// overriddenInputs seeds plan inputs from the brand and applies each
// path=value assignment as a user edit.
func overriddenInputs(b *brand.Brand, sets []string) (brand.PlanInputs, error) {
	inputs := brand.NewPlanInputs(b)
	for _, assignment := range sets {
		path, value, err := parseAssignment(assignment)
		if err != nil {
			return nil, err
		}
		if err := inputs.Set(path, value); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

// parseAssignment splits "path=value" into a field path and a number.
func parseAssignment(s string) (string, float64, error) {
	path, raw, ok := strings.Cut(s, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", 0, eris.Errorf("invalid assignment %q: expected path=value", s)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, eris.Wrapf(err, "invalid value in %q", s)
	}
	return path, value, nil
}

// emit writes the projection to --out, or to stdout when no file is given.
func emit(format, title string, out engine.EngineOutput) error {
	if outputPath == "" {
		return writeProjection(os.Stdout, format, title, out)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", outputPath)
	}
	if err := writeProjection(f, format, title, out); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", outputPath)
	}
	logger.Info("wrote projection",
		zap.String("op", "main.emit"),
		zap.String("format", format),
		zap.String("path", outputPath),
	)
	return nil
}

func writeProjection(w io.Writer, format, title string, out engine.EngineOutput) error {
	switch format {
	case constants.OutputFormatPretty:
		return output.PrettyFormat(w, out)
	case constants.OutputFormatCSV:
		return output.CSVFormat(w, out)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, out)
	case constants.OutputFormatXLSX:
		return export.WriteXLSX(w, out)
	case constants.OutputFormatPDF:
		return export.WritePDF(w, title, out)
	}
	return eris.Errorf("unsupported output format %q", format)
}
