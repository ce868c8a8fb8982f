package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/store"
)

var (
	planBrandID string
	planName    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create, edit, and run stored plans",
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan from a stored brand's defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := svc.CreatePlan(cmd.Context(), planBrandID, planName)
		if err != nil {
			return err
		}
		fmt.Println(p.ID)
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the plans of a brand",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		plans, err := svc.ListPlans(cmd.Context(), planBrandID)
		if err != nil {
			return err
		}
		return writePlans(plans)
	},
}

var planSetCmd = &cobra.Command{
	Use:   "set <plan-id> <path=value>...",
	Short: "Edit plan fields",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		var p *store.Plan
		for _, assignment := range args[1:] {
			path, value, err := parseAssignment(assignment)
			if err != nil {
				return err
			}
			if p, err = svc.UpdatePlanField(cmd.Context(), args[0], path, value); err != nil {
				return err
			}
		}
		logger.Info("updated plan",
			zap.String("op", "main.planSet"),
			zap.String("plan_id", p.ID),
			zap.Strings("custom_fields", p.Inputs.CustomFields()),
		)
		return nil
	},
}

var planResetCmd = &cobra.Command{
	Use:   "reset <plan-id> <path>...",
	Short: "Restore plan fields to their brand defaults",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		for _, path := range args[1:] {
			if _, err := svc.ResetPlanField(cmd.Context(), args[0], path); err != nil {
				return err
			}
		}
		return nil
	},
}

var planRunCmd = &cobra.Command{
	Use:   "run <plan-id>",
	Short: "Project a stored plan and record the run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveFormat()
		if err != nil {
			return err
		}

		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		run, err := svc.RunPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(format, "Plan "+run.PlanID, run.Output)
	},
}

func init() {
	planCreateCmd.Flags().StringVar(&planBrandID, "brand-id", "", "stored brand ID (required)")
	planCreateCmd.Flags().StringVar(&planName, "name", "", "plan name (required)")
	_ = planCreateCmd.MarkFlagRequired("brand-id")
	_ = planCreateCmd.MarkFlagRequired("name")

	planListCmd.Flags().StringVar(&planBrandID, "brand-id", "", "stored brand ID (required)")
	_ = planListCmd.MarkFlagRequired("brand-id")

	addOutputFlags(planRunCmd)

	planCmd.AddCommand(planCreateCmd, planListCmd, planSetCmd, planResetCmd, planRunCmd)
	rootCmd.AddCommand(planCmd)
}

func writePlans(plans []store.Plan) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCUSTOM FIELDS\tUPDATED")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(p.Inputs.CustomFields()), p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
