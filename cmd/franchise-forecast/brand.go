package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iwvelando/franchise-forecast/internal/brand"
)

var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "Manage stored brand definitions",
}

var brandImportCmd = &cobra.Command{
	Use:   "import <file.yaml>...",
	Short: "Validate and store one or more brand files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		for _, path := range args {
			b, err := brand.LoadBrandFile(path)
			if err != nil {
				return err
			}
			if err := svc.ImportBrand(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Printf("%s\t%s\n", b.ID, b.Name)
		}
		return nil
	},
}

var brandListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored brands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		brands, err := svc.ListBrands(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTARTUP ITEMS")
		for _, b := range brands {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", b.ID, b.Name, len(b.StartupCosts))
		}
		return tw.Flush()
	},
}

func init() {
	brandCmd.AddCommand(brandImportCmd, brandListCmd)
	rootCmd.AddCommand(brandCmd)
}
