package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/pricing"
)

var productFlags struct {
	grade float64
	force bool
}

var productCmd = &cobra.Command{
	Use:   "product [id]",
	Short: "Price a known vendor product id directly",
	Long: `Fetches normalized prices for an exact vendor product id, skipping
search and match scoring. Useful after picking a printing from "variants".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := setup()

		resp, err := svc.Lookup(cmd.Context(), pricing.Request{
			SelectedProductID: args[0],
			DCMGrade:          productFlags.grade,
			ForceRefresh:      productFlags.force,
		})
		if err != nil {
			log.Fatalf("product lookup failed: %v", err)
		}
		printJSON(resp)
	},
}

func init() {
	productCmd.Flags().Float64Var(&productFlags.grade, "grade", 0, "DCM grade for value estimation")
	productCmd.Flags().BoolVar(&productFlags.force, "force", false, "bypass the price cache")

	rootCmd.AddCommand(productCmd)
}
