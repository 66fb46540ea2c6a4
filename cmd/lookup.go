package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/model"
	"github.com/dcmgrade/lorcanaprice/internal/pricing"
)

var lookupFlags struct {
	set      string
	number   string
	year     string
	variant  string
	foil     bool
	grade    float64
	force    bool
	variants bool
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [card name]",
	Short: "Resolve a card to its best-matching product and prices",
	Long: `Searches the vendor catalog for a card, picks the best match, and
prints its normalized raw and graded prices as JSON.

Examples:
  lorcanaprice lookup "Elsa - Snow Queen" --number 1 --set "The First Chapter"
  lorcanaprice lookup "Stitch - Rock Star" --foil --grade 9.5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := setup()

		resp, err := svc.Lookup(cmd.Context(), pricing.Request{
			Attributes: model.SearchAttributes{
				CardName:        args[0],
				SetName:         lookupFlags.set,
				CollectorNumber: lookupFlags.number,
				Year:            lookupFlags.year,
				Variant:         lookupFlags.variant,
				IsFoil:          lookupFlags.foil,
			},
			DCMGrade:        lookupFlags.grade,
			ForceRefresh:    lookupFlags.force,
			IncludeVariants: lookupFlags.variants,
		})
		if err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
		printJSON(resp)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFlags.set, "set", "", "set name, e.g. \"The First Chapter\"")
	lookupCmd.Flags().StringVar(&lookupFlags.number, "number", "", "collector number, e.g. \"1\" or \"#001/204\"")
	lookupCmd.Flags().StringVar(&lookupFlags.year, "year", "", "release year")
	lookupCmd.Flags().StringVar(&lookupFlags.variant, "variant", "", "printing variant, e.g. Enchanted")
	lookupCmd.Flags().BoolVar(&lookupFlags.foil, "foil", false, "foil printing")
	lookupCmd.Flags().Float64Var(&lookupFlags.grade, "grade", 0, "DCM grade for value estimation")
	lookupCmd.Flags().BoolVar(&lookupFlags.force, "force", false, "bypass the price cache")
	lookupCmd.Flags().BoolVar(&lookupFlags.variants, "variants", false, "include alternate printings")

	rootCmd.AddCommand(lookupCmd)
}
