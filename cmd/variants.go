package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/model"
	"github.com/dcmgrade/lorcanaprice/internal/pricing"
)

var variantsFlags struct {
	set    string
	number string
}

var variantsCmd = &cobra.Command{
	Use:   "variants [card name]",
	Short: "List alternate printings of a card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := setup()

		resp, err := svc.Lookup(cmd.Context(), pricing.Request{
			Attributes: model.SearchAttributes{
				CardName:        args[0],
				SetName:         variantsFlags.set,
				CollectorNumber: variantsFlags.number,
			},
			IncludeVariants: true,
		})
		if err != nil {
			log.Fatalf("variant listing failed: %v", err)
		}
		printJSON(resp.Variants)
	},
}

func init() {
	variantsCmd.Flags().StringVar(&variantsFlags.set, "set", "", "set name")
	variantsCmd.Flags().StringVar(&variantsFlags.number, "number", "", "collector number")

	rootCmd.AddCommand(variantsCmd)
}
