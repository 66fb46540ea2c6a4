package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/model"
	"github.com/dcmgrade/lorcanaprice/internal/prices"
)

var estimateFlags struct {
	grade float64
	file  string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate value at a DCM grade from saved prices",
	Long: `Computes an estimated market value offline from a normalized-prices
JSON document (as printed by "lookup" or "product") and a DCM grade.
Reads the document from --file, or stdin when --file is omitted.

Example:
  lorcanaprice product 12345 | jq .prices > elsa.json
  lorcanaprice estimate --grade 9.5 --file elsa.json`,
	Run: func(cmd *cobra.Command, args []string) {
		input := os.Stdin
		if estimateFlags.file != "" {
			f, err := os.Open(estimateFlags.file)
			if err != nil {
				log.Fatalf("opening prices file: %v", err)
			}
			defer f.Close()
			input = f
		}

		var normalized model.NormalizedPrices
		if err := json.NewDecoder(input).Decode(&normalized); err != nil {
			log.Fatalf("decoding prices: %v", err)
		}

		estimate := prices.EstimateValue(&normalized, estimateFlags.grade)
		if estimate == nil {
			fmt.Println("not estimable: no raw or graded reference price")
			return
		}
		printJSON(map[string]any{
			"grade":          estimateFlags.grade,
			"estimatedValue": *estimate,
			"productName":    normalized.ProductName,
		})
	},
}

func init() {
	estimateCmd.Flags().Float64Var(&estimateFlags.grade, "grade", 0, "DCM grade (required)")
	estimateCmd.Flags().StringVar(&estimateFlags.file, "file", "", "normalized prices JSON file (default stdin)")
	_ = estimateCmd.MarkFlagRequired("grade")

	rootCmd.AddCommand(estimateCmd)
}
