package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/cache"
	"github.com/dcmgrade/lorcanaprice/internal/config"
	"github.com/dcmgrade/lorcanaprice/internal/logx"
	"github.com/dcmgrade/lorcanaprice/internal/prices"
	"github.com/dcmgrade/lorcanaprice/internal/pricing"
)

var rootCmd = &cobra.Command{
	Use:   "lorcanaprice",
	Short: "Lorcana card price lookup and grading value estimates",
	Long: `Resolves Lorcana cards against the PriceCharting catalog, normalizes
raw and graded prices, and estimates market value for DCM grades.

Set PRICECHARTING_API_KEY (directly or via .env) before running.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger, and wires the pricing
// service. Shared by every subcommand.
func setup() (*pricing.Service, config.Config) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logx.Setup(os.Stderr, cfg.LogLevel)

	client := prices.NewClient(prices.Config{
		Token:             cfg.PriceCharting.APIKey,
		BaseURL:           cfg.PriceCharting.BaseURL,
		AttemptTimeout:    cfg.PriceCharting.AttemptTimeout,
		MaxRetries:        cfg.PriceCharting.MaxRetries,
		RequestsPerSecond: cfg.PriceCharting.RequestsPerSecond,
	})

	store, err := cache.New(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("cache error: %v", err)
	}

	return pricing.NewService(client, store, cfg.Cache.TTL), cfg
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encoding output: %v", err)
	}
	fmt.Println(string(out))
}
