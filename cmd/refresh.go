package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcmgrade/lorcanaprice/internal/refresh"
)

var refreshFlags struct {
	watchlist string
	daemon    bool
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-price watched cards, bypassing the cache",
	Long: `Runs a refresh sweep over the cards in the watchlist file. With
--daemon the sweep repeats on the configured cron schedule until
interrupted.

Configuration, including PRICECHARTING_API_KEY, is read once at startup;
restart the daemon after rotating the credential.`,
	Run: func(cmd *cobra.Command, args []string) {
		svc, cfg := setup()

		watchlist, err := refresh.LoadWatchlist(refreshFlags.watchlist)
		if err != nil {
			log.Fatalf("watchlist error: %v", err)
		}

		r := refresh.New(svc, watchlist)

		if !refreshFlags.daemon {
			if err := r.RunOnce(cmd.Context()); err != nil {
				log.Fatalf("refresh failed: %v", err)
			}
			return
		}

		if err := r.Start(cfg.Refresh.Schedule); err != nil {
			log.Fatalf("scheduling refresh: %v", err)
		}
		defer r.Stop()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshFlags.watchlist, "watchlist", "watchlist.json", "path to the watchlist JSON file")
	refreshCmd.Flags().BoolVar(&refreshFlags.daemon, "daemon", false, "keep running on the configured schedule")

	rootCmd.AddCommand(refreshCmd)
}
