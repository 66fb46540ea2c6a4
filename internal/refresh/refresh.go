// Package refresh keeps watched cards' prices warm with a scheduled sweep.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dcmgrade/lorcanaprice/internal/model"
	"github.com/dcmgrade/lorcanaprice/internal/pricing"
)

// sweepTimeout bounds one full watchlist pass.
const sweepTimeout = 10 * time.Minute

// LoadWatchlist reads the cards to keep refreshed from a JSON file. A
// missing file is an empty watchlist, not an error.
func LoadWatchlist(path string) ([]model.SearchAttributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var watchlist []model.SearchAttributes
	if err := json.Unmarshal(data, &watchlist); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	return watchlist, nil
}

// Refresher re-prices a watchlist on a cron schedule.
type Refresher struct {
	svc       *pricing.Service
	watchlist []model.SearchAttributes
	cron      *cron.Cron
	log       *slog.Logger
}

func New(svc *pricing.Service, watchlist []model.SearchAttributes) *Refresher {
	return &Refresher{
		svc:       svc,
		watchlist: watchlist,
		cron:      cron.New(),
		log:       slog.Default().With("component", "price-refresh"),
	}
}

// Start schedules sweeps under the given cron expression and begins running
// them in the background.
func (r *Refresher) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := r.RunOnce(ctx); err != nil {
			r.log.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	r.cron.Start()
	r.log.Info("refresh scheduled", "schedule", schedule, "cards", len(r.watchlist))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce refreshes every watched card now, bypassing caches. Individual
// card failures are logged and skipped; only a fully failed sweep errors.
func (r *Refresher) RunOnce(ctx context.Context) error {
	if len(r.watchlist) == 0 {
		r.log.Debug("watchlist empty, nothing to refresh")
		return nil
	}

	var failed int
	for _, attrs := range r.watchlist {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := r.svc.Lookup(ctx, pricing.Request{Attributes: attrs, ForceRefresh: true})
		if err != nil {
			failed++
			r.log.Warn("refresh failed", "card", attrs.CardName, "error", err)
			continue
		}
		r.log.Debug("refreshed", "card", attrs.CardName)
	}

	r.log.Info("sweep complete", "cards", len(r.watchlist), "failed", failed)
	if failed == len(r.watchlist) {
		return fmt.Errorf("all %d refreshes failed", failed)
	}
	return nil
}
