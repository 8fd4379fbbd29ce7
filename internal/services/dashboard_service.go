package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"farmstead/internal/core"
	"farmstead/internal/query"
	"farmstead/internal/store"
)

// Dashboard is the aggregate view rendered on the landing page.
type Dashboard struct {
	Farms       []core.Farm            `json:"farms"`
	ActiveCrops int                    `json:"activeCrops"`
	TodaysTasks []core.Task            `json:"todaysTasks"`
	Summary     query.FinancialSummary `json:"summary"`
}

// DashboardService assembles the dashboard from the record store,
// fanning the independent reads out in parallel.
type DashboardService struct {
	store store.Store
	txs   *TransactionService
	clock func() time.Time
}

func NewDashboardService(st store.Store, txs *TransactionService) *DashboardService {
	return &DashboardService{
		store: st,
		txs:   txs,
		clock: time.Now,
	}
}

// SetClock overrides the time source used for today's-task selection.
func (s *DashboardService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Load gathers the dashboard. Farms, crops and tasks are required reads;
// the financial summary is best-effort and falls back to zero on failure.
func (s *DashboardService) Load(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		farms, err := s.store.Farms().List(egCtx)
		if err != nil {
			return fmt.Errorf("list farms: %w", err)
		}
		d.Farms = farms
		return nil
	})

	eg.Go(func() error {
		crops, err := s.store.Crops().List(egCtx)
		if err != nil {
			return fmt.Errorf("list crops: %w", err)
		}
		for _, c := range crops {
			if c.Status == core.CropActive {
				d.ActiveCrops++
			}
		}
		return nil
	})

	eg.Go(func() error {
		tasks, err := s.store.Tasks().List(egCtx)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		d.TodaysTasks = query.TodaysTasks(tasks, s.clock())
		return nil
	})

	eg.Go(func() error {
		d.Summary = s.txs.RecentSummary(egCtx)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
