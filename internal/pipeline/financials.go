package pipeline

import (
	"context"
	"log/slog"

	"github.com/njpastrone/industry-trend-tracker/internal/model"
	"github.com/njpastrone/industry-trend-tracker/pkg/market"
)

// BenchmarkTicker is the broad-market baseline every sector ETF is
// compared against.
const BenchmarkTicker = "SPY"

// RunFinancials refreshes ETF performance for all sectors without
// touching the rest of the pipeline. The API exposes it as a standalone
// trigger.
func (p *Pipeline) RunFinancials(ctx context.Context) (int, error) {
	sectors, err := p.store.GetSectors()
	if err != nil {
		return 0, err
	}
	return p.refreshFinancials(ctx, sectors), nil
}

// refreshFinancials fetches six months of daily closes for every sector
// ETF plus the benchmark in one pass, then upserts per-sector change
// metrics. Sectors whose ETF had no usable data are skipped.
func (p *Pipeline) refreshFinancials(ctx context.Context, sectors []model.Sector) int {
	if p.market == nil {
		return 0
	}

	symbols := make([]string, 0, len(sectors)+1)
	for _, s := range sectors {
		symbols = append(symbols, s.ETFTicker)
	}
	symbols = append(symbols, BenchmarkTicker)

	closes, err := p.market.Closes(ctx, symbols)
	if err != nil {
		slog.Error("fetching market data failed", "error", err)
		return 0
	}

	var spy *market.Changes
	if c, ok := market.ComputeChanges(closes[BenchmarkTicker], p.now()); ok {
		spy = c
	} else {
		slog.Warn("benchmark data unavailable, relative metrics will be absolute", "ticker", BenchmarkTicker)
	}

	updated := 0
	for _, sector := range sectors {
		changes, ok := market.ComputeChanges(closes[sector.ETFTicker], p.now())
		if !ok {
			slog.Warn("insufficient price history", "sector", sector.Name, "ticker", sector.ETFTicker)
			continue
		}

		f := model.Financials{
			SectorID:  sector.ID,
			ETFPrice:  changes.Price,
			Change7D:  changes.Change7D,
			Change30D: changes.Change30D,
			ChangeYTD: changes.ChangeYTD,
		}
		if spy != nil {
			f.VsSPY7D = market.Round4(changes.Change7D - spy.Change7D)
			f.VsSPY30D = market.Round4(changes.Change30D - spy.Change30D)
		} else {
			f.VsSPY7D = changes.Change7D
			f.VsSPY30D = changes.Change30D
		}

		if err := p.store.UpsertFinancials(f); err != nil {
			slog.Error("saving financials failed", "sector", sector.Name, "error", err)
			continue
		}
		updated++
	}

	slog.Info("financials refreshed", "updated", updated, "sectors", len(sectors))
	return updated
}
