package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"lnmarkets-api/pkg/exchange"
	"lnmarkets-api/pkg/journal"
	"lnmarkets-api/pkg/market"
)

// monitor periodically logs the account's P/L and margin figures. It never
// places or closes positions.
type monitor struct {
	account     exchange.Provider
	quotes      market.Provider // optional
	symbol      string
	marginAlert int64
	journal     *journal.Writer // optional
	name        string
}

// accountReport is one round of figures. Fields stay nil when their call
// failed.
type accountReport struct {
	Running    int
	Unrealized *decimal.Decimal
	Realized   *decimal.Decimal
	Margin     *decimal.Decimal
	Snapshot   *market.Snapshot
	Alert      bool
	Errors     []string
}

func (m *monitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on startup
	m.report(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.report(ctx)
		}
	}
}

func (m *monitor) report(parent context.Context) *accountReport {
	if parent.Err() != nil {
		return nil
	}
	rep := &accountReport{}
	logger := logx.WithContext(parent)

	m.timed(parent, rep, "exchange.positions", func(ctx context.Context) error {
		positions, err := m.account.GetPositions(ctx, exchange.FilterRunning)
		if err != nil {
			return err
		}
		rep.Running = len(positions)
		margin := exchange.MarginWithheld(positions)
		unrealized := exchange.CalculateProfit(positions)
		rep.Margin, rep.Unrealized = &margin, &unrealized
		return nil
	})
	m.timed(parent, rep, "exchange.realized_pl", func(ctx context.Context) error {
		realized, err := m.account.RealizedProfit(ctx)
		if err != nil {
			return err
		}
		rep.Realized = &realized
		return nil
	})
	if m.quotes != nil {
		m.timed(parent, rep, "market.snapshot", func(ctx context.Context) error {
			snap, err := m.quotes.Snapshot(ctx, m.symbol)
			if err != nil {
				return err
			}
			rep.Snapshot = snap
			return nil
		})
	}

	fields := []logx.LogField{logx.Field("running", rep.Running)}
	if rep.Unrealized != nil {
		fields = append(fields, logx.Field("unrealized_pl", rep.Unrealized.String()))
	}
	if rep.Realized != nil {
		fields = append(fields, logx.Field("realized_pl", rep.Realized.String()))
	}
	if rep.Margin != nil {
		fields = append(fields, logx.Field("margin_withheld", rep.Margin.String()))
	}
	if rep.Snapshot != nil {
		fields = append(fields,
			logx.Field("index", rep.Snapshot.Index.String()),
			logx.Field("bid", rep.Snapshot.Bid.String()),
			logx.Field("offer", rep.Snapshot.Offer.String()))
	}
	logger.Infow("monitor: account report", fields...)

	if m.marginAlert > 0 && rep.Margin != nil && rep.Margin.GreaterThan(decimal.NewFromInt(m.marginAlert)) {
		rep.Alert = true
		logger.Errorw("monitor: margin withheld above alert threshold",
			logx.Field("margin_withheld", rep.Margin.String()),
			logx.Field("threshold", m.marginAlert))
	}
	if m.journal != nil {
		if path, err := m.journal.WriteReport(rep.record(m.name)); err != nil {
			logger.Errorf("monitor: journal: %v", err)
		} else {
			logger.Debugf("monitor: journal written to %s", path)
		}
	}
	return rep
}

func (r *accountReport) record(provider string) *journal.ReportRecord {
	rec := &journal.ReportRecord{
		Provider:       provider,
		Running:        r.Running,
		UnrealizedPl:   r.Unrealized,
		RealizedPl:     r.Realized,
		MarginWithheld: r.Margin,
		MarginAlert:    r.Alert,
		Errors:         r.Errors,
	}
	if r.Snapshot != nil {
		rec.Index, rec.Bid, rec.Offer = &r.Snapshot.Index, &r.Snapshot.Bid, &r.Snapshot.Offer
	}
	return rec
}

func (m *monitor) timed(parent context.Context, rep *accountReport, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, apiTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logx.WithContext(ctx).WithDuration(elapsed).Errorf("[%s] %v", name, err)
		rep.Errors = append(rep.Errors, name+": "+err.Error())
		return
	}
	logx.WithContext(ctx).WithDuration(elapsed).Debugf("[%s] ok", name)
}
