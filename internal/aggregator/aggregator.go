// Package aggregator runs one search across every configured provider and
// turns the combined listings into a filtered, de-duplicated result set.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"careercraft/jobsearch-service/internal/metrics"
	"careercraft/jobsearch-service/internal/model"
	"careercraft/jobsearch-service/internal/provider"
)

const (
	defaultSourceTimeout = 10 * time.Second
	defaultPageSize      = 6
)

// Options tunes an Aggregator. Zero values pick the defaults.
type Options struct {
	SourceTimeout time.Duration // deadline for one adapter inside a run
	Region        string        // substring the region-only filter keeps
	Location      string        // location preference passed to adapters
	PageSize      int
}

// Aggregator fans a query out to its adapters and joins the results.
type Aggregator struct {
	adapters []provider.Adapter
	opts     Options
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// New returns an Aggregator over adapters, kept in the given order.
func New(adapters []provider.Adapter, opts Options, log *zap.Logger, m *metrics.Metrics) *Aggregator {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = defaultSourceTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Aggregator{
		adapters: adapters,
		opts:     opts,
		log:      log.Named("aggregator"),
		metrics:  m,
	}
}

// PageSize is the page size stamped on every ResultSet.
func (a *Aggregator) PageSize() int { return a.opts.PageSize }

// Aggregate invokes every configured adapter concurrently and waits for all
// of them. The combined list keeps adapter declaration order and, inside an
// adapter, the provider's native order, whatever order the calls finish in.
// Unconfigured adapters are not invoked; failed ones contribute nothing.
func (a *Aggregator) Aggregate(ctx context.Context, q provider.Query) ([]model.Record, model.SourceReport) {
	var (
		report    model.SourceReport
		results   = make([][]model.Record, len(a.adapters))
		succeeded = make([]bool, len(a.adapters))
		invoked   = make([]bool, len(a.adapters))
		g         errgroup.Group
	)

	for i, ad := range a.adapters {
		if !ad.Configured() {
			report.Skipped = append(report.Skipped, ad.Source())
			continue
		}
		invoked[i] = true
		report.Attempted++
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, a.opts.SourceTimeout)
			defer cancel()
			results[i], succeeded[i] = a.invoke(sctx, ad, q)
			return nil
		})
	}
	_ = g.Wait() // tasks never fail; Wait is the barrier

	var combined []model.Record
	for i, ad := range a.adapters {
		if !invoked[i] {
			continue
		}
		if !succeeded[i] {
			report.Failed = append(report.Failed, ad.Source())
			continue
		}
		report.Succeeded++
		combined = append(combined, results[i]...)
	}

	a.metrics.ObserveAggregate(len(combined))
	return combined, report
}

// invoke shields the join from a misbehaving adapter: a panic counts as the
// source being unavailable.
func (a *Aggregator) invoke(ctx context.Context, ad provider.Adapter, q provider.Query) (records []model.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("adapter panicked",
				zap.String("source", string(ad.Source())),
				zap.String("panic", fmt.Sprint(r)),
			)
			records, ok = nil, false
		}
	}()
	return ad.Search(ctx, q)
}

// Search runs one full pipeline pass: aggregate, dedupe, filter.
func (a *Aggregator) Search(ctx context.Context, req model.SearchRequest) model.ResultSet {
	start := time.Now()
	combined, report := a.Aggregate(ctx, provider.Query{Text: req.Query, Location: a.opts.Location})
	unique := Dedupe(combined)
	final := Filter(unique, FilterOptions{
		RegionOnly: req.RegionOnly,
		Region:     a.opts.Region,
		Exclude:    req.Exclude,
	})

	a.log.Info("search complete",
		zap.String("query", req.Query),
		zap.Bool("regionOnly", req.RegionOnly),
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("combined", len(combined)),
		zap.Int("unique", len(unique)),
		zap.Int("final", len(final)),
		zap.Duration("took", time.Since(start)),
	)
	if report.AllFailed() {
		a.log.Warn("every configured source failed", zap.String("query", req.Query))
	}

	return model.ResultSet{
		Request:  req,
		Records:  final,
		PageSize: a.opts.PageSize,
		Report:   report,
	}
}
