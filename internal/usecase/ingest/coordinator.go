// Package ingest drives the periodic poll-dedup-embed-index-alert
// cycle over all configured source adapters.
package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
)

// Stats summarizes coordinator activity since start.
type Stats struct {
	CyclesCompleted int       `json:"cycles_completed"`
	DocumentsAdded  int       `json:"documents_added"`
	Duplicates      int       `json:"duplicates"`
	SourceErrors    int       `json:"source_errors"`
	LastCycleAt     time.Time `json:"last_cycle_at"`
}

// Config tunes the coordinator loop.
type Config struct {
	Interval      time.Duration
	ErrorBackoff  time.Duration
	MaxConcurrent int
	SnapshotDir   string
}

// Coordinator owns the ingest loop. Sources are fetched concurrently;
// processing (embed, insert, evaluate) is funneled through a single
// goroutine so the cycle admits each document exactly once and index
// writes stay ordered.
type Coordinator struct {
	sources  []SourceAdapter
	seen     seenStore
	embedder domain.Embedder
	index    vectorIndex
	engine   alertEngine
	alerts   alertSink
	cfg      Config
	logger   *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a coordinator. Snapshot saving is skipped when
// cfg.SnapshotDir is empty.
func New(
	sources []SourceAdapter,
	seen seenStore,
	embedder domain.Embedder,
	ix vectorIndex,
	engine alertEngine,
	alerts alertSink,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = len(sources)
	}
	return &Coordinator{
		sources:  sources,
		seen:     seen,
		embedder: embedder,
		index:    ix,
		engine:   engine,
		alerts:   alerts,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately; a cycle with source errors shortens the wait to the
// error backoff.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		errored := c.RunCycle(ctx)

		wait := c.cfg.Interval
		if errored {
			wait = c.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// RunCycle polls every source once and processes the results,
// reporting whether any source failed.
func (c *Coordinator) RunCycle(ctx context.Context) bool {
	start := time.Now()

	type batch struct {
		source string
		docs   []domain.Document
	}
	results := make(chan batch)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrent)

	var errMu sync.Mutex
	anyErrored := false

	go func() {
		for _, src := range c.sources {
			src := src
			g.Go(func() error {
				docs, err := src.Fetch(gctx)
				if err != nil {
					// One broken feed must not lose the cycle.
					metrics.SourceErrorsTotal.WithLabelValues(src.Name()).Inc()
					c.logger.Error("Source fetch failed",
						zap.String("source", src.Name()), zap.Error(err))
					errMu.Lock()
					anyErrored = true
					errMu.Unlock()
					c.mu.Lock()
					c.stats.SourceErrors++
					c.mu.Unlock()
					return nil
				}
				select {
				case results <- batch{source: src.Name(), docs: docs}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for b := range results {
		c.processBatch(ctx, b.source, b.docs)
	}

	c.mu.Lock()
	c.stats.CyclesCompleted++
	c.stats.LastCycleAt = time.Now().UTC()
	c.mu.Unlock()

	metrics.IngestCycleDuration.Observe(time.Since(start).Seconds())

	if c.cfg.SnapshotDir != "" {
		if err := c.index.Save(c.cfg.SnapshotDir); err != nil {
			c.logger.Error("Failed to save index snapshot", zap.Error(err))
		}
	}

	c.logger.Info("Ingest cycle completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("index_size", c.index.Len()),
		zap.Bool("errored", anyErrored),
	)
	return anyErrored
}

// processBatch runs the single-writer half of the cycle for one feed's
// documents: validate, dedup, embed, index, evaluate.
func (c *Coordinator) processBatch(ctx context.Context, source string, docs []domain.Document) {
	for i := range docs {
		doc := &docs[i]

		if err := doc.Validate(); err != nil {
			c.logger.Warn("Dropping malformed document",
				zap.String("source", source), zap.Error(err))
			continue
		}

		fresh, err := c.seen.CheckAndMark(ctx, doc.ID)
		if err != nil {
			c.logger.Warn("Seen-id check failed",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		if !fresh {
			metrics.DocumentsDedupedTotal.WithLabelValues(source).Inc()
			c.mu.Lock()
			c.stats.Duplicates++
			c.mu.Unlock()
			continue
		}

		result, err := c.embedder.Embed(ctx, doc.Text)
		if err != nil {
			// Only possible with a misconfigured embedder chain; the
			// fallback layer normally absorbs provider failures.
			c.logger.Error("Embedding failed, dropping document",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}

		if err := c.index.Insert(*doc, result.Embedding); err != nil {
			c.logger.Error("Index insert failed",
				zap.String("id", doc.ID), zap.Error(err))
			continue
		}

		metrics.DocumentsIngestedTotal.WithLabelValues(source).Inc()
		c.mu.Lock()
		c.stats.DocumentsAdded++
		c.mu.Unlock()

		for _, alert := range c.engine.Evaluate(doc) {
			c.alerts.Append(alert)
		}
	}
}

// Ingest feeds one document through the same dedup-embed-index-alert
// path the feeds use. It reports whether the document was new and the
// alerts it raised. Used by the document injection API.
func (c *Coordinator) Ingest(ctx context.Context, doc domain.Document) (bool, []domain.Alert, error) {
	if err := doc.Validate(); err != nil {
		return false, nil, err
	}

	fresh, err := c.seen.CheckAndMark(ctx, doc.ID)
	if err != nil {
		return false, nil, err
	}
	if !fresh {
		metrics.DocumentsDedupedTotal.WithLabelValues(doc.Source).Inc()
		c.mu.Lock()
		c.stats.Duplicates++
		c.mu.Unlock()
		return false, []domain.Alert{}, nil
	}

	result, err := c.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return false, nil, err
	}
	if err := c.index.Insert(doc, result.Embedding); err != nil {
		return false, nil, err
	}

	metrics.DocumentsIngestedTotal.WithLabelValues(doc.Source).Inc()
	c.mu.Lock()
	c.stats.DocumentsAdded++
	c.mu.Unlock()

	alerts := c.engine.Evaluate(&doc)
	for _, alert := range alerts {
		c.alerts.Append(alert)
	}
	return true, alerts, nil
}

// Stats returns a snapshot of coordinator counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
