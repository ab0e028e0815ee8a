package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// BatchItem is one object to migrate in a batch run. Key identifies the
// item in the result map; an empty Direction defaults to Forward.
type BatchItem struct {
	Key       string
	Object    any
	From      Version
	To        Version
	Direction Direction
}

// BatchResult collects the per-item outcomes of a batch run.
type BatchResult struct {
	Results map[string]Result
	Errors  []error
	Success bool
}

// BatchMigrator migrates multiple independent objects through one shared
// Migrator, sequentially or fanned out. Items run on the context surface, so
// any mixture of plain and context steps works.
type BatchMigrator struct {
	m      *Migrator
	items  []BatchItem
	logger logrus.FieldLogger
	mu     sync.Mutex
}

// NewBatchMigrator creates a batch runner over m.
func NewBatchMigrator(m *Migrator) *BatchMigrator {
	return &BatchMigrator{
		m:      m,
		items:  make([]BatchItem, 0),
		logger: logrus.WithField("component", "batch_migrator"),
	}
}

// Add queues one item.
func (b *BatchMigrator) Add(item BatchItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item)
}

// AddAll queues multiple items.
func (b *BatchMigrator) AddAll(items []BatchItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, items...)
}

// Clear drops all queued items.
func (b *BatchMigrator) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = make([]BatchItem, 0)
}

// Run migrates all queued items and reports per-item results. With parallel
// set, items run concurrently; each individual chain still executes strictly
// in order, the fan-out is only across independent items.
func (b *BatchMigrator) Run(ctx context.Context, parallel bool) *BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := &BatchResult{
		Results: make(map[string]Result),
		Success: true,
	}
	if len(b.items) == 0 {
		return result
	}
	if parallel {
		return b.runParallel(ctx)
	}
	return b.runSequential(ctx)
}

func (b *BatchMigrator) runSequential(ctx context.Context) *BatchResult {
	result := &BatchResult{
		Results: make(map[string]Result),
		Success: true,
	}
	for _, item := range b.items {
		res, err := b.runItem(ctx, item)
		result.Results[item.Key] = res
		if err != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Errorf("migration failed for %s: %w", item.Key, err))
		}
	}
	return result
}

func (b *BatchMigrator) runParallel(ctx context.Context) *BatchResult {
	result := &BatchResult{
		Results: make(map[string]Result),
		Success: true,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, item := range b.items {
		wg.Add(1)
		go func(item BatchItem) {
			defer wg.Done()

			res, err := b.runItem(ctx, item)
			mu.Lock()
			result.Results[item.Key] = res
			if err != nil {
				result.Success = false
				result.Errors = append(result.Errors, fmt.Errorf("migration failed for %s: %w", item.Key, err))
			}
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	return result
}

func (b *BatchMigrator) runItem(ctx context.Context, item BatchItem) (Result, error) {
	d := item.Direction
	if d == "" {
		d = Forward
	}
	var res Result
	var err error
	switch d {
	case Backward:
		res, err = b.m.BackwardContext(ctx, item.Object, item.From, item.To)
	default:
		res, err = b.m.ForwardContext(ctx, item.Object, item.From, item.To)
	}
	if err != nil {
		b.logger.WithError(err).WithField("key", item.Key).Warn("batch item failed")
	}
	return res, err
}
