package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/goresilience"
	"github.com/slok/goresilience/timeout"

	"github.com/focusmcp/focusmcp/engine/core"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

const (
	DefaultItemTimeout = 60 * time.Second
	DefaultMaxItems    = 500
)

// Config bounds a batch run.
type Config struct {
	// ItemTimeout bounds one creator call. Zero disables the bound.
	ItemTimeout time.Duration
	// MaxItems rejects larger batches. Zero means unlimited.
	MaxItems int
}

// DefaultConfig returns a 60s item timeout and a 500 item limit.
func DefaultConfig() *Config {
	return &Config{ItemTimeout: DefaultItemTimeout, MaxItems: DefaultMaxItems}
}

// Option customizes Config in NewEngine.
type Option func(*Config)

// WithItemTimeout sets the per-item timeout; 0 disables it.
func WithItemTimeout(d time.Duration) Option {
	return func(c *Config) { c.ItemTimeout = d }
}

// WithMaxItems sets the batch size limit; 0 means unlimited.
func WithMaxItems(n int) Option {
	return func(c *Config) { c.MaxItems = n }
}

// Engine creates a batch of interdependent tasks and projects, resolving
// parentTempId references to the ids returned by earlier creations.
type Engine struct {
	creator Creator
	config  *Config
	runner  goresilience.Runner
}

// NewEngine validates the options and builds an engine around creator.
func NewEngine(creator Creator, opts ...Option) (*Engine, error) {
	if creator == nil {
		return nil, errors.New("batch: creator is required")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ItemTimeout < 0 {
		return nil, fmt.Errorf("batch: item timeout must not be negative, got %s", cfg.ItemTimeout)
	}
	if cfg.MaxItems < 0 {
		return nil, fmt.Errorf("batch: max items must not be negative, got %d", cfg.MaxItems)
	}
	e := &Engine{creator: creator, config: cfg}
	if cfg.ItemTimeout > 0 {
		e.runner = goresilience.RunnerChain(timeout.NewMiddleware(timeout.Config{Timeout: cfg.ItemTimeout}))
	}
	return e, nil
}

// RunSpecs converts wire items and runs them. A spec that cannot be
// converted fails the whole batch.
func (e *Engine) RunSpecs(ctx context.Context, specs []ItemSpec) *Result {
	items, err := ToItems(specs)
	if err != nil {
		return aborted(err.Error())
	}
	return e.Run(ctx, items)
}

// Run processes items serially. Per-item failures never abort the batch;
// only structural problems with the batch itself do.
func (e *Engine) Run(ctx context.Context, items []Item) (result *Result) {
	start := time.Now()
	log := logger.FromContext(ctx).With("batch_id", core.NewID().String(), "items", len(items))
	ctx = logger.ContextWithLogger(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Batch aborted by panic", "panic", r)
			result = aborted(fmt.Sprintf("Batch aborted: %v", r))
		}
		recordRun(ctx, time.Since(start), result.Success)
	}()

	if e.config.MaxItems > 0 && len(items) > e.config.MaxItems {
		return aborted(fmt.Sprintf("Batch too large: %d items exceeds the limit of %d", len(items), e.config.MaxItems))
	}
	g, err := buildGraph(items)
	if err != nil {
		log.Warn("Batch rejected", "error", err)
		return aborted(err.Error())
	}

	results := make([]*ItemResult, len(items))
	cycles := g.cycles()
	for i, msg := range cycles {
		results[i] = failure("%s", msg)
		recordItem(ctx, kindOf(items[i]), outcomeCycle)
	}
	recordCycles(ctx, countCycles(cycles))
	for i := range items {
		if results[i] != nil {
			continue
		}
		if res := precheck(g, i); res != nil {
			results[i] = res
			recordItem(ctx, kindOf(items[i]), outcomeSkipped)
		}
	}

	s := newScheduler(g, e.creator, e.runner, results)
	s.drain(ctx, func(i int, res *ItemResult) {
		outcome := outcomeSucceeded
		if !res.Success {
			outcome = outcomeFailed
		}
		recordItem(ctx, kindOf(items[i]), outcome)
		log.Debug("Batch item finished",
			"index", i,
			"temp_id", items[i].TempID,
			"success", res.Success,
			"id", res.ID,
			"error", res.Error,
		)
	})

	result = aggregate(results)
	log.Info("Batch finished",
		"success", result.Success,
		"succeeded", countSucceeded(result.Results),
		"cycles", len(cycles),
		"duration", time.Since(start),
	)
	return result
}

// precheck rejects items that can never be sent to a creator.
func precheck(g *graph, i int) *ItemResult {
	it := g.items[i]
	if it.Payload == nil {
		return failure("Invalid item: missing payload")
	}
	if it.ParentTempID != "" && it.ExplicitParentID == "" {
		if _, ok := g.index[it.ParentTempID]; !ok {
			return failure("Unknown parentTempId: %s", it.ParentTempID)
		}
		if it.Payload.Kind() == KindProject {
			return failure("Invalid parentTempId for project: %s", it.ParentTempID)
		}
	}
	if it.Payload.Name() == "" {
		return failure("Invalid item: name is required")
	}
	return nil
}

func kindOf(it Item) Kind {
	if it.Payload == nil {
		return ""
	}
	return it.Payload.Kind()
}

func countCycles(members map[int]string) int {
	distinct := make(map[string]struct{}, len(members))
	for _, msg := range members {
		distinct[msg] = struct{}{}
	}
	return len(distinct)
}
