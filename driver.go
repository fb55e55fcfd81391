package genson

import (
	"context"
	"runtime"
	"sync"
	"time"

	logv2 "charm.land/log/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Timings is the optional per-stage breakdown the driver publishes when
// profiling is enabled (§4.4).
type Timings struct {
	RunID      string
	Parse      time.Duration
	Build      time.Duration
	Merge      time.Duration
	Inference  time.Duration
	Normalise  time.Duration
	Workers    int
	Documents  int
}

// Result is what Run returns: the merged, map-inferred schema plus
// optional timings.
type Result struct {
	Schema  *Node
	Timings *Timings
}

// Cancellation is the cooperative flag the driver checks between documents
// (§5: "The driver checks a cooperative cancellation flag between
// documents only").
type Cancellation struct {
	flag chan struct{}
}

// NewCancellation returns a Cancellation that has not yet fired.
func NewCancellation() *Cancellation { return &Cancellation{flag: make(chan struct{})} }

// Cancel fires the flag. Safe to call more than once.
func (c *Cancellation) Cancel() {
	select {
	case <-c.flag:
	default:
		close(c.flag)
	}
}

func (c *Cancellation) cancelled() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.flag:
		return true
	default:
		return false
	}
}

// Run partitions documents round-robin across a bounded worker pool, folds
// Merge over each partition, and tree-reduces the partials (§4.4,
// component D). Because Merge is associative and commutative, the result
// is independent of worker count and partition boundaries.
func Run(ctx context.Context, docs []any, cfg *Config, cancel *Cancellation) (*Result, error) {
	start := time.Now()
	logger := logv2.Default().With("documents", len(docs))

	workers := chooseWorkerCount(len(docs), cfg)
	logger.Debug("starting driver run", "workers", workers)

	partitions := partitionRoundRobin(docs, workers)

	partials := make([]*Node, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, partition := range partitions {
		i, partition := i, partition
		g.Go(func() error {
			acc := Unknown()
			for _, doc := range partition {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if cancel.cancelled() {
					return ErrCancelled
				}
				acc = Merge(acc, Build(doc))
			}
			partials[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buildElapsed := time.Since(start)
	mergeStart := time.Now()
	merged := treeReduce(partials, workers)
	mergeElapsed := time.Since(mergeStart)

	inferStart := time.Now()
	inferred := InferMaps(merged, cfg)
	inferElapsed := time.Since(inferStart)

	result := &Result{Schema: inferred}
	if cfg.Profile {
		result.Timings = &Timings{
			RunID:     uuid.NewString(),
			Build:     buildElapsed,
			Merge:     mergeElapsed,
			Inference: inferElapsed,
			Workers:   workers,
			Documents: len(docs),
		}
		logger.Debug("driver run complete",
			"run_id", result.Timings.RunID,
			"build", buildElapsed,
			"merge", mergeElapsed,
			"inference", inferElapsed,
		)
	}
	return result, nil
}

func chooseWorkerCount(n int, cfg *Config) int {
	if n == 0 {
		return 1
	}
	w := runtime.GOMAXPROCS(0)
	if w > n {
		w = n
	}
	if cfg.MaxBuilders != nil && int(*cfg.MaxBuilders) < w {
		w = int(*cfg.MaxBuilders)
	}
	if w < 1 {
		w = 1
	}
	return w
}

func partitionRoundRobin(docs []any, workers int) [][]any {
	partitions := make([][]any, workers)
	for i, doc := range docs {
		p := i % workers
		partitions[p] = append(partitions[p], doc)
	}
	return partitions
}

// treeReduce combines partials with a balanced pairwise reduction rather
// than a left fold, bounding peak live-schema count to O(log W)
// intermediates on top of the W partials (§5's resource policy). Each
// level's pairwise merges are themselves dispatched across the same
// worker budget used to build the partials, one goroutine per pair,
// bounded by a semaphore rather than an unbounded fan-out.
func treeReduce(nodes []*Node, workers int) *Node {
	if len(nodes) == 0 {
		return Unknown()
	}
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	for len(nodes) > 1 {
		next := make([]*Node, (len(nodes)+1)/2)
		var wg sync.WaitGroup
		for i := 0; i < len(nodes); i += 2 {
			if i+1 >= len(nodes) {
				next[i/2] = nodes[i]
				continue
			}
			left, right, slot := nodes[i], nodes[i+1], i/2
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = sem.Acquire(context.Background(), 1)
				defer sem.Release(1)
				next[slot] = Merge(left, right)
			}()
		}
		wg.Wait()
		nodes = next
	}
	return nodes[0]
}
