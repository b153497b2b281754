// Package exec implements a worker-pool executor that drives an
// already-scheduled node list level by level, respecting the dependency
// edges the scheduler established (spec.md §5.1 supplemental runtime:
// the scheduler itself only ever produces a schedule and emits codegen,
// it never runs anything).
//
// Adapted from the teacher's runtime.Engine / runtime.StreamScheduler
// (runtime/runtime.go): the level-grouped ready/waiting task-group
// bookkeeping and per-level worker-goroutine fan-out are kept, rewritten
// against schednode.Node's InverseUsers edges instead of model.Node's
// numeric Topo adjacency list, and against a caller-supplied Dispatch
// callback instead of the fixed kernelCatalog opcode table (the
// scheduler's domain has no compiled kernel per node — see backend/cpu,
// backend/gpu for the textual-codegen analog of that table).
package exec

import (
	"fmt"
	"sync"
	"time"

	"github.com/sbl8/sublation/schednode"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Dispatch runs one scheduled node's work, given a scratch buffer
// allocated from the executor's arena for this dispatch.
type Dispatch func(n *schednode.Node, scratch []byte) error

// Options configures an Executor (teacher: runtime.EngineOptions).
type Options struct {
	Workers     int
	ScratchSize int // per-node scratch allocation, in bytes
	ArenaSize   int // total arena capacity; 0 auto-sizes from ScratchSize
	EnableStats bool
}

// DefaultOptions returns sensible defaults with the given worker count,
// raised to 1 when it is not positive (teacher:
// runtime.DefaultEngineOptions).
func DefaultOptions(workers int) Options {
	if workers <= 0 {
		workers = 1
	}
	return Options{Workers: workers, ScratchSize: 0, EnableStats: false}
}

// Stats tracks executor performance metrics (teacher: runtime.ExecutionStats).
type Stats struct {
	TotalRuns      int64
	AverageLatency time.Duration
	NodeDispatches map[schednode.Kind]int64
}

// Executor runs a scheduled node list to completion, one dependency
// level at a time, fanning each level out across a bounded worker pool.
type Executor struct {
	opts  Options
	log   *zap.Logger
	arena *Arena

	mu    sync.Mutex
	stats Stats
}

// New builds an Executor.
func New(opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	arenaSize := opts.ArenaSize
	if arenaSize == 0 {
		arenaSize = opts.ScratchSize * max(opts.Workers, 1)
	}
	return &Executor{
		opts:  opts,
		log:   log,
		arena: NewArena(arenaSize),
		stats: Stats{NodeDispatches: map[schednode.Kind]int64{}},
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run dispatches every node in nodes, honoring InverseUsers dependency
// edges: levels run one after another, and every predecessor of a node
// sits in an earlier level, so it has completed before the node runs.
// nodes must already be in topological order (as returned by
// scheduler.Scheduler.Nodes()).
func (e *Executor) Run(nodes []*schednode.Node, dispatch Dispatch) error {
	start := time.Now()
	levels := levelsOf(nodes)

	var errs error
	for _, level := range levels {
		if err := e.runLevel(level, dispatch); err != nil {
			errs = multierr.Append(errs, err)
		}
		e.arena.Reset()
	}

	if e.opts.EnableStats {
		e.recordRun(time.Since(start))
	}
	return errs
}

// levelsOf groups nodes by longest-path distance from a root (a node with
// no predecessor among nodes), so that every node in level i only depends on
// nodes in levels < i (teacher: StreamScheduler.createTaskGroups'
// level-by-dependency-depth grouping, restated as a single forward pass
// since the input is already topologically sorted — no cycle-guarded
// recursion is needed).
func levelsOf(nodes []*schednode.Node) [][]*schednode.Node {
	level := make(map[*schednode.Node]int, len(nodes))
	maxLevel := 0
	for _, n := range nodes {
		lvl := 0
		for _, u := range n.InverseUsers {
			if l, ok := level[u.Node]; ok && l+1 > lvl {
				lvl = l + 1
			}
		}
		level[n] = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	groups := make([][]*schednode.Node, maxLevel+1)
	for _, n := range nodes {
		lvl := level[n]
		groups[lvl] = append(groups[lvl], n)
	}
	return groups
}

func (e *Executor) runLevel(level []*schednode.Node, dispatch Dispatch) error {
	workers := e.opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(level) {
		workers = len(level)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan *schednode.Node, len(level))
	for _, n := range level {
		jobs <- n
	}
	close(jobs)

	var mu sync.Mutex
	var errs error
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				if err := e.dispatchOne(n, dispatch); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("exec: node %q: %w", n.Name, err))
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return errs
}

func (e *Executor) dispatchOne(n *schednode.Node, dispatch Dispatch) error {
	var scratch []byte
	if e.opts.ScratchSize > 0 {
		e.mu.Lock()
		buf, err := e.arena.Allocate(e.opts.ScratchSize)
		e.mu.Unlock()
		if err != nil {
			e.log.Warn("scratch allocation failed, dispatching without scratch",
				zap.String("node", n.Name), zap.Error(err))
		} else {
			scratch = buf
		}
	}

	if err := dispatch(n, scratch); err != nil {
		return err
	}

	if e.opts.EnableStats {
		e.mu.Lock()
		e.stats.NodeDispatches[n.Kind]++
		e.mu.Unlock()
	}
	return nil
}

func (e *Executor) recordRun(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.TotalRuns++
	if e.stats.TotalRuns == 1 {
		e.stats.AverageLatency = d
		return
	}
	e.stats.AverageLatency = time.Duration(
		(int64(e.stats.AverageLatency)*(e.stats.TotalRuns-1) + int64(d)) / e.stats.TotalRuns,
	)
}

// Stats returns a snapshot of current execution statistics.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.stats
	out.NodeDispatches = make(map[schednode.Kind]int64, len(e.stats.NodeDispatches))
	for k, v := range e.stats.NodeDispatches {
		out.NodeDispatches[k] = v
	}
	return out
}
