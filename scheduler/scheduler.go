// Package scheduler implements the fusion scheduler: dependency graph
// construction (honoring aliasing and mutation), topological ordering,
// bounded greedy fusion, lifetime (last-usage) computation, and the
// per-device codegen driver (spec.md §4).
//
// Grounded on the teacher's runtime.Engine / runtime.StreamScheduler
// (runtime/runtime.go) for the overall "build once, drive forward" shape,
// and on compiler.detectCycles / compiler.optimizeNodeLayout
// (compiler/compiler.go) for the adjacency-map-plus-Kahn's-algorithm
// bookkeeping idiom this package's graph passes are built from.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/sbl8/sublation/config"
	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
	"github.com/sbl8/sublation/schednode"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const maxFusionPasses = 10 // spec.md §9 "Bounded fixed-point... preserve the cap"

// Scheduler owns the fusion scheduling graph for one compilation.
type Scheduler struct {
	ctx      *ir.Context
	cfg      config.Config
	backends map[ir.Device]ir.Backend

	nodes []*schednode.Node

	availableBufferNames map[string]bool
	mutationRenames      map[string]string
	mutationRealName     map[string]string
	canonical            map[string]string
}

// resolve returns the canonical storage-location name for a buffer name:
// its alias-class root composed with its mutation-rename chain, as
// snapshotted by computeDependencies. Names never touched by aliasing or
// mutation resolve to themselves.
func (s *Scheduler) resolve(name string) string {
	if c, ok := s.canonical[name]; ok {
		return c
	}
	return name
}

// New builds a Scheduler from a topologically-valid list of IR buffers.
// It runs node construction, dependency computation, topological sort,
// predecessor closure, dead-code elimination, fusion to a bounded fixed
// point, and last-usage annotation — everything up to Codegen (spec.md
// §2 control flow).
func New(bufs []ir.Buffer, ctx *ir.Context, backends map[ir.Device]ir.Backend, cfg config.Config) (*Scheduler, error) {
	nodes, err := schednode.NewFromBuffers(bufs, backends)
	if err != nil {
		return nil, fmt.Errorf("scheduler: node construction: %w", err)
	}

	s := &Scheduler{
		ctx:                  ctx,
		cfg:                  cfg,
		backends:             backends,
		nodes:                nodes,
		availableBufferNames: map[string]bool{},
		mutationRenames:      map[string]string{},
		mutationRealName:     map[string]string{},
	}

	for _, name := range ctx.Graph.GraphInputs {
		s.availableBufferNames[name] = true
	}
	for _, name := range ctx.Graph.Constants {
		s.availableBufferNames[name] = true
	}
	s.pruneUnmetDependencies()

	if err := s.computeDependencies(); err != nil {
		return nil, fmt.Errorf("scheduler: compute_dependencies: %w", err)
	}

	s.topologicalSortSchedule()
	s.computeRecursivePredecessors()
	s.eliminateDeadNodes()

	if err := s.fuseNodes(); err != nil {
		return nil, fmt.Errorf("scheduler: fusion: %w", err)
	}

	s.computeLastUsage()

	if cfg.WriteSchedulerGraph {
		s.dumpDebugGraph()
	}

	return s, nil
}

// Nodes returns the final, post-fusion schedule in execution order. The
// synthetic Output pin nodes are not part of the schedule and are left out.
// Callers must not mutate the returned slice.
func (s *Scheduler) Nodes() []*schednode.Node {
	out := make([]*schednode.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.Kind != schednode.KindOutput {
			out = append(out, n)
		}
	}
	return out
}

func (s *Scheduler) pruneUnmetDependencies() {
	for _, n := range s.nodes {
		pruned := dep.Set{}
		for _, d := range n.UnmetDependencies.Items() {
			if !s.availableBufferNames[d.BufName()] {
				pruned.Add(d)
			}
		}
		n.UnmetDependencies = pruned
	}
}

// usedBufferNames returns every buffer name a node's own identity, reads,
// or writes reference — the bucketing key for fusion-candidate generation
// (spec.md §4.5 "By shared buffer name in used_buffer_names()").
func usedBufferNames(n *schednode.Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, nm := range n.GetNames() {
		add(nm)
	}
	for _, d := range n.RW.Reads.Items() {
		add(d.BufName())
	}
	for _, d := range n.RW.Writes.Items() {
		add(d.BufName())
	}
	return out
}

func (s *Scheduler) log() *zap.Logger {
	if s.ctx != nil && s.ctx.Log != nil {
		return s.ctx.Log
	}
	return zap.NewNop()
}

// flushAllBackends asks every backend that produced at least one node to
// flush, aggregating any errors (spec.md §4.7 step 5, DOMAIN STACK
// multierr use).
func (s *Scheduler) flushAllBackends() error {
	var errs error
	devices := make([]ir.Device, 0, len(s.backends))
	for d := range s.backends {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })
	for _, d := range devices {
		if err := s.backends[d].Flush(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("backend %q flush: %w", d, err))
		}
	}
	return errs
}
