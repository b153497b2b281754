// Package sublation implements a fusion scheduler for a tensor-compiler
// backend: given a topologically-valid list of IR buffers, it builds a
// dependency graph (honoring aliasing and mutation), orders it
// topologically, greedily fuses compatible nodes to a bounded fixed
// point, computes buffer lifetimes, and drives per-device codegen.
//
// # Architecture Overview
//
// The scheduler is organized as a small pipeline of packages:
//
//   - ir: the read-only Buffer/Backend/WrapperCode façade the scheduler
//     consumes; IR construction itself is out of scope.
//   - dep: structural dependency expressions (MemoryDep, StarDep) and the
//     read/write sets built from them.
//   - schednode: the tagged-union scheduler node type (Computed,
//     Template, Extern, Nop, Fused, Output).
//   - scheduler: dependency computation, topological sort, dead-code
//     elimination, fusion, last-usage annotation, and the codegen driver.
//   - backend/cpu, backend/gpu: per-device Backend implementations
//     emitting deterministic textual kernel programs.
//   - exec: a worker-pool executor that dispatches an already-scheduled
//     node list level by level (a supplemental runtime, not required by
//     the scheduler itself).
//   - jsongraph: a textual graph-description format for driving the
//     scheduler from a file, used by cmd/fusesched.
//   - looporder: loop-order selection for Computed buffers.
//
// # Basic Usage
//
//	sched, err := scheduler.New(buffers, ctx, backends, config.Load())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sched.Codegen(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Package Structure
//
//   - ir: buffer/backend/wrapper capability interfaces
//   - dep: dependency expressions and read/write sets
//   - schednode: the scheduler node type
//   - scheduler: the scheduling pipeline itself
//   - backend/cpu, backend/gpu: per-device backends
//   - exec: supplemental worker-pool executor
//   - jsongraph: textual graph input format
//   - looporder: loop-order heuristics
//   - wrapper: host-side allocation/free driver
//   - cmd/fusesched: command-line entry point
package sublation
