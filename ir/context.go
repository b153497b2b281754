package ir

import "go.uber.org/zap"

// Graph is the mutable/read-only ambient the scheduler shares with its
// caller during codegen (spec.md §5 "Shared-resource policy"). The
// scheduler writes RemovedBuffers. MutatedInputs is filled by the caller
// and only read by the scheduler, which pins each listed name; it does
// not add mutated graph inputs to it itself. DeviceTypes is not touched
// by the scheduler. GraphInputs/Constants/GetOutputNames are read-only
// inputs supplied by the (out-of-scope) compile driver.
type Graph struct {
	GraphInputs []string
	Constants   []string
	OutputNames []string

	RemovedBuffers map[string]bool
	MutatedInputs  map[string]bool
	DeviceTypes    map[Device]bool
}

// NewGraph builds a Graph with initialized mutable sets.
func NewGraph(graphInputs, constants, outputNames []string) *Graph {
	return &Graph{
		GraphInputs:    graphInputs,
		Constants:      constants,
		OutputNames:    outputNames,
		RemovedBuffers: map[string]bool{},
		MutatedInputs:  map[string]bool{},
		DeviceTypes:    map[Device]bool{},
	}
}

// GetOutputNames returns the graph's declared output buffer names.
func (g *Graph) GetOutputNames() []string { return g.OutputNames }

// DebugSink receives opaque debug-graph-render output when enabled
// (spec.md §6, INDUCTOR_WRITE_SCHEDULER_GRAPH). Rendering itself is an
// out-of-scope collaborator; the scheduler only ever calls Write.
type DebugSink interface {
	Write(label string, payload []byte) error
}

// NoopDebugSink discards everything written to it; NewContext uses it when
// no sink is supplied.
type NoopDebugSink struct{}

func (NoopDebugSink) Write(string, []byte) error { return nil }

// Context is the explicit aggregate threaded into the scheduler in place
// of the dynamic globals the original relies on (spec.md §9 "Global
// ambients"): the current graph, the wrapper-code emitter, a logger, and
// a debug sink.
type Context struct {
	Graph   *Graph
	Wrapper WrapperCode
	Log     *zap.Logger
	Debug   DebugSink
}

// NewContext builds a Context, defaulting Log to a no-op logger and Debug
// to a no-op sink when not supplied.
func NewContext(graph *Graph, wrapper WrapperCode, log *zap.Logger, debug DebugSink) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	if debug == nil {
		debug = NoopDebugSink{}
	}
	return &Context{Graph: graph, Wrapper: wrapper, Log: log, Debug: debug}
}
