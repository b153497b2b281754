// Command fusesched drives the fusion scheduler over a JSON-described
// buffer graph and prints the resulting per-backend kernel programs.
//
// Replaces the teacher's cmd/sublrun entry point: sublrun drove
// runtime.Engine over a compiled .subl model; fusesched drives
// scheduler.Scheduler over a jsongraph.Graph, since the scheduler has no
// compiled-model input format of its own.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sbl8/sublation/backend/cpu"
	"github.com/sbl8/sublation/backend/gpu"
	"github.com/sbl8/sublation/config"
	"github.com/sbl8/sublation/exec"
	"github.com/sbl8/sublation/ir"
	"github.com/sbl8/sublation/jsongraph"
	"github.com/sbl8/sublation/schednode"
	"github.com/sbl8/sublation/scheduler"
	"github.com/sbl8/sublation/wrapper"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		graphPath        = pflag.StringP("graph", "g", "", "path to a JSON graph description (required)")
		aggressiveFusion = pflag.Bool("aggressive-fusion", false, "enable group-key bucketed horizontal fusion")
		maxFusionSize    = pflag.Int("max-fusion-size", config.Default().MaxFusionSize, "maximum constituent count for a fused node")
		minChunkSize     = pflag.Int("cpu-min-chunk-size", config.Default().CPU.MinChunkSize, "CPU backend sub-group chunk size")
		commentOrigin    = pflag.Bool("comment-origin", false, "set the comment_origin config field (emitted kernel programs carry no origin annotations)")
		execute          = pflag.Bool("execute", false, "dispatch the schedule through the worker-pool executor after codegen")
		workers          = pflag.Int("workers", 4, "executor worker-pool size (only with --execute)")
		verbose          = pflag.BoolP("verbose", "v", false, "enable debug-level logging")
	)
	pflag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fusesched: logger setup: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	if *graphPath == "" {
		log.Error("missing required flag", zap.String("flag", "graph"))
		pflag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*graphPath)
	if err != nil {
		log.Fatal("failed to open graph file", zap.Error(err))
	}
	defer f.Close()

	g, err := jsongraph.Parse(f)
	if err != nil {
		log.Fatal("failed to parse graph file", zap.Error(err))
	}

	cfg := config.Load()
	cfg.AggressiveFusion = *aggressiveFusion
	cfg.MaxFusionSize = *maxFusionSize
	cfg.CPU.MinChunkSize = *minChunkSize
	cfg.CommentOrigin = *commentOrigin

	cpuBackend := cpu.New("cpu", cfg.CPU, log.Named("backend.cpu"))
	gpuBackend := gpu.New("gpu", log.Named("backend.gpu"))
	backends := map[ir.Device]ir.Backend{
		"cpu": cpuBackend,
		"gpu": gpuBackend,
	}

	graph := ir.NewGraph(g.GraphInputs, g.Constants, g.Outputs)
	for _, m := range g.MutatedInputs {
		graph.MutatedInputs[m] = true
	}

	ctx := ir.NewContext(graph, wrapper.New(log.Named("wrapper")), log, debugSink{log: log})

	sched, err := scheduler.New(g.Buffers(), ctx, backends, cfg)
	if err != nil {
		log.Fatal("scheduler construction failed", zap.Error(err))
	}
	log.Info("schedule built", zap.Int("nodes", len(sched.Nodes())))

	if err := sched.Codegen(); err != nil {
		log.Fatal("codegen failed", zap.Error(err))
	}

	for _, program := range cpuBackend.Output {
		fmt.Println(program)
	}
	for _, program := range gpuBackend.Output {
		fmt.Println(program)
	}

	if *execute {
		opts := exec.DefaultOptions(*workers)
		opts.EnableStats = true
		executor := exec.New(opts, log.Named("exec"))
		err := executor.Run(sched.Nodes(), func(n *schednode.Node, scratch []byte) error {
			log.Debug("dispatch", zap.String("node", n.Name), zap.Stringer("kind", n.Kind))
			return nil
		})
		if err != nil {
			log.Fatal("execution failed", zap.Error(err))
		}
		stats := executor.Stats()
		log.Info("execution complete", zap.Int64("runs", stats.TotalRuns), zap.Duration("avg_latency", stats.AverageLatency))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// debugSink writes scheduler-graph dumps as structured log lines rather
// than to a file, since fusesched has no dedicated debug-output path.
type debugSink struct {
	log *zap.Logger
}

func (d debugSink) Write(label string, payload []byte) error {
	d.log.Debug("scheduler graph dump", zap.String("label", label), zap.ByteString("payload", payload))
	return nil
}
