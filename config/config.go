// Package config holds the scheduler's configuration record, read once at
// construction (spec.md §6), and the single observable environment
// variable that enables debug-graph rendering.
//
// Shaped after the teacher's options-struct-plus-defaults idiom
// (compiler.CompileOptions/DefaultOptions, runtime.EngineOptions/
// DefaultEngineOptions).
package config

import (
	"os"
	"strconv"
)

// DebugGraphEnvVar is the one environment variable the scheduler's
// ambient environment observes (spec.md §6).
const DebugGraphEnvVar = "INDUCTOR_WRITE_SCHEDULER_GRAPH"

// CPUConfig holds the CPU backend's sub-group tuning knobs.
type CPUConfig struct {
	// MinChunkSize is the minimum number of elements a CPU sub-group
	// loop chunk is allowed to shrink to.
	MinChunkSize int
}

// Config is the scheduler's configuration record (spec.md §6).
type Config struct {
	Debug bool

	// InplaceBuffers is currently disabled (spec.md §9 Open Questions:
	// the in-place reuse path is a permanent no-op). Kept as a field so
	// the record's shape matches spec.md, but nothing reads it as true.
	InplaceBuffers bool

	PickLoopOrders   bool
	AggressiveFusion bool
	MaxFusionSize    int
	CommentOrigin    bool

	CPU CPUConfig

	// WriteSchedulerGraph mirrors DebugGraphEnvVar, read once at Load.
	WriteSchedulerGraph bool
}

// Default returns the scheduler's default configuration.
func Default() Config {
	return Config{
		Debug:            false,
		InplaceBuffers:   false,
		PickLoopOrders:   true,
		AggressiveFusion: false,
		MaxFusionSize:    64,
		CommentOrigin:    false,
		CPU:              CPUConfig{MinChunkSize: 4096},
	}
}

// Load returns the default configuration with WriteSchedulerGraph set
// from the environment (spec.md §6: "read once"). Callers that also parse
// CLI flags should start from Load and override fields explicitly.
func Load() Config {
	c := Default()
	c.WriteSchedulerGraph = envBool(DebugGraphEnvVar)
	return c
}

func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "1"
	}
	return b
}
