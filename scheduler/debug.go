package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MutationRenames exposes the forward mutation-rename map: each mutated
// (original or prior-owner) name → the name of the node that now owns that
// storage, for debug dumps and tests.
func (s *Scheduler) MutationRenames() map[string]string {
	out := make(map[string]string, len(s.mutationRenames))
	for k, v := range s.mutationRenames {
		out[k] = v
	}
	return out
}

// dumpDebugGraph renders the current schedule to the configured DebugSink
// under a UUID-stamped label, gated on cfg.WriteSchedulerGraph
// (INDUCTOR_WRITE_SCHEDULER_GRAPH, spec.md §6).
func (s *Scheduler) dumpDebugGraph() {
	var sb strings.Builder
	for _, n := range s.nodes {
		users := make([]string, 0, len(n.Users))
		for _, u := range n.Users {
			users = append(users, u.Node.Name)
		}
		sort.Strings(users)
		fmt.Fprintf(&sb, "%s %s names=%v users=%v unmet=%v\n",
			n.Kind, n.Name, n.GetNames(), users, n.UnmetDependencies.Names())
	}

	label := "scheduler-graph-" + uuid.NewString()
	if err := s.ctx.Debug.Write(label, []byte(sb.String())); err != nil {
		s.log().Warn("debug graph dump failed", zap.String("label", label), zap.Error(err))
	}
}
