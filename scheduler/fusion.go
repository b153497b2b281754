package scheduler

import (
	"fmt"
	"sort"

	"github.com/sbl8/sublation/dep"
	"github.com/sbl8/sublation/ir"
	"github.com/sbl8/sublation/schednode"
)

type candidatePair struct {
	a, b *schednode.Node
}

// fuseNodes runs fuseNodesOnce to a bounded fixed point (spec.md §4.5,
// §9 "preserve the cap"): at most maxFusionPasses sweeps, stopping early
// once a sweep fuses nothing.
func (s *Scheduler) fuseNodes() error {
	for pass := 0; pass < maxFusionPasses; pass++ {
		changed, err := s.fuseNodesOnce()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}
	return nil
}

// fuseNodesOnce generates every legal, cycle-free fusion candidate, scores
// them, and greedily applies the highest-scoring, non-overlapping subset in
// a single sweep.
func (s *Scheduler) fuseNodesOnce() (bool, error) {
	candidates := s.generateFusionCandidates()

	cycleCache := map[string]bool{}

	type scoredPair struct {
		producer, consumer *schednode.Node
		score              fusionScore
	}
	var legal []scoredPair

	for _, c := range candidates {
		producer, consumer, ok := s.tryFuse(c.a, c.b)
		if !ok {
			continue
		}
		if s.willFusionCreateCycle(producer, consumer, cycleCache) {
			continue
		}
		legal = append(legal, scoredPair{producer, consumer, scoreFusion(producer, consumer)})
	}

	if len(legal) == 0 {
		return false, nil
	}

	sort.SliceStable(legal, func(i, j int) bool { return legal[i].score.better(legal[j].score) })

	used := map[*schednode.Node]bool{}
	replacement := map[*schednode.Node]*schednode.Node{}
	for _, c := range legal {
		if used[c.producer] || used[c.consumer] {
			continue
		}
		used[c.producer] = true
		used[c.consumer] = true

		fused := schednode.Fuse(c.producer, c.consumer)
		fused.Users = dedupUsers(filterOut(append(append([]schednode.NodeUser{}, c.producer.Users...), c.consumer.Users...), c.producer, c.consumer))
		fused.InverseUsers = dedupUsers(filterOut(append(append([]schednode.NodeUser{}, c.producer.InverseUsers...), c.consumer.InverseUsers...), c.producer, c.consumer))

		replacement[c.producer] = fused
		replacement[c.consumer] = fused
	}

	if len(replacement) == 0 {
		return false, nil
	}

	seenFused := map[*schednode.Node]bool{}
	rebuilt := make([]*schednode.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if rep, ok := replacement[n]; ok {
			if seenFused[rep] {
				continue
			}
			seenFused[rep] = true
			rebuilt = append(rebuilt, rep)
			continue
		}
		rebuilt = append(rebuilt, n)
	}

	for _, n := range rebuilt {
		n.Users = dedupUsers(remapUsers(n.Users, replacement))
		n.InverseUsers = dedupUsers(remapUsers(n.InverseUsers, replacement))
	}

	s.nodes = rebuilt
	return true, nil
}

func filterOut(users []schednode.NodeUser, a, b *schednode.Node) []schednode.NodeUser {
	out := users[:0:0]
	for _, u := range users {
		if u.Node == a || u.Node == b {
			continue
		}
		out = append(out, u)
	}
	return out
}

func remapUsers(users []schednode.NodeUser, replacement map[*schednode.Node]*schednode.Node) []schednode.NodeUser {
	out := make([]schednode.NodeUser, len(users))
	for i, u := range users {
		if rep, ok := replacement[u.Node]; ok {
			u.Node = rep
		}
		out[i] = u
	}
	return out
}

func dedupUsers(users []schednode.NodeUser) []schednode.NodeUser {
	byNode := map[*schednode.Node]*schednode.NodeUser{}
	var order []*schednode.Node
	for _, u := range users {
		if existing, ok := byNode[u.Node]; ok {
			existing.CanInplace = existing.CanInplace && u.CanInplace
			continue
		}
		uc := u
		byNode[u.Node] = &uc
		order = append(order, u.Node)
	}
	out := make([]schednode.NodeUser, 0, len(order))
	for _, n := range order {
		out = append(out, *byNode[n])
	}
	return out
}

// generateFusionCandidates buckets live, non-output nodes by every buffer
// name they use, and — when aggressive fusion is enabled — also by group
// key, then emits every unordered pair sharing a bucket exactly once
// (spec.md §4.5 "Candidate generation").
func (s *Scheduler) generateFusionCandidates() []candidatePair {
	buckets := map[string][]*schednode.Node{}
	for _, n := range s.nodes {
		if n.Kind == schednode.KindOutput {
			continue
		}
		for _, nm := range usedBufferNames(n) {
			buckets[nm] = append(buckets[nm], n)
		}
		if s.cfg.AggressiveFusion {
			if key, ok := groupOf(n); ok {
				bk := "group:" + string(key.Device) + "/" + key.Key
				buckets[bk] = append(buckets[bk], n)
			}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := map[string]bool{}
	var out []candidatePair
	for _, k := range keys {
		nodes := buckets[k]
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				a, b := nodes[i], nodes[j]
				if a == b {
					continue
				}
				pk := pairKey(a, b)
				if seen[pk] {
					continue
				}
				seen[pk] = true
				out = append(out, candidatePair{a, b})
			}
		}
	}
	return out
}

func pairKey(a, b *schednode.Node) string {
	pa, pb := fmt.Sprintf("%p", a), fmt.Sprintf("%p", b)
	if pa > pb {
		pa, pb = pb, pa
	}
	return pa + "|" + pb
}

// groupOf returns the (device, group key) pair that participates in
// horizontal fusion bucketing: a Computed/Template node's own group, or a
// Fused node's leading constituent's group. Extern and Nop nodes have none.
func groupOf(n *schednode.Node) (ir.GroupKey, bool) {
	switch n.Kind {
	case schednode.KindComputed, schednode.KindTemplate:
		return n.Group.Key, true
	case schednode.KindFused:
		if len(n.Constituents) > 0 {
			return groupOf(n.Constituents[0])
		}
	}
	return ir.GroupKey{}, false
}

// tryFuse attempts both orderings of an unordered candidate pair and
// returns the (producer, consumer) assignment that is legal, if any.
func (s *Scheduler) tryFuse(a, b *schednode.Node) (producer, consumer *schednode.Node, ok bool) {
	if s.canFuse(a, b) {
		return a, b, true
	}
	if s.canFuse(b, a) {
		return b, a, true
	}
	return nil, nil, false
}

// directlyDependsOn reports whether consumer's unmet dependencies name any
// buffer producer produces.
func directlyDependsOn(consumer, producer *schednode.Node) bool {
	names := map[string]bool{}
	for _, nm := range producer.GetNames() {
		names[nm] = true
	}
	for _, d := range consumer.UnmetDependencies.Items() {
		if names[d.BufName()] {
			return true
		}
	}
	return false
}

// canFuse applies the full legality cascade for fusing producer into
// consumer (spec.md §4.5): kind restrictions, device agreement, size cap,
// and either vertical or horizontal legality depending on whether a direct
// edge exists between the two.
func (s *Scheduler) canFuse(producer, consumer *schednode.Node) bool {
	if producer == consumer {
		return false
	}
	if producer.Kind == schednode.KindOutput || consumer.Kind == schednode.KindOutput {
		return false
	}
	if producer.IsNoOp() || consumer.IsNoOp() {
		return false
	}
	if producer.IsExtern() || consumer.IsExtern() {
		return false
	}
	if consumer.IsTemplate() {
		return false
	}

	if s.cfg.MaxFusionSize > 0 && len(producer.GetNames())+len(consumer.GetNames()) > s.cfg.MaxFusionSize {
		return false
	}

	pDevice, cDevice := producer.Device(), consumer.Device()
	if pDevice != "" && cDevice != "" && pDevice != cDevice {
		return false
	}

	if s.rejectsOnHeuristics(producer, consumer) {
		return false
	}

	vertical := directlyDependsOn(consumer, producer)

	if vertical {
		for _, nm := range consumer.GetNames() {
			if producer.RecursivePreds[nm] {
				return false
			}
		}
		if backend := s.backendFor(producer); backend != nil {
			if !backend.CanFuseVertical(producer, consumer) {
				return false
			}
		}
		return true
	}

	if producer.IsTemplate() {
		return false
	}

	pKey, pOK := groupOf(producer)
	cKey, cOK := groupOf(consumer)
	if !pOK || !cOK {
		return false
	}
	if pKey.Device != cKey.Device || pKey.Key != cKey.Key {
		return false
	}
	for _, nm := range consumer.GetNames() {
		if producer.RecursivePreds[nm] {
			return false
		}
	}
	for _, nm := range producer.GetNames() {
		if consumer.RecursivePreds[nm] {
			return false
		}
	}
	if backend := s.backendFor(producer); backend != nil {
		if !backend.CanFuseHorizontal(producer, consumer) {
			return false
		}
	}
	return true
}

// rejectsOnHeuristics applies spec.md §4.5's heuristic-rejection step: a
// candidate with zero shared-memory score is only worth fusing when
// aggressive fusion is on and neither side is a reduction — otherwise the
// fusion has nothing to gain and a reduction's extra loop structure makes
// it likely to cost more than it saves.
func (s *Scheduler) rejectsOnHeuristics(producer, consumer *schednode.Node) bool {
	var memScore int64
	for _, nm := range sharedDepNames(producer, consumer) {
		memScore += sharedNumelHint(producer, consumer, nm)
	}
	if memScore > 0 {
		return false
	}
	return !s.cfg.AggressiveFusion || producer.IsReduction() || consumer.IsReduction()
}

func (s *Scheduler) backendFor(n *schednode.Node) ir.Backend {
	d := n.Device()
	if d == "" {
		return nil
	}
	return s.backends[d]
}

// willFusionCreateCycle reports whether fusing producer and consumer would
// force some third node to run both before and after the resulting node: a
// node that is an ancestor of the combined bundle (produces a name the
// bundle recursively depends on) but that itself recursively depends on a
// name the bundle produces (spec.md §4.5 "Cycle avoidance"). Results are
// memoized in cache for the sweep, keyed by the unordered pair.
func (s *Scheduler) willFusionCreateCycle(producer, consumer *schednode.Node, cache map[string]bool) bool {
	key := pairKey(producer, consumer)
	if v, ok := cache[key]; ok {
		return v
	}

	combinedNames := map[string]bool{}
	for _, nm := range producer.GetNames() {
		combinedNames[nm] = true
	}
	for _, nm := range consumer.GetNames() {
		combinedNames[nm] = true
	}

	ancestors := map[string]bool{}
	for nm := range producer.RecursivePreds {
		if !combinedNames[nm] {
			ancestors[nm] = true
		}
	}
	for nm := range consumer.RecursivePreds {
		if !combinedNames[nm] {
			ancestors[nm] = true
		}
	}

	result := false
	for _, n := range s.nodes {
		if n == producer || n == consumer {
			continue
		}
		isAncestor := false
		for _, nm := range n.GetNames() {
			if ancestors[nm] {
				isAncestor = true
				break
			}
		}
		if !isAncestor {
			continue
		}
		for nm := range combinedNames {
			if n.RecursivePreds[nm] {
				result = true
				break
			}
		}
		if result {
			break
		}
	}

	cache[key] = result
	return result
}

// fusionScore is the lexicographic (priority-memory, memory-reuse,
// closeness) tuple scored candidates are ranked by, highest first
// (spec.md §4.5 "Scoring").
type fusionScore struct {
	priorityMemory bool
	memScore       int64
	negDistance    int
}

func (a fusionScore) better(b fusionScore) bool {
	if a.priorityMemory != b.priorityMemory {
		return a.priorityMemory
	}
	if a.memScore != b.memScore {
		return a.memScore > b.memScore
	}
	return a.negDistance > b.negDistance
}

func scoreFusion(producer, consumer *schednode.Node) fusionScore {
	pKey, pOK := groupOf(producer)
	cKey, cOK := groupOf(consumer)
	groupMatches := pOK && cOK && pKey.Device == cKey.Device && pKey.Key == cKey.Key

	shared := sharedDepNames(producer, consumer)
	var memScore int64
	for _, nm := range shared {
		memScore += sharedNumelHint(producer, consumer, nm)
	}

	distance := consumer.MaxOrder() - producer.MinOrder()
	if distance < 0 {
		distance = -distance
	}

	return fusionScore{
		priorityMemory: groupMatches && memScore > 0,
		memScore:       memScore,
		negDistance:    -distance,
	}
}

func usedNames(n *schednode.Node) map[string]bool {
	out := map[string]bool{}
	for _, d := range n.RW.Reads.Items() {
		out[d.BufName()] = true
	}
	for _, d := range n.RW.Writes.Items() {
		out[d.BufName()] = true
	}
	return out
}

func sharedDepNames(a, b *schednode.Node) []string {
	an, bn := usedNames(a), usedNames(b)
	var out []string
	for nm := range an {
		if bn[nm] {
			out = append(out, nm)
		}
	}
	sort.Strings(out)
	return out
}

// sharedNumelHint estimates the element count of the shared dependency
// named nm, preferring whichever side holds a MemoryDep (a StarDep carries
// no shape information). This is a coarse stand-in for the excluded
// sizevars numel_hint machinery (spec.md §1), sufficient to order
// candidates that share buffers from those that don't.
func sharedNumelHint(a, b *schednode.Node, nm string) int64 {
	for _, d := range append(append([]dep.Dep{}, a.RW.Reads.Items()...), a.RW.Writes.Items()...) {
		if d.BufName() == nm {
			if md, ok := d.(dep.MemoryDep); ok {
				return numelHint(md)
			}
		}
	}
	for _, d := range append(append([]dep.Dep{}, b.RW.Reads.Items()...), b.RW.Writes.Items()...) {
		if d.BufName() == nm {
			if md, ok := d.(dep.MemoryDep); ok {
				return numelHint(md)
			}
		}
	}
	return 1
}

func numelHint(md dep.MemoryDep) int64 {
	var n int64 = 1
	for _, sz := range md.Sizes {
		if sz.Kind == dep.ExprConst && sz.Const > 0 {
			n *= sz.Const
		}
	}
	return n
}
