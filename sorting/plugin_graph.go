package sorting

import (
	"container/heap"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pStyl3/libloot/log"
	"github.com/pStyl3/libloot/metadata"
	"github.com/pStyl3/libloot/plugin"
)

// pluginGraph is the plugin ordering graph. Vertices are the installed
// plugins in caller-supplied order; vertex IDs are input positions, which
// the final tie-break and the linearisation rely on. Edges are stored as
// an adjacency map keyed by target vertex, holding the type of the first
// edge added between the pair; duplicates are idempotent.
type pluginGraph struct {
	plugins []plugin.Plugin
	names   []string
	ids     map[string]int
	succ    []map[int]EdgeType

	masterlistMeta []metadata.PluginMetadata
	userMeta       []metadata.PluginMetadata
	groups         []string
}

// newPluginGraph creates the vertex set. Plugin identity is
// case-insensitive on filename; a duplicate is an INVALID_ARGUMENT.
// masterlistMeta and userMeta hold each vertex's evaluated metadata from
// the respective document, groupNames each vertex's effective group.
func newPluginGraph(plugins []plugin.Plugin, masterlistMeta, userMeta []metadata.PluginMetadata, groupNames []string) (*pluginGraph, error) {
	g := &pluginGraph{
		plugins:        plugins,
		names:          make([]string, len(plugins)),
		ids:            make(map[string]int, len(plugins)),
		succ:           make([]map[int]EdgeType, len(plugins)),
		masterlistMeta: masterlistMeta,
		userMeta:       userMeta,
		groups:         groupNames,
	}
	for i, p := range plugins {
		key := plugin.NormalizeFilename(p.Name())
		if other, exists := g.ids[key]; exists {
			return nil, metadata.NewError(metadata.ErrorCodeInvalidArgument,
				fmt.Sprintf("duplicate plugin in input: %q and %q", g.names[other], p.Name()))
		}
		g.ids[key] = i
		g.names[i] = p.Name()
		g.succ[i] = make(map[int]EdgeType)
	}
	return g, nil
}

// vertexOf resolves a plugin filename to its vertex ID.
func (g *pluginGraph) vertexOf(name string) (int, bool) {
	id, ok := g.ids[plugin.NormalizeFilename(name)]
	return id, ok
}

// addEdge inserts from->to. Self-loops are rejected and a second edge
// between the same ordered pair is ignored, whatever its type.
func (g *pluginGraph) addEdge(from, to int, kind EdgeType) {
	if from == to {
		return
	}
	if _, exists := g.succ[from][to]; exists {
		return
	}
	g.succ[from][to] = kind
	log.Debugf("sorting: added %s edge from %q to %q", kind, g.names[from], g.names[to])
}

func (g *pluginGraph) edgeCount() int {
	n := 0
	for _, m := range g.succ {
		n += len(m)
	}
	return n
}

// pathExists reports whether to is reachable from from.
func (g *pluginGraph) pathExists(from, to int) bool {
	if from == to {
		return true
	}
	seen := make([]bool, len(g.names))
	stack := []int{from}
	seen[from] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.succ[v] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// findPath returns the vertices and edge types on some path from from to
// to, or nil when none exists. Used for cycle diagnostics when an edge is
// skipped.
func (g *pluginGraph) findPath(from, to int) []Vertex {
	if from == to {
		return []Vertex{{Name: g.names[from]}}
	}
	parents := make(map[int]int, len(g.names))
	seen := make([]bool, len(g.names))
	seen[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for next := range g.succ[v] {
			if seen[next] {
				continue
			}
			seen[next] = true
			parents[next] = v
			if next == to {
				return g.assembleVertexPath(from, to, parents)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func (g *pluginGraph) assembleVertexPath(from, to int, parents map[int]int) []Vertex {
	var ids []int
	for v := to; v != from; v = parents[v] {
		ids = append(ids, v)
	}
	ids = append(ids, from)

	path := make([]Vertex, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		v := Vertex{Name: g.names[ids[i]]}
		if i > 0 {
			v.OutEdgeType = g.succ[ids[i]][ids[i-1]]
		}
		path = append(path, v)
	}
	return path
}

// checkForCycles searches for a cycle with a depth-first walk maintaining
// the recursion stack; when an edge reaches a vertex on the stack, the
// cycle is the stack slice from that vertex to the current one plus the
// closing edge.
func (g *pluginGraph) checkForCycles() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make([]int, len(g.names))
	stack := make([]int, 0, len(g.names))
	onStack := make([]int, len(g.names)) // vertex -> stack index + 1

	// Iteration order over a successor map is not deterministic, but the
	// result is only whether some cycle exists; the reported cycle is one
	// of possibly several and any is a faithful diagnostic.
	var visit func(v int) error
	visit = func(v int) error {
		color[v] = grey
		onStack[v] = len(stack) + 1
		stack = append(stack, v)
		defer func() {
			stack = stack[:len(stack)-1]
			onStack[v] = 0
			color[v] = black
		}()

		for next := range g.succ[v] {
			switch color[next] {
			case grey:
				start := onStack[next] - 1
				slice := stack[start:]
				cycle := make([]Vertex, 0, len(slice))
				for i, u := range slice {
					var kind EdgeType
					if i+1 < len(slice) {
						kind = g.succ[u][slice[i+1]]
					} else {
						kind = g.succ[u][next]
					}
					cycle = append(cycle, Vertex{Name: g.names[u], OutEdgeType: kind})
				}
				return &CyclicInteractionError{Cycle: cycle}
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for v := range g.names {
		if color[v] == white {
			if err := visit(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tier 1: game-imposed ordering mandates. Hardcoded plugins precede every
// other plugin, in the mandated relative order.
func (g *pluginGraph) addHardcodedEdges(hardcoded []string) {
	installed := make([]int, 0, len(hardcoded))
	isHardcoded := make([]bool, len(g.names))
	for _, name := range hardcoded {
		if id, ok := g.vertexOf(name); ok {
			installed = append(installed, id)
			isHardcoded[id] = true
		}
	}

	for i, h := range installed {
		for _, later := range installed[i+1:] {
			g.addEdge(h, later, EdgeTypeHardcoded)
		}
		for v := range g.names {
			if !isHardcoded[v] {
				g.addEdge(h, v, EdgeTypeHardcoded)
			}
		}
	}
}

// Tier 2: non-masters load after masters, and blueprint masters load after
// every non-blueprint plugin.
func (g *pluginGraph) addMasterFlagEdges() {
	for from, p := range g.plugins {
		if p.IsMaster() && !p.IsBlueprintMaster() {
			for to, q := range g.plugins {
				if !q.IsMaster() && !q.IsBlueprintMaster() {
					g.addEdge(from, to, EdgeTypeMasterFlag)
				}
			}
		}
		if p.IsBlueprintMaster() {
			for to, q := range g.plugins {
				if !q.IsBlueprintMaster() {
					g.addEdge(to, from, EdgeTypeMasterFlag)
				}
			}
		}
	}
}

// Tier 3: a plugin's declared masters precede it.
func (g *pluginGraph) addMasterEdges() {
	for to, p := range g.plugins {
		for _, masterName := range p.Masters() {
			if from, ok := g.vertexOf(masterName); ok {
				g.addEdge(from, to, EdgeTypeMaster)
			}
		}
	}
}

// Tiers 4 and 5: requirement and load-after edges from one metadata
// document. The referenced file precedes the plugin carrying the metadata.
func (g *pluginGraph) addMetadataEdges(meta []metadata.PluginMetadata, requirementKind, loadAfterKind EdgeType) {
	for to := range g.plugins {
		m := meta[to]
		for _, f := range m.Requirements() {
			if from, ok := g.vertexOf(f.Name); ok {
				g.addEdge(from, to, requirementKind)
			}
		}
		for _, f := range m.LoadAfterFiles() {
			if from, ok := g.vertexOf(f.Name); ok {
				g.addEdge(from, to, loadAfterKind)
			}
		}
	}
}

// Tier 6: group edges. For every ordered plugin pair whose groups are
// connected in the group graph, add an edge unless it would close a cycle
// against the harder constraints already present; a skipped edge is a
// diagnostic, not an error, because the user may have legitimately pitted
// a group hint against a harder constraint.
func (g *pluginGraph) addGroupEdges(groups *GroupGraph) (skipped int, err error) {
	// Validate group assignments before touching edges.
	for _, name := range g.groups {
		if !groups.HasGroup(name) {
			return 0, &metadata.UndefinedGroupError{GroupName: name}
		}
	}

	reachable := make(map[string]map[string][]GroupVertex, len(g.groups))
	for _, name := range g.groups {
		if _, ok := reachable[name]; !ok {
			reachable[name] = groups.Reachable(name)
		}
	}

	for from := range g.plugins {
		fromGroup := g.groups[from]
		for to := range g.plugins {
			if from == to || g.groups[to] == fromGroup {
				continue
			}
			groupPath, connected := reachable[fromGroup][g.groups[to]]
			if !connected {
				continue
			}
			if _, exists := g.succ[from][to]; exists {
				continue
			}
			if g.pathExists(to, from) {
				cycle := g.findPath(to, from)
				if len(cycle) > 0 {
					cycle[len(cycle)-1].OutEdgeType = EdgeTypeGroup
				}
				log.Warnf("sorting: skipping group edge from %q to %q (groups %q -> %q, %d hops apart): it would close the cycle %s",
					g.names[from], g.names[to], fromGroup, g.groups[to], len(groupPath)-1, describeCycle(cycle))
				skipped++
				continue
			}
			g.addEdge(from, to, EdgeTypeGroup)
		}
	}
	return skipped, nil
}

// overlapCandidate is a proposed overlap edge, produced by pair
// enumeration and applied in deterministic order afterwards.
type overlapCandidate struct {
	from, to int
}

// Tier 7: overlapping plugins. The plugin affecting fewer override records
// loads first; ties fall through to asset count, CRC and input position.
// Pair enumeration is read-only and data-parallel above the threshold;
// candidates are sorted before insertion so parallelism cannot change the
// result.
func (g *pluginGraph) addOverlapEdges(parallelThreshold int) (skipped int) {
	candidates := g.collectOverlapCandidates(parallelThreshold)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].from != candidates[j].from {
			return candidates[i].from < candidates[j].from
		}
		return candidates[i].to < candidates[j].to
	})

	for _, c := range candidates {
		if _, exists := g.succ[c.from][c.to]; exists {
			continue
		}
		if g.pathExists(c.to, c.from) {
			log.Debugf("sorting: skipping overlap edge from %q to %q: it would close a cycle",
				g.names[c.from], g.names[c.to])
			skipped++
			continue
		}
		g.addEdge(c.from, c.to, EdgeTypeOverlap)
	}
	return skipped
}

func (g *pluginGraph) collectOverlapCandidates(parallelThreshold int) []overlapCandidate {
	n := len(g.plugins)
	if parallelThreshold <= 0 || n <= parallelThreshold {
		var out []overlapCandidate
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if c, ok := g.orientOverlap(i, j); ok {
					out = append(out, c)
				}
			}
		}
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	results := make([][]overlapCandidate, workers)
	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			var out []overlapCandidate
			for i := w; i < n; i += workers {
				for j := i + 1; j < n; j++ {
					if c, ok := g.orientOverlap(i, j); ok {
						out = append(out, c)
					}
				}
			}
			results[w] = out
			return nil
		})
	}
	// Workers never return errors; Wait only synchronises.
	_ = eg.Wait()

	var out []overlapCandidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// orientOverlap decides whether plugins i and j overlap and which loads
// later: more override records loads later, then more assets, then higher
// CRC, then higher input position.
func (g *pluginGraph) orientOverlap(i, j int) (overlapCandidate, bool) {
	a, b := g.plugins[i], g.plugins[j]
	if !a.DoRecordsOverlap(b) && !a.DoAssetsOverlap(b) {
		return overlapCandidate{}, false
	}

	iLoadsLater := false
	switch {
	case a.OverrideRecordCount() != b.OverrideRecordCount():
		iLoadsLater = a.OverrideRecordCount() > b.OverrideRecordCount()
	case a.AssetCount() != b.AssetCount():
		iLoadsLater = a.AssetCount() > b.AssetCount()
	case a.CRC() != b.CRC():
		iLoadsLater = a.CRC() > b.CRC()
	default:
		iLoadsLater = i > j
	}

	if iLoadsLater {
		return overlapCandidate{from: j, to: i}, true
	}
	return overlapCandidate{from: i, to: j}, true
}

// Tier 8: for every pair still incomparable, add an edge reproducing the
// input order. Adding from->to when to cannot reach from keeps the graph
// acyclic by construction.
func (g *pluginGraph) addTieBreakEdges() {
	n := len(g.plugins)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if g.pathExists(i, j) || g.pathExists(j, i) {
				continue
			}
			g.addEdge(i, j, EdgeTypeTieBreak)
		}
	}
}

// vertexQueue is a min-heap of vertex IDs. IDs are input positions, so the
// heap always yields the ready vertex that came earliest in the input.
type vertexQueue []int

func (q vertexQueue) Len() int           { return len(q) }
func (q vertexQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q vertexQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *vertexQueue) Push(x any)        { *q = append(*q, x.(int)) }
func (q *vertexQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// topologicalSort linearises the graph with Kahn's algorithm, using a
// priority queue keyed by input position so that vertices whose order is
// unconstrained keep their input order. Sorting twice on identical inputs
// yields identical output.
func (g *pluginGraph) topologicalSort() ([]string, error) {
	n := len(g.names)
	inDegree := make([]int, n)
	for _, succ := range g.succ {
		for to := range succ {
			inDegree[to]++
		}
	}

	ready := &vertexQueue{}
	heap.Init(ready)
	for v := 0; v < n; v++ {
		if inDegree[v] == 0 {
			heap.Push(ready, v)
		}
	}

	out := make([]string, 0, n)
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		out = append(out, g.names[v])
		for to := range g.succ[v] {
			inDegree[to]--
			if inDegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}

	if len(out) != n {
		// The graph still contains a cycle; report it rather than
		// returning a partial order.
		if err := g.checkForCycles(); err != nil {
			return nil, err
		}
		return nil, metadata.NewError(metadata.ErrorCodeCyclicInteraction,
			"linearisation incomplete but no cycle found")
	}
	return out, nil
}
