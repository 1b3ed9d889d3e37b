package sorting

import (
	"github.com/pStyl3/libloot/metadata"
)

// GroupVertex is one step of a group path: a group name and whether the
// edge leading to it from the previous vertex is user-defined. The first
// vertex of a path has no incoming edge.
type GroupVertex struct {
	Name string
	// EdgeIsUserDefined reports whether the edge from the previous path
	// vertex to this one originated only in the userlist.
	EdgeIsUserDefined bool
}

type groupSucc struct {
	to          int
	userDefined bool
}

// GroupGraph is the directed graph of groups: an edge runs from each of a
// group's after-groups to the group itself. Edges are deduplicated; an
// edge present in both documents counts as masterlist-defined.
type GroupGraph struct {
	names []string
	ids   map[string]int
	succ  [][]groupSucc
}

// NewGroupGraph builds and validates the group graph from the masterlist
// and userlist group definitions. An after-group naming an unknown group
// is an UndefinedGroupError. Cycles consisting only of masterlist edges
// are tolerated unless masterlistCyclesFatal is set; any cycle including a
// user-defined edge is a CyclicInteractionError.
func NewGroupGraph(masterlistGroups, userlistGroups []metadata.Group, masterlistCyclesFatal bool) (*GroupGraph, error) {
	merged := metadata.MergeGroups(masterlistGroups, userlistGroups)

	g := &GroupGraph{
		names: make([]string, 0, len(merged)),
		ids:   make(map[string]int, len(merged)),
	}
	for _, group := range merged {
		g.ids[group.Name] = len(g.names)
		g.names = append(g.names, group.Name)
	}
	g.succ = make([][]groupSucc, len(g.names))

	if err := g.addAfterEdges(masterlistGroups, false); err != nil {
		return nil, err
	}
	if err := g.addAfterEdges(userlistGroups, true); err != nil {
		return nil, err
	}

	if err := g.checkCycles(masterlistCyclesFatal); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GroupGraph) addAfterEdges(groups []metadata.Group, userDefined bool) error {
	for _, group := range groups {
		to, ok := g.ids[group.Name]
		if !ok {
			// Cannot happen: every listed group is a vertex.
			continue
		}
		for _, afterName := range group.AfterGroups {
			from, ok := g.ids[afterName]
			if !ok {
				return &metadata.UndefinedGroupError{GroupName: afterName}
			}
			g.addEdge(from, to, userDefined)
		}
	}
	return nil
}

// addEdge inserts from->to unless the edge already exists. A masterlist
// edge added first wins over a later user edge between the same pair.
func (g *GroupGraph) addEdge(from, to int, userDefined bool) {
	if from == to {
		return
	}
	for _, s := range g.succ[from] {
		if s.to == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], groupSucc{to: to, userDefined: userDefined})
}

// HasGroup reports whether the named group exists.
func (g *GroupGraph) HasGroup(name string) bool {
	_, ok := g.ids[name]
	return ok
}

// GroupNames returns the group names in merge order.
func (g *GroupGraph) GroupNames() []string {
	return append([]string(nil), g.names...)
}

// checkCycles walks the graph depth-first; every back edge closes a cycle,
// reconstructed from the recursion stack. Masterlist-only cycles are a
// known data-quality hazard the masterlist authors accept; user-introduced
// cycles always fail.
func (g *GroupGraph) checkCycles(masterlistCyclesFatal bool) error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make([]int, len(g.names))
	stack := make([]int, 0, len(g.names))
	stackEdge := make([]bool, len(g.names)) // userness of edge into stack[i]
	onStack := make([]int, len(g.names))    // vertex -> stack index + 1, 0 if absent

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

		for _, s := range g.succ[v] {
			switch color[s.to] {
			case grey:
				start := onStack[s.to] - 1
				cycle, hasUserEdge := g.buildCycle(stack[start:], stackEdge, start, s)
				if hasUserEdge || masterlistCyclesFatal {
					return &CyclicInteractionError{Cycle: cycle}
				}
			case white:
				if len(stack) < len(stackEdge) {
					stackEdge[len(stack)] = s.userDefined
				}
				if err := visit(s.to); err != nil {
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

// buildCycle turns the recursion-stack slice closed by the back edge s
// into a reported cycle, noting whether any edge on it is user-defined.
func (g *GroupGraph) buildCycle(stackSlice []int, stackEdge []bool, start int, closing groupSucc) ([]Vertex, bool) {
	cycle := make([]Vertex, 0, len(stackSlice))
	hasUserEdge := closing.userDefined
	for i, v := range stackSlice {
		var user bool
		if i+1 < len(stackSlice) {
			user = stackEdge[start+i+1]
		} else {
			user = closing.userDefined
		}
		if user {
			hasUserEdge = true
		}
		kind := EdgeTypeMasterlistLoadAfter
		if user {
			kind = EdgeTypeUserLoadAfter
		}
		cycle = append(cycle, Vertex{Name: g.names[v], OutEdgeType: kind})
	}
	return cycle, hasUserEdge
}

type parentLink struct {
	vertex int
	user   bool
}

// bfs walks breadth-first from src, recording the parent link of every
// newly reached vertex. It returns the parent links and the reached
// vertices in visit order.
func (g *GroupGraph) bfs(src int) (map[int]parentLink, []int) {
	parents := make(map[int]parentLink, len(g.names))
	visited := make([]bool, len(g.names))
	visited[src] = true
	queue := []int{src}
	var reached []int

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, s := range g.succ[v] {
			if visited[s.to] {
				continue
			}
			visited[s.to] = true
			parents[s.to] = parentLink{vertex: v, user: s.userDefined}
			reached = append(reached, s.to)
			queue = append(queue, s.to)
		}
	}
	return parents, reached
}

// assemblePath walks the parent links back from dst to src and returns the
// forward path.
func (g *GroupGraph) assemblePath(src, dst int, parents map[int]parentLink) []GroupVertex {
	var reversed []GroupVertex
	v := dst
	for v != src {
		p := parents[v]
		reversed = append(reversed, GroupVertex{Name: g.names[v], EdgeIsUserDefined: p.user})
		v = p.vertex
	}
	reversed = append(reversed, GroupVertex{Name: g.names[src]})

	path := make([]GroupVertex, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// ShortestPath returns the vertices on a shortest path from one group to
// another, each annotated with the userness of its incoming edge. The
// result is empty when no path exists or either group is unknown. It is
// used for diagnostic output only.
func (g *GroupGraph) ShortestPath(from, to string) []GroupVertex {
	src, ok := g.ids[from]
	if !ok {
		return nil
	}
	dst, ok := g.ids[to]
	if !ok {
		return nil
	}
	if src == dst {
		return []GroupVertex{{Name: g.names[src]}}
	}

	parents, _ := g.bfs(src)
	if _, ok := parents[dst]; !ok {
		return nil
	}
	return g.assemblePath(src, dst, parents)
}

// Reachable returns, for every group reachable from the named group, a
// representative (shortest) path. The named group itself is not included.
func (g *GroupGraph) Reachable(from string) map[string][]GroupVertex {
	src, ok := g.ids[from]
	if !ok {
		return nil
	}

	parents, reached := g.bfs(src)
	out := make(map[string][]GroupVertex, len(reached))
	for _, dst := range reached {
		out[g.names[dst]] = g.assemblePath(src, dst, parents)
	}
	return out
}
