// Package sorting implements the load-order computation: the group graph,
// the plugin graph with its priority-tiered edges, cycle detection and the
// deterministic topological linearisation.
package sorting

import (
	"fmt"
	"strings"
)

// EdgeType identifies the source of an ordering constraint between two
// plugins or groups. Values are ordered by priority: a lower value is a
// harder constraint, added to the graph in an earlier tier.
type EdgeType int

const (
	// EdgeTypeHardcoded is a game-imposed ordering mandate.
	EdgeTypeHardcoded EdgeType = iota
	// EdgeTypeMasterFlag orders non-masters after masters and blueprint
	// masters after everything else.
	EdgeTypeMasterFlag
	// EdgeTypeMaster orders a plugin after its declared masters.
	EdgeTypeMaster
	// EdgeTypeMasterlistRequirement derives from a masterlist requirement.
	EdgeTypeMasterlistRequirement
	// EdgeTypeMasterlistLoadAfter derives from a masterlist load-after.
	EdgeTypeMasterlistLoadAfter
	// EdgeTypeUserRequirement derives from a userlist requirement.
	EdgeTypeUserRequirement
	// EdgeTypeUserLoadAfter derives from a userlist load-after.
	EdgeTypeUserLoadAfter
	// EdgeTypeGroup derives from group-graph reachability.
	EdgeTypeGroup
	// EdgeTypeOverlap orders plugins overriding the same records or assets.
	EdgeTypeOverlap
	// EdgeTypeTieBreak reproduces the input order between otherwise
	// unconstrained plugins.
	EdgeTypeTieBreak
)

// String returns the user-facing name of the edge type, used in cycle
// diagnostics.
func (t EdgeType) String() string {
	switch t {
	case EdgeTypeHardcoded:
		return "hardcoded"
	case EdgeTypeMasterFlag:
		return "master flag"
	case EdgeTypeMaster:
		return "master"
	case EdgeTypeMasterlistRequirement:
		return "masterlist requirement"
	case EdgeTypeMasterlistLoadAfter:
		return "masterlist load after"
	case EdgeTypeUserRequirement:
		return "user requirement"
	case EdgeTypeUserLoadAfter:
		return "user load after"
	case EdgeTypeGroup:
		return "group"
	case EdgeTypeOverlap:
		return "overlap"
	case EdgeTypeTieBreak:
		return "tie-break"
	default:
		return "unknown"
	}
}

// IsUserDefined reports whether the edge type originates from userlist
// metadata.
func (t EdgeType) IsUserDefined() bool {
	return t == EdgeTypeUserRequirement || t == EdgeTypeUserLoadAfter
}

// Vertex is one step of a reported cycle: the plugin or group name and the
// type of the edge leading to the next vertex in the cycle.
type Vertex struct {
	// Name is the plugin filename or group name.
	Name string
	// OutEdgeType is the type of the edge from this vertex to the next
	// vertex in the cycle.
	OutEdgeType EdgeType
}

// CyclicInteractionError reports a cycle in the plugin or group graph. The
// cycle is a sequence of vertices; the last vertex's out-edge closes the
// cycle back to the first.
type CyclicInteractionError struct {
	Cycle []Vertex
}

// Error implements the error interface. The message names every vertex and
// edge on the cycle so users can identify the offending metadata source.
func (e *CyclicInteractionError) Error() string {
	var sb strings.Builder
	sb.WriteString("cyclic interaction detected: ")
	sb.WriteString(describeCycle(e.Cycle))
	return sb.String()
}

func describeCycle(cycle []Vertex) string {
	if len(cycle) == 0 {
		return "(empty cycle)"
	}
	var sb strings.Builder
	for _, v := range cycle {
		sb.WriteString(fmt.Sprintf("%s --[%s]-> ", v.Name, v.OutEdgeType))
	}
	sb.WriteString(cycle[0].Name)
	return sb.String()
}
