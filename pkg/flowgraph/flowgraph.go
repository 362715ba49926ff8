// Package flowgraph holds the runtime view of a node/edge snapshot: lookups
// used by the resolvers, structural edits issued by hosts and a BFS level
// layout for snapshots that arrive without positions.
package flowgraph

import (
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// BuildOutgoingAdjacency builds a map of node ID -> target node IDs, in edge order.
func BuildOutgoingAdjacency(edges []mflow.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// BuildIncomingAdjacency builds a map of node ID -> source node IDs.
func BuildIncomingAdjacency(edges []mflow.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// FindStartNode returns the first node of kind start.
func FindStartNode(nodes []mflow.Node) (*mflow.Node, bool) {
	for i := range nodes {
		if nodes[i].Kind == mflow.NodeKindStart {
			return &nodes[i], true
		}
	}
	return nil, false
}

// FindInputEdge returns the first edge entering target at handle. Later
// matches are inert.
func FindInputEdge(edges []mflow.Edge, target, handle string) (mflow.Edge, bool) {
	for _, e := range edges {
		if e.Target == target && e.TargetHandle == handle {
			return e, true
		}
	}
	return mflow.Edge{}, false
}

// EdgeExists checks if an edge exists between source and target.
func EdgeExists(edges []mflow.Edge, source, target string) bool {
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// BuildNodeMap creates a map of node ID -> node pointer for quick lookup.
func BuildNodeMap(nodes []mflow.Node) map[string]*mflow.Node {
	nodeMap := make(map[string]*mflow.Node, len(nodes))
	for i := range nodes {
		nodeMap[nodes[i].ID] = &nodes[i]
	}
	return nodeMap
}
