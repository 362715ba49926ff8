package flowgraph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

var ErrDuplicateNode = errors.New("duplicate node id")

// Graph guards one snapshot. Reads return copies; data writes go through
// UpdateNodeData so a handler never writes into a node a host has removed.
type Graph struct {
	mu    sync.RWMutex
	nodes []mflow.Node
	index map[string]int
	edges []mflow.Edge
}

// New takes a deep copy of flow.
func New(flow mflow.Flow) *Graph {
	c := flow.Clone()
	g := &Graph{nodes: c.Nodes, edges: c.Edges}
	g.reindex()
	return g
}

func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = i
		}
	}
}

// Snapshot returns a deep copy of the current nodes and edges.
func (g *Graph) Snapshot() mflow.Flow {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return mflow.Flow{Nodes: g.nodes, Edges: g.edges}.Clone()
}

func (g *Graph) Node(id string) (mflow.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.index[id]
	if !ok {
		return mflow.Node{}, false
	}
	return g.nodes[i].Clone(), true
}

func (g *Graph) InputEdge(target, handle string) (mflow.Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return FindInputEdge(g.edges, target, handle)
}

// OutgoingEdges returns the edges leaving source in snapshot order.
func (g *Graph) OutgoingEdges(source string) []mflow.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []mflow.Edge
	for _, e := range g.edges {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) StartNode() (mflow.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := FindStartNode(g.nodes)
	if !ok {
		return mflow.Node{}, false
	}
	return n.Clone(), true
}

// UpdateNodeData runs fn against the live data bag of id. It returns false
// without calling fn when the node no longer exists.
func (g *Graph) UpdateNodeData(id string, fn func(data mflow.NodeData)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.index[id]
	if !ok {
		return false
	}
	if g.nodes[i].Data == nil {
		g.nodes[i].Data = mflow.NodeData{}
	}
	fn(g.nodes[i].Data)
	return true
}

func (g *Graph) AddNode(n mflow.Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	n = n.Clone()
	if n.Data == nil {
		n.Data = mflow.NodeData{}
	}
	g.nodes = append(g.nodes, n)
	g.index[n.ID] = len(g.nodes) - 1
	return nil
}

// RemoveNode deletes the node and every edge touching it.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.index[id]
	if !ok {
		return false
	}
	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.edges = edges
	g.reindex()
	return true
}

// AddEdge appends e, generating an id when it has none, and returns the id.
func (g *Graph) AddEdge(e mflow.Edge) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e.ID == "" {
		e.ID = idwrap.NewPrefixed("edge")
	}
	g.edges = append(g.edges, e)
	return e.ID
}

func (g *Graph) RemoveEdge(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, e := range g.edges {
		if e.ID == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", mflow.ErrEdgeNotFound, id)
}

// DisconnectHandle removes every edge attached to the handle and returns how
// many were removed.
func (g *Graph) DisconnectHandle(nodeID, handle string, dir mflow.HandleDirection) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.edges[:0]
	removed := 0
	for _, e := range g.edges {
		if e.Touches(nodeID, handle, dir) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	return removed
}
