package flowgraph

import (
	"fmt"

	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// LayoutOrientation defines the primary direction of flow.
type LayoutOrientation int

const (
	// LayoutHorizontal: depth maps to X.
	LayoutHorizontal LayoutOrientation = iota
	// LayoutVertical: depth maps to Y.
	LayoutVertical
)

type LayoutConfig struct {
	Orientation LayoutOrientation

	// SpacingPrimary is spacing along the direction of flow.
	SpacingPrimary float64

	// SpacingSecondary is spacing between nodes on the same level.
	SpacingSecondary float64

	StartX float64
	StartY float64
}

// LayoutResult contains the computed positions for each reachable node.
type LayoutResult struct {
	Positions map[string]mflow.Position
	// Levels maps node IDs to their depth (0 = start node).
	Levels   map[string]int
	MaxLevel int
}

func DefaultHorizontalConfig() LayoutConfig {
	return LayoutConfig{
		Orientation:      LayoutHorizontal,
		SpacingPrimary:   300,
		SpacingSecondary: 150,
	}
}

func DefaultVerticalConfig() LayoutConfig {
	return LayoutConfig{
		Orientation:      LayoutVertical,
		SpacingPrimary:   300,
		SpacingSecondary: 400,
	}
}

// Layout assigns levels by BFS from startID: a node sits one level below its
// deepest already-placed parent. Nodes unreachable from start get no position.
func Layout(flow mflow.Flow, startID string, config LayoutConfig) *LayoutResult {
	result := &LayoutResult{
		Positions: make(map[string]mflow.Position),
		Levels:    make(map[string]int),
	}
	if len(flow.Nodes) == 0 {
		return result
	}

	outgoing := BuildOutgoingAdjacency(flow.Edges)
	incoming := BuildIncomingAdjacency(flow.Edges)

	levels := result.Levels
	levelNodes := make(map[int][]string)

	queue := []string{startID}
	levels[startID] = 0
	levelNodes[0] = []string{startID}

	// cyclic graphs keep deepening levels; cap the work
	processed := 0
	maxProcessed := max(len(flow.Nodes)*len(flow.Nodes), 10000)

	for len(queue) > 0 && processed <= maxProcessed {
		processed++
		current := queue[0]
		queue = queue[1:]

		for _, child := range outgoing[current] {
			maxParent := -1
			for _, parent := range incoming[child] {
				if lvl, ok := levels[parent]; ok && lvl > maxParent {
					maxParent = lvl
				}
			}
			childLevel := maxParent + 1

			existing, seen := levels[child]
			if seen && childLevel <= existing {
				continue
			}
			if seen {
				old := levelNodes[existing]
				for i, id := range old {
					if id == child {
						levelNodes[existing] = append(old[:i], old[i+1:]...)
						break
					}
				}
			}
			levels[child] = childLevel
			levelNodes[childLevel] = append(levelNodes[childLevel], child)
			queue = append(queue, child)
		}
	}

	for level := range levelNodes {
		result.MaxLevel = max(result.MaxLevel, level)
	}

	for level := 0; level <= result.MaxLevel; level++ {
		ids := levelNodes[level]
		if len(ids) == 0 {
			continue
		}

		primary := config.StartX
		secondaryStart := config.StartY
		if config.Orientation == LayoutVertical {
			primary = config.StartY
			secondaryStart = config.StartX
		}
		primary += float64(level) * config.SpacingPrimary
		secondaryStart -= float64(len(ids)-1) * config.SpacingSecondary / 2

		for i, id := range ids {
			secondary := secondaryStart + float64(i)*config.SpacingSecondary
			if config.Orientation == LayoutHorizontal {
				result.Positions[id] = mflow.Position{X: primary, Y: secondary}
			} else {
				result.Positions[id] = mflow.Position{X: secondary, Y: primary}
			}
		}
	}
	return result
}

// ApplyLayout writes computed positions into nodes.
func ApplyLayout(nodes []mflow.Node, result *LayoutResult) {
	for i := range nodes {
		if pos, ok := result.Positions[nodes[i].ID]; ok {
			nodes[i].Position = pos
		}
	}
}

// LayoutFlow lays out flow from its start node in place.
func LayoutFlow(flow mflow.Flow, config LayoutConfig) error {
	start, ok := FindStartNode(flow.Nodes)
	if !ok {
		return fmt.Errorf("start node not found")
	}
	ApplyLayout(flow.Nodes, Layout(flow, start.ID, config))
	return nil
}
