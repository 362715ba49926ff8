package mocknode

import (
	"context"
	"sync"

	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// MockNode records every node id it is invoked for.
type MockNode struct {
	NodeKind mflow.NodeKind
	OnRun    func(nodeID string) node.FlowNodeResult

	mu    sync.Mutex
	calls []string
}

func NewMockNode(kind mflow.NodeKind, onRun func(nodeID string) node.FlowNodeResult) *MockNode {
	return &MockNode{NodeKind: kind, OnRun: onRun}
}

func (mn *MockNode) Kind() mflow.NodeKind {
	return mn.NodeKind
}

func (mn *MockNode) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	mn.mu.Lock()
	mn.calls = append(mn.calls, req.NodeID)
	mn.mu.Unlock()
	if mn.OnRun == nil {
		return node.FlowNodeResult{Status: "ok"}
	}
	return mn.OnRun(req.NodeID)
}

// Calls returns the invoked node ids in order.
func (mn *MockNode) Calls() []string {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	return append([]string(nil), mn.calls...)
}

// Count returns how often nodeID was invoked.
func (mn *MockNode) Count(nodeID string) int {
	n := 0
	for _, c := range mn.Calls() {
		if c == nodeID {
			n++
		}
	}
	return n
}
