//nolint:revive // exported
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

var ErrNoStartNode = errors.New("no start node")

type FlowStatus int8

const (
	FlowStatusStarting FlowStatus = iota
	FlowStatusRunning
	FlowStatusSuccess
	FlowStatusFailed
	FlowStatusCanceled
)

func FlowStatusString(f FlowStatus) string {
	return [...]string{"Starting", "Running", "Success", "Failed", "Canceled"}[f]
}

func IsFlowStatusDone(f FlowStatus) bool {
	return f == FlowStatusSuccess || f == FlowStatusFailed || f == FlowStatusCanceled
}

// FlowNodeStatus is emitted once per handler invocation.
type FlowNodeStatus struct {
	ExecutionID string
	NodeID      string
	Kind        mflow.NodeKind
	State       mflow.NodeState
	// Status is the human-readable string written to the node's data bag.
	Status      string
	RunDuration time.Duration
	Error       error
}

// InvokeMode selects how often a node reached by several edges is invoked.
type InvokeMode int8

const (
	// InvokeOncePerNode fires each reachable handler at most once per run.
	InvokeOncePerNode InvokeMode = iota
	// InvokePerEdge fires a handler once for every traversed incoming edge.
	InvokePerEdge
)

func ParseInvokeMode(s string) (InvokeMode, error) {
	switch s {
	case "", "once":
		return InvokeOncePerNode, nil
	case "per-edge":
		return InvokePerEdge, nil
	default:
		return 0, errors.New("unknown run mode " + s + " (want once or per-edge)")
	}
}

func (m InvokeMode) String() string {
	if m == InvokePerEdge {
		return "per-edge"
	}
	return "once"
}

// IsCancellationError reports context cancellation or deadline.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
