//nolint:revive // exported
package rflow

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/the-dev-tools/jsonflow/internal/api"
	"github.com/the-dev-tools/jsonflow/internal/api/middleware/mwrequestid"
	"github.com/the-dev-tools/jsonflow/internal/model"
	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/io/flowfile"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/service/sflow"
)

const (
	PathFlowRun    = "/v1/flow/run"
	PathNodeRun    = "/v1/node/run"
	PathNodePorts  = "/v1/node/ports"
	PathNodeInputs = "/v1/node/inputs"
	PathNodeGet    = "/v1/node/get"
)

const (
	InputsOpAdd    = "add"
	InputsOpRemove = "remove"
)

// maxBodyBytes bounds a request snapshot.
const maxBodyBytes = 8 << 20

type FlowServiceRPC struct {
	fs          sflow.FlowService
	defaultMode runner.InvokeMode
	logger      *slog.Logger
}

func New(fs sflow.FlowService, defaultMode runner.InvokeMode, logger *slog.Logger) *FlowServiceRPC {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowServiceRPC{fs: fs, defaultMode: defaultMode, logger: logger}
}

func CreateService(srv *FlowServiceRPC) *api.Service {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathFlowRun, srv.FlowRun)
	mux.HandleFunc("POST "+PathNodeRun, srv.NodeRun)
	mux.HandleFunc("POST "+PathNodePorts, srv.NodePorts)
	mux.HandleFunc("POST "+PathNodeInputs, srv.NodeInputs)
	mux.HandleFunc("POST "+PathNodeGet, srv.NodeGet)
	return &api.Service{Path: "/v1/", Handler: mux}
}

// Snapshot is the flow carried by every request, validated on decode.
type Snapshot struct {
	mflow.Flow
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	flow, err := flowfile.Decode(data, flowfile.FormatJSON)
	if err != nil {
		return err
	}
	s.Flow = flow
	return nil
}

type FlowRunRequest struct {
	Flow Snapshot `json:"flow"`
	Mode string   `json:"mode,omitempty"`
}

type FlowRunResponse struct {
	Flow   mflow.Flow          `json:"flow"`
	Result model.FlowRunResult `json:"result"`
}

type NodeRunRequest struct {
	Flow   Snapshot `json:"flow"`
	NodeID string   `json:"nodeId"`
	Handle string   `json:"handle,omitempty"`
}

type NodeRunResponse struct {
	Flow   mflow.Flow `json:"flow"`
	Status string     `json:"status"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type NodePortsRequest struct {
	Flow     Snapshot `json:"flow"`
	NodeID   string   `json:"nodeId"`
	Expanded []string `json:"expanded,omitempty"`
}

type NodeInputsRequest struct {
	Flow   Snapshot `json:"flow"`
	NodeID string   `json:"nodeId"`
	Op     string   `json:"op"`
}

type NodeInputsResponse struct {
	Flow   mflow.Flow `json:"flow"`
	Inputs int        `json:"inputs"`
}

type NodeGetRequest struct {
	Flow   Snapshot `json:"flow"`
	NodeID string   `json:"nodeId"`
	Path   string   `json:"path"`
}

type NodeGetResponse struct {
	Found bool `json:"found"`
	Value any  `json:"value,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

const (
	CodeBadRequest   = "bad_request"
	CodeNodeNotFound = "node_not_found"
	CodeUnsupported  = "unsupported"
	CodeInternal     = "internal"
)

func (c *FlowServiceRPC) FlowRun(w http.ResponseWriter, r *http.Request) {
	var req FlowRunRequest
	if !c.decode(w, r, &req) {
		return
	}
	mode := c.defaultMode
	if req.Mode != "" {
		m, err := runner.ParseInvokeMode(req.Mode)
		if err != nil {
			c.writeError(w, r, http.StatusBadRequest, CodeBadRequest, err)
			return
		}
		mode = m
	}

	res := c.fs.RunFlow(r.Context(), req.Flow.Flow, sflow.RunOptions{Mode: mode})
	c.writeJSON(w, r, http.StatusOK, FlowRunResponse{
		Flow:   res.Flow,
		Result: model.NewFlowRunResult(mwrequestid.FromContext(r.Context()), mode, res.Started, res.Result),
	})
}

func (c *FlowServiceRPC) NodeRun(w http.ResponseWriter, r *http.Request) {
	var req NodeRunRequest
	if !c.decode(w, r, &req) {
		return
	}
	res, err := c.fs.RunNode(r.Context(), req.Flow.Flow, req.NodeID, req.Handle)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	out := NodeRunResponse{Flow: res.Flow, Status: res.Status}
	if res.Err != nil {
		out.Error = &ErrorBody{Code: codeOf(res.Err), Message: errmap.Friendly(res.Err)}
	}
	c.writeJSON(w, r, http.StatusOK, out)
}

func (c *FlowServiceRPC) NodePorts(w http.ResponseWriter, r *http.Request) {
	var req NodePortsRequest
	if !c.decode(w, r, &req) {
		return
	}
	p, err := c.fs.Ports(req.Flow.Flow, req.NodeID, req.Expanded)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	c.writeJSON(w, r, http.StatusOK, p)
}

func (c *FlowServiceRPC) NodeInputs(w http.ResponseWriter, r *http.Request) {
	var req NodeInputsRequest
	if !c.decode(w, r, &req) {
		return
	}
	var (
		res sflow.InputsResult
		err error
	)
	switch req.Op {
	case InputsOpAdd:
		res, err = c.fs.AddInput(req.Flow.Flow, req.NodeID)
	case InputsOpRemove:
		res, err = c.fs.RemoveInput(req.Flow.Flow, req.NodeID)
	default:
		c.writeError(w, r, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("unknown op %q (want %s or %s)", req.Op, InputsOpAdd, InputsOpRemove))
		return
	}
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	c.writeJSON(w, r, http.StatusOK, NodeInputsResponse{Flow: res.Flow, Inputs: res.Inputs})
}

func (c *FlowServiceRPC) NodeGet(w http.ResponseWriter, r *http.Request) {
	var req NodeGetRequest
	if !c.decode(w, r, &req) {
		return
	}
	v, ok, err := c.fs.Get(req.Flow.Flow, req.NodeID, req.Path)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	c.writeJSON(w, r, http.StatusOK, NodeGetResponse{Found: ok, Value: v})
}

func (c *FlowServiceRPC) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		c.writeError(w, r, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func (c *FlowServiceRPC) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, node.ErrNodeNotFound):
		c.writeError(w, r, http.StatusNotFound, CodeNodeNotFound, err)
	case errors.Is(err, sflow.ErrWrongKind), errors.Is(err, sflow.ErrUnknownHandle):
		c.writeError(w, r, http.StatusBadRequest, CodeUnsupported, err)
	case errmap.CodeOf(err) != "":
		c.writeError(w, r, http.StatusUnprocessableEntity, string(errmap.CodeOf(err)), err)
	default:
		c.writeError(w, r, http.StatusInternalServerError, CodeInternal, err)
	}
}

func (c *FlowServiceRPC) writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	c.logger.DebugContext(r.Context(), "request failed", "path", r.URL.Path, "code", code, "error", err)
	c.writeJSON(w, r, status, ErrorBody{
		Code:      code,
		Message:   err.Error(),
		RequestID: mwrequestid.FromContext(r.Context()),
	})
}

func (c *FlowServiceRPC) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.ErrorContext(r.Context(), "encode response", "path", r.URL.Path, "error", err)
	}
}

func codeOf(err error) string {
	if code := errmap.CodeOf(err); code != "" {
		return string(code)
	}
	return CodeInternal
}
