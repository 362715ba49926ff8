//nolint:revive // exported
package rhealth

import (
	"net/http"

	"github.com/the-dev-tools/jsonflow/internal/api"
)

const Path = "/healthz"

type HealthServiceRPC struct {
	Version string
}

func New(version string) *HealthServiceRPC {
	return &HealthServiceRPC{Version: version}
}

func CreateService(srv *HealthServiceRPC) *api.Service {
	return &api.Service{Path: Path, Handler: http.HandlerFunc(srv.HealthCheck)}
}

func (c *HealthServiceRPC) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + c.Version + `"}`))
}
