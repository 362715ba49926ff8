//nolint:revive // exported
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/the-dev-tools/jsonflow/internal/api/middleware/mwrequestid"
)

type Service struct {
	Handler http.Handler
	Path    string
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

const DefaultPort = "8080"

func DefaultServerSocketPath() string {
	return filepath.Join(os.TempDir(), "jsonflow", "server.socket")
}

type Config struct {
	Mode       string
	Port       string
	SocketPath string
	Logger     *slog.Logger
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			mwrequestid.Header,
		},
		MaxAge: int(time.Second),
	})
}

// NewHandler mounts services on one mux behind request ids and CORS.
func NewHandler(services []Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	for _, service := range services {
		logger.Info("Registering service", "path", service.Path)
		mux.Handle(service.Path, service.Handler)
	}
	return newCORS().Handler(mwrequestid.New(logger)(mux))
}

func newH2CServer(handler http.Handler) *http.Server {
	return &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		// INFO: Use h2c so we can serve HTTP/2 without TLS.
		Handler: h2c.NewHandler(handler, &http2.Server{
			IdleTimeout:          0,
			MaxConcurrentStreams: 1000,
			MaxHandlers:          0,
		}),
	}
}

// ListenServices serves on a TCP port or a Unix socket until ctx is done,
// then shuts down gracefully.
func ListenServices(ctx context.Context, services []Service, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lis, cleanup, err := listen(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := newH2CServer(NewHandler(services, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
		defer cancel()
		logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func listen(ctx context.Context, cfg Config, logger *slog.Logger) (net.Listener, func(), error) {
	lc := net.ListenConfig{}
	mode := cfg.Mode
	if mode == "" {
		mode = ServerModeTCP
	}

	switch mode {
	case ServerModeTCP:
		port := cfg.Port
		if port == "" {
			port = DefaultPort
		}
		lis, err := lc.Listen(ctx, "tcp", ":"+port)
		if err != nil {
			return nil, nil, fmt.Errorf("listen tcp: %w", err)
		}
		logger.Info("Server listening on TCP", "port", port)
		return lis, func() {}, nil
	case ServerModeUDS:
		socketPath := cfg.SocketPath
		if socketPath == "" {
			socketPath = DefaultServerSocketPath()
		}
		if err := os.MkdirAll(filepath.Dir(socketPath), 0o750); err != nil {
			return nil, nil, err
		}
		// Remove stale socket file if present (e.g., from a previous crash)
		if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove stale socket", "path", socketPath, "error", err)
		}
		lis, err := lc.Listen(ctx, "unix", socketPath)
		if err != nil {
			return nil, nil, fmt.Errorf("listen unix: %w", err)
		}
		logger.Info("Server listening on Unix socket", "path", socketPath)
		return lis, func() {
			if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove socket on shutdown", "path", socketPath, "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown server mode %q (want %s or %s)", mode, ServerModeTCP, ServerModeUDS)
	}
}
