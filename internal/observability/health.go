package observability

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Components reported by the storage buffer service
const (
	ComponentKafka   = "kafka"
	ComponentStorage = "storage"
	ComponentFlusher = "flusher"
)

// HealthChecker manages health checks for both gRPC and HTTP. The service
// is healthy while every registered component is ready.
type HealthChecker struct {
	grpcHealth *health.Server
	httpServer *http.Server
	logger     *zap.Logger
	mu         sync.RWMutex
	ready      bool
	components map[string]bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		grpcHealth: health.NewServer(),
		logger:     logger,
		ready:      true,
		components: make(map[string]bool),
	}
}

// RegisterGRPC registers the health service with the gRPC server
func (h *HealthChecker) RegisterGRPC(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.grpcHealth)
	h.updateGRPC()
}

// Handler returns the HTTP handler serving /healthz
func (h *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)
	return mux
}

// StartHTTPServer starts the HTTP health check server
func (h *HealthChecker) StartHTTPServer(addr string) error {
	h.httpServer = &http.Server{
		Addr:    addr,
		Handler: h.Handler(),
	}

	h.logger.Info("starting HTTP health server", zap.String("addr", addr))
	return h.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the health checker
func (h *HealthChecker) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.ready = false
	h.mu.Unlock()
	h.grpcHealth.Shutdown()

	if h.httpServer != nil {
		return h.httpServer.Shutdown(ctx)
	}
	return nil
}

// SetReady records the readiness of one component
func (h *HealthChecker) SetReady(component string, ready bool) {
	h.mu.Lock()
	prev, known := h.components[component]
	h.components[component] = ready
	h.mu.Unlock()

	if !known || prev != ready {
		h.logger.Info("component readiness changed",
			zap.String("component", component),
			zap.Bool("ready", ready),
		)
	}
	h.updateGRPC()
}

// NotReady returns the components currently not ready, sorted
func (h *HealthChecker) NotReady() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []string
	for name, ok := range h.components {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Healthy reports whether the service and all its components are ready
func (h *HealthChecker) Healthy() bool {
	h.mu.RLock()
	ready := h.ready
	h.mu.RUnlock()
	return ready && len(h.NotReady()) == 0
}

func (h *HealthChecker) updateGRPC() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := h.ready
	for name, ok := range h.components {
		h.grpcHealth.SetServingStatus(name, servingStatus(ok))
		overall = overall && ok
	}
	h.grpcHealth.SetServingStatus("", servingStatus(overall))
}

func servingStatus(ok bool) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if ok {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.Healthy() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	if failing := h.NotReady(); len(failing) > 0 {
		w.Write([]byte("NOT_READY: " + strings.Join(failing, ",")))
		return
	}
	w.Write([]byte("NOT_READY"))
}
