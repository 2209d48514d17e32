package engine

import (
	"encoding/json"
	"net/http"
)

// PoolHealthServer exposes liveness and readiness for a built pool.
type PoolHealthServer struct {
	pool *EndpointPool
}

func NewPoolHealthServer(pool *EndpointPool) *PoolHealthServer {
	return &PoolHealthServer{pool: pool}
}

// Register mounts /healthz and /readyz on mux.
func (h *PoolHealthServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Live)
	mux.HandleFunc("/readyz", h.Ready)
}

// Live 存活检查（进程是否存活）
func (h *PoolHealthServer) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready 就绪检查：至少一个健康节点
func (h *PoolHealthServer) Ready(w http.ResponseWriter, _ *http.Request) {
	healthy := h.pool.HealthyCount()
	if healthy == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"healthy":  0,
			"excluded": len(h.pool.Excluded()),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"healthy":  healthy,
		"excluded": len(h.pool.Excluded()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Error("failed_to_encode_health_response", "err", err)
	}
}
