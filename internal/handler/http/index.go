package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/health"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/httputil"
)

// Store connection states reported by GET /api/health.
const (
	databaseDisconnected = 0
	databaseConnected    = 1
)

// IndexHandler serves the service index documents and the legacy health
// report.
type IndexHandler struct {
	environment string
	storeDriver string
	storeCheck  health.Checker
	startedAt   time.Time
	logger      *slog.Logger
}

// NewIndexHandler creates a new index handler. storeCheck may be nil when the
// store has no connection to check.
func NewIndexHandler(environment, storeDriver string, storeCheck health.Checker, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		environment: environment,
		storeDriver: storeDriver,
		storeCheck:  storeCheck,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// Root handles GET /.
func (h *IndexHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, "House Rental Backend API", httputil.Payload{
		"version": "1.0.0",
		"status":  "online",
		"endpoints": map[string]string{
			"root":       "/",
			"api":        "/api",
			"health":     "/api/health",
			"auth":       "/api/auth",
			"properties": "/api/properties",
			"feedback":   "/api/feedback",
		},
		"timestamp": time.Now().UTC(),
	})
}

// API handles GET /api.
func (h *IndexHandler) API(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "House Rental API v1.0",
		"available_endpoints": []string{
			"GET    /api/health - Health check",
			"POST   /api/auth/login - Login admin",
			"GET    /api/properties - Get all properties",
			"GET    /api/properties/all - Get all properties with count",
			"GET    /api/properties/my-creations/:email - Get properties by admin email",
			"GET    /api/properties/:id - Get property",
			"POST   /api/properties/add - Create property",
			"PUT    /api/properties/update/:id - Update property",
			"DELETE /api/properties/delete/:id - Delete property",
			"GET    /api/feedback - Get feedback",
			"POST   /api/feedback - Submit feedback",
			"GET    /api/feedback/stats - Feedback statistics",
		},
	})
}

// Health handles GET /api/health. It always answers 200; the store state is
// reported in the body.
func (h *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	state := databaseConnected
	if h.storeCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.storeCheck(ctx); err != nil {
			state = databaseDisconnected
			h.logger.WarnContext(r.Context(), "store health check failed",
				slog.String("driver", h.storeDriver),
				slog.String("error", err.Error()),
			)
		}
	}
	database := "Connected"
	if state == databaseDisconnected {
		database = "Disconnected"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":        "OK",
		"service":       "House Rental Backend",
		"store":         h.storeDriver,
		"database":      database,
		"databaseState": state,
		"timestamp":     time.Now().UTC(),
		"uptime":        time.Since(h.startedAt).Seconds(),
		"memory": map[string]uint64{
			"heapAlloc": mem.HeapAlloc,
			"heapSys":   mem.HeapSys,
			"sys":       mem.Sys,
		},
		"environment": h.environment,
	})
}
