package handler

import (
	"context"
	"encoding/json"
	"go-users-api/logger"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Live godoc
// @Summary      Show the status of server
// @Description  Liveness check. Does not touch the database.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, map[string]string{"status": "up"})
}

// Ready godoc
// @Summary      Show whether the server can reach its database
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.Log.WithError(err).Warn("Readiness check failed")
		writeHealth(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "database": "unreachable"})
		return
	}
	writeHealth(w, http.StatusOK, map[string]string{"status": "up", "database": "up"})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
