package adaptor

import (
	"context"
	"net/http"
	"time"

	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewHealthHandler(db Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log.With(zap.String("handler", "health"))}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Database ping failed", zap.Error(err))
		utils.ResponseJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.ResponseSuccess(w, map[string]string{"status": "ok"})
}
