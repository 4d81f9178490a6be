package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/background-worker-service/internal/app/background-worker/repository"
	"storefront/pkg/logger"

	"gorm.io/gorm"
)

// Pinger - зависимость, доступность которой проверяет healthcheck (pkg/cache.Client)
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckHandler struct {
	db         *gorm.DB
	redis      Pinger
	reportRepo repository.ReportRepository
}

func NewHealthCheckHandler(db *gorm.DB, redis Pinger, reportRepo repository.ReportRepository) *HealthCheckHandler {
	return &HealthCheckHandler{
		db:         db,
		redis:      redis,
		reportRepo: reportRepo,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	if err := h.checkDatabase(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = "unhealthy: " + err.Error()
		overallStatus = "unhealthy"
	} else {
		checks["redis"] = "healthy"
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: time.Now(),
	})
}

func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.checkDatabase(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}

	if err := h.redis.Ping(ctx); err != nil {
		http.Error(w, "redis not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}

// LowStockReport отдает последний отчет cron задачи
func (h *HealthCheckHandler) LowStockReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportRepo.Latest(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Report not found"})
			return
		}
		logger.Error().Err(err).Msg("failed to read low stock report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read report"})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *HealthCheckHandler) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/readiness", h.Readiness)
	mux.HandleFunc("GET /health/liveness", h.Liveness)
	mux.HandleFunc("GET /reports/low-stock", h.LowStockReport)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn().Err(err).Msg("failed to write response")
	}
}
