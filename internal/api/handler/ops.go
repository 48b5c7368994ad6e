// Package handler provides HTTP handlers for the epadash API.
package handler

import (
	"net/http"
	"time"

	"github.com/epadash/epadash/internal/api/models"
	"github.com/epadash/epadash/internal/api/response"
	"github.com/epadash/epadash/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler. registry may be nil, in which
// case no providers are reported.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is not ready
// while every upstream provider has its circuit open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	providers := h.providers()

	open := 0
	for _, p := range providers {
		if p.Status == models.HealthStatusFail {
			open++
		}
	}

	if len(providers) > 0 && open == len(providers) {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
			Status:  models.HealthStatusFail,
			Time:    models.Timestamp(h.now()),
			Details: map[string]any{"reason": "all upstream circuits open"},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
	})
}

// SystemStatus handles GET /v1/ops/status - upstream provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	providers := h.providers()

	overall := models.HealthStatusOK
	for _, p := range providers {
		if p.Status != models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, models.SystemStatus{
		Status:    overall,
		Time:      models.Timestamp(h.now()),
		Providers: providers,
	})
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:      ph.Name,
			Status:        providerStatus(ph),
			CircuitState:  ph.CircuitState.String(),
			LastSuccessAt: timestampPtr(ph.LastSuccessAt),
			LastFailureAt: timestampPtr(ph.LastFailureAt),
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func providerStatus(ph *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case ph.IsUnhealthy():
		return models.HealthStatusFail
	case ph.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
