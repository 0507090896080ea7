package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// PortalStats is returned by GET /v1/admin/stats.
type PortalStats struct {
	SignUps             int64   `json:"signUps"`
	ReservationsCreated int64   `json:"reservationsCreated"`
	OrdersCreated       int64   `json:"ordersCreated"`
	Uploads             int64   `json:"uploads"`
	BackendErrors       int64   `json:"backendErrors"`
	SessionHitRate      float64 `json:"sessionHitRate"`
	ActiveSessions      int     `json:"activeSessions"`
	Period              string  `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
