package domain

import (
	"strings"
	"time"
)

// ============================================================
// Contact messages and site settings
// ============================================================

// ContactMessage is a message sent by a member to the administration.
type ContactMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name,omitempty"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageRequest is the body for POST /v1/contact.
type SendMessageRequest struct {
	Type    string `json:"type" validate:"required,oneof=sugestao reclamacao duvida elogio outro"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SiteSetting is a key/value pair of portal configuration.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SettingLookerStudioURL is the key holding the finance dashboard URL.
const SettingLookerStudioURL = "looker_studio_url"

// FinanceEmbed is returned by GET /v1/finance.
type FinanceEmbed struct {
	URL string `json:"url"`
}

// SetFinanceRequest is the body for PUT /v1/finance.
type SetFinanceRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// EmbeddableReportURL rewrites a Looker Studio (or legacy Data Studio) sharing link to
// the embeddable form. Links that are already embeddable, or are not reports, are
// returned unchanged.
func EmbeddableReportURL(raw string) string {
	u := strings.TrimSpace(raw)
	if strings.Contains(u, "/embed/reporting/") {
		return u
	}
	for _, host := range []string{"lookerstudio.google.com", "datastudio.google.com"} {
		if strings.Contains(u, host+"/reporting/") {
			return strings.Replace(u, host+"/reporting/", host+"/embed/reporting/", 1)
		}
		if strings.Contains(u, host+"/u/0/reporting/") {
			return strings.Replace(u, host+"/u/0/reporting/", host+"/embed/reporting/", 1)
		}
	}
	return u
}
