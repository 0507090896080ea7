package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

func TestEvent_VisibleOn(t *testing.T) {
	end := "2025-06-12T00:00:00+00:00"
	multiDay := domain.Event{StartDate: "2025-06-10", EndDate: &end}
	oneDay := domain.Event{StartDate: "2025-06-10"}

	assert.True(t, multiDay.VisibleOn("2025-06-12"))
	assert.False(t, multiDay.VisibleOn("2025-06-13"))
	assert.True(t, oneDay.VisibleOn("2025-06-10"))
	assert.False(t, oneDay.VisibleOn("2025-06-11"))

	empty := ""
	assert.True(t, domain.Event{StartDate: "2025-06-10", EndDate: &empty}.VisibleOn("2025-06-10"))
}

func TestEmbeddableReportURL(t *testing.T) {
	tests := map[string]string{
		"https://lookerstudio.google.com/reporting/abc/page/1":       "https://lookerstudio.google.com/embed/reporting/abc/page/1",
		"https://lookerstudio.google.com/u/0/reporting/abc":          "https://lookerstudio.google.com/embed/reporting/abc",
		"https://datastudio.google.com/reporting/xyz":                "https://datastudio.google.com/embed/reporting/xyz",
		"https://lookerstudio.google.com/embed/reporting/abc/page/1": "https://lookerstudio.google.com/embed/reporting/abc/page/1",
		"  https://example.com/dashboard  ":                          "https://example.com/dashboard",
	}
	for in, want := range tests {
		assert.Equal(t, want, domain.EmbeddableReportURL(in), in)
	}
}

func TestVisitorDetailsOf(t *testing.T) {
	structured := domain.Reservation{VisitorCPF: "111", VisitorPhone: "222", HostName: "Maria", Notes: "CPF: 999"}
	assert.Equal(t, domain.VisitorDetails{CPF: "111", Phone: "222", HostName: "Maria"}, domain.VisitorDetailsOf(structured))

	legacy := domain.Reservation{Notes: "CPF: 123.456.789-00 | Telefone: (11) 99999-0000 | Sócio responsável: João Silva"}
	assert.Equal(t, domain.VisitorDetails{
		CPF:      "123.456.789-00",
		Phone:    "(11) 99999-0000",
		HostName: "João Silva",
	}, domain.VisitorDetailsOf(legacy))

	assert.Equal(t, domain.VisitorDetails{}, domain.VisitorDetailsOf(domain.Reservation{Notes: "chegaremos tarde"}))
}
