package domain

import (
	"regexp"
	"strings"
	"time"
)

// VisitorEntry is one row of the visitors registry: a visitor profile joined with the
// details of their most recent reservation.
type VisitorEntry struct {
	UserID          string     `json:"user_id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email,omitempty"`
	Approved        bool       `json:"approved"`
	CPF             string     `json:"cpf,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	HostName        string     `json:"host_name,omitempty"`
	LastCheckIn     string     `json:"last_check_in,omitempty"`
	LastStatus      string     `json:"last_status,omitempty"`
	Reservations    int        `json:"reservations"`
	RegisteredAt    time.Time  `json:"registered_at"`
	LastReservation *time.Time `json:"last_reservation_at,omitempty"`
}

// VisitorDetails are the visitor fields of a reservation.
type VisitorDetails struct {
	CPF      string
	Phone    string
	HostName string
}

// Reservations written before the visitor columns existed carry these fields inside
// the notes text, e.g. "CPF: 123.456.789-00 | Telefone: (11) 99999-0000 | Sócio responsável: Maria".
var (
	legacyCPFPattern   = regexp.MustCompile(`(?i)CPF:\s*([\d.\-/]+)`)
	legacyPhonePattern = regexp.MustCompile(`(?i)Telefone:\s*([\d()+\-\s]+\d)`)
	legacyHostPattern  = regexp.MustCompile(`(?i)S[óo]cio(?:\s+respons[áa]vel)?:\s*([^|\n]+)`)
)

// VisitorDetailsOf returns the visitor fields of r, falling back to parsing the notes
// for legacy rows.
func VisitorDetailsOf(r Reservation) VisitorDetails {
	d := VisitorDetails{CPF: r.VisitorCPF, Phone: r.VisitorPhone, HostName: r.HostName}
	if d.CPF == "" {
		d.CPF = firstMatch(legacyCPFPattern, r.Notes)
	}
	if d.Phone == "" {
		d.Phone = firstMatch(legacyPhonePattern, r.Notes)
	}
	if d.HostName == "" {
		d.HostName = firstMatch(legacyHostPattern, r.Notes)
	}
	return d
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
