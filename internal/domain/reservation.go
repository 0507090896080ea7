package domain

import "time"

// ============================================================
// Lodging reservations
// ============================================================

// Status values shared by lodging reservations and shop orders.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// Guest is one person staying under a reservation.
type Guest struct {
	Name string `json:"name" validate:"required"`
	Age  int    `json:"age" validate:"gte=0"`
}

// Reservation is a lodging booking at the farm.
type Reservation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FullName      string    `json:"full_name,omitempty"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	NumGuests     int       `json:"num_guests"`
	GuestsDetails []Guest   `json:"guests_details"`
	Accommodation string    `json:"accommodation"`
	Notes         string    `json:"notes,omitempty"`
	VisitorCPF    string    `json:"visitor_cpf,omitempty"`
	VisitorPhone  string    `json:"visitor_phone,omitempty"`
	HostName      string    `json:"host_name,omitempty"`
	Status        string    `json:"status"`
	AdminNotes    string    `json:"admin_notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateReservationRequest is the body for POST /v1/reservations.
// Visitor fields are required only when the caller is a visitor.
type CreateReservationRequest struct {
	CheckIn       string  `json:"check_in" validate:"required"`
	CheckOut      string  `json:"check_out" validate:"required"`
	NumGuests     int     `json:"num_guests" validate:"gte=0"`
	GuestsDetails []Guest `json:"guests_details" validate:"dive"`
	Accommodation string  `json:"accommodation" validate:"required"`
	Notes         string  `json:"notes,omitempty"`
	VisitorCPF    string  `json:"visitor_cpf,omitempty"`
	VisitorPhone  string  `json:"visitor_phone,omitempty"`
	HostName      string  `json:"host_name,omitempty"`
}

// StatusChangeRequest is the body for PATCH .../status on reservations and orders.
type StatusChangeRequest struct {
	Status    string `json:"status" validate:"required"`
	AdminNote string `json:"admin_note,omitempty"`
}

// ReservationOverview is what an admin sees when opening the reservations page.
type ReservationOverview struct {
	Mine []Reservation `json:"mine"`
	All  []Reservation `json:"all,omitempty"`
}

// reservationTransitions lists, per current status, the statuses an admin may set.
var reservationTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCanceled},
}

// CanTransitionReservation reports whether a lodging reservation may move from → to.
func CanTransitionReservation(from, to string) bool {
	return allowed(reservationTransitions, from, to)
}

// AppendNote adds note as a new line of existing admin notes.
func AppendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

func allowed(matrix map[string][]string, from, to string) bool {
	for _, s := range matrix[from] {
		if s == to {
			return true
		}
	}
	return false
}
