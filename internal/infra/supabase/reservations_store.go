package supabase

import (
	"context"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ReservationStore
// ============================================================

const tableReservations = "reservations"

// reservationRow is a reservation with the submitter's name embedded.
type reservationRow struct {
	domain.Reservation
	Profiles *nameJoin `json:"profiles"`
}

func (r reservationRow) toDomain() domain.Reservation {
	res := r.Reservation
	if name := r.Profiles.name(); name != "" {
		res.FullName = name
	}
	if res.GuestsDetails == nil {
		res.GuestsDetails = []domain.Guest{}
	}
	return res
}

func reservationsFrom(rows []reservationRow) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

const reservationSelect = "*,profiles(full_name)"

func (c *Client) CreateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateReservation")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", r.UserID))

	guests := r.GuestsDetails
	if guests == nil {
		guests = []domain.Guest{}
	}
	record := map[string]any{
		"user_id":        r.UserID,
		"check_in":       r.CheckIn,
		"check_out":      r.CheckOut,
		"num_guests":     r.NumGuests,
		"guests_details": guests,
		"accommodation":  r.Accommodation,
		"notes":          r.Notes,
		"visitor_cpf":    nullable(r.VisitorCPF),
		"visitor_phone":  nullable(r.VisitorPhone),
		"host_name":      nullable(r.HostName),
		"status":         r.Status,
	}

	var out reservationRow
	if err := c.insertRow(ctx, tableReservations, record, &out); err != nil {
		return nil, err
	}
	res := out.toDomain()
	return &res, nil
}

func (c *Client) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetReservation")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", id))

	var rows []reservationRow
	q := url.Values{"select": {reservationSelect}, "id": {eq(id)}, "limit": {"1"}}
	if err := c.selectRows(ctx, tableReservations, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	res := rows[0].toDomain()
	return &res, nil
}

func (c *Client) ListReservationsByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReservationsByUser")
	defer span.End()

	var rows []reservationRow
	q := url.Values{"select": {reservationSelect}, "user_id": {eq(userID)}, "order": {"check_in.asc"}}
	if err := c.selectRows(ctx, tableReservations, q, &rows); err != nil {
		return nil, err
	}
	return reservationsFrom(rows), nil
}

func (c *Client) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReservations")
	defer span.End()

	var rows []reservationRow
	q := url.Values{"select": {reservationSelect}, "order": {"check_in.asc"}}
	if err := c.selectRows(ctx, tableReservations, q, &rows); err != nil {
		return nil, err
	}
	return reservationsFrom(rows), nil
}

// ListReservationsByUsers returns the reservations of the given users, newest first.
func (c *Client) ListReservationsByUsers(ctx context.Context, userIDs []string) ([]domain.Reservation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListReservationsByUsers")
	defer span.End()

	if len(userIDs) == 0 {
		return []domain.Reservation{}, nil
	}
	var rows []reservationRow
	q := url.Values{"select": {reservationSelect}, "user_id": {in(userIDs)}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, tableReservations, q, &rows); err != nil {
		return nil, err
	}
	return reservationsFrom(rows), nil
}

func (c *Client) UpdateReservation(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateReservation")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", id))

	return c.updateRows(ctx, tableReservations, url.Values{"id": {eq(id)}}, updates, nil)
}

func (c *Client) DeleteReservation(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteReservation")
	defer span.End()

	return c.deleteRows(ctx, tableReservations, url.Values{"id": {eq(id)}})
}

// nullable stores empty strings as SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
