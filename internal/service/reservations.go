package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var reservationTracer = otel.Tracer("service/reservations")

// ReservationService handles lodging reservations.
type ReservationService struct {
	store   port.ReservationStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewReservationService(store port.ReservationStore, metrics *observability.Metrics, logger *zap.Logger) *ReservationService {
	return &ReservationService{store: store, metrics: metrics, logger: logger}
}

// Create stores a pending reservation owned by the viewer.
func (s *ReservationService) Create(ctx context.Context, viewer domain.Viewer, req *domain.CreateReservationRequest) (*domain.Reservation, error) {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", viewer.UserID))

	if err := validateStay(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Accommodation) == "" {
		return nil, &domain.ErrValidation{Field: "accommodation", Message: "obrigatório"}
	}
	guests := req.NumGuests
	if guests == 0 {
		guests = len(req.GuestsDetails)
	}
	if guests <= 0 {
		return nil, &domain.ErrValidation{Field: "num_guests", Message: "informe ao menos um hóspede"}
	}
	if viewer.IsVisitor {
		switch {
		case strings.TrimSpace(req.VisitorCPF) == "":
			return nil, &domain.ErrValidation{Field: "visitor_cpf", Message: "obrigatório para visitantes"}
		case strings.TrimSpace(req.VisitorPhone) == "":
			return nil, &domain.ErrValidation{Field: "visitor_phone", Message: "obrigatório para visitantes"}
		case strings.TrimSpace(req.HostName) == "":
			return nil, &domain.ErrValidation{Field: "host_name", Message: "obrigatório para visitantes"}
		}
	}

	created, err := s.store.CreateReservation(ctx, &domain.Reservation{
		UserID:        viewer.UserID,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		NumGuests:     guests,
		GuestsDetails: req.GuestsDetails,
		Accommodation: req.Accommodation,
		Notes:         req.Notes,
		VisitorCPF:    strings.TrimSpace(req.VisitorCPF),
		VisitorPhone:  strings.TrimSpace(req.VisitorPhone),
		HostName:      strings.TrimSpace(req.HostName),
		Status:        domain.StatusPending,
	})
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao criar reserva", Err: err}
	}

	s.metrics.IncrEvent(observability.EventReservation)
	s.logger.Info("reservation created",
		zap.String("reservation_id", created.ID),
		zap.String("user_id", viewer.UserID),
		zap.String("check_in", created.CheckIn),
	)
	return created, nil
}

func validateStay(checkIn, checkOut string) error {
	in, err := time.Parse(domain.DateLayout, checkIn)
	if err != nil {
		return &domain.ErrValidation{Field: "check_in", Message: "data inválida, use AAAA-MM-DD"}
	}
	out, err := time.Parse(domain.DateLayout, checkOut)
	if err != nil {
		return &domain.ErrValidation{Field: "check_out", Message: "data inválida, use AAAA-MM-DD"}
	}
	if out.Before(in) {
		return &domain.ErrValidation{Field: "check_out", Message: "saída deve ser igual ou posterior à entrada"}
	}
	return nil
}

func (s *ReservationService) ListMine(ctx context.Context, viewer domain.Viewer) ([]domain.Reservation, error) {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.ListMine")
	defer span.End()

	return s.store.ListReservationsByUser(ctx, viewer.UserID)
}

// ListAll returns every reservation with the submitter's name, by check-in.
func (s *ReservationService) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.ListAll")
	defer span.End()

	return s.store.ListReservations(ctx)
}

// Overview fetches the viewer's reservations and, for admins, everyone's, concurrently.
func (s *ReservationService) Overview(ctx context.Context, viewer domain.Viewer) (*domain.ReservationOverview, error) {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.Overview")
	defer span.End()

	out := &domain.ReservationOverview{}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mine, err := s.store.ListReservationsByUser(gCtx, viewer.UserID)
		out.Mine = mine
		return err
	})
	if viewer.IsAdmin {
		g.Go(func() error {
			all, err := s.store.ListReservations(gCtx)
			out.All = all
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a reservation to a new status, keeping the admin note when given.
func (s *ReservationService) Transition(ctx context.Context, id string, req *domain.StatusChangeRequest) (*domain.Reservation, error) {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", id), attribute.String("status", req.Status))

	current, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionReservation(current.Status, req.Status) {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("Transição de status inválida: %s → %s", current.Status, req.Status)}
	}

	updates := map[string]any{"status": req.Status}
	if note := strings.TrimSpace(req.AdminNote); note != "" {
		updates["admin_notes"] = domain.AppendNote(current.AdminNotes, note)
	}
	if err := s.store.UpdateReservation(ctx, id, updates); err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao atualizar reserva", Err: err}
	}

	s.logger.Info("reservation status changed",
		zap.String("reservation_id", id),
		zap.String("from", current.Status),
		zap.String("to", req.Status),
	)
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	ctx, span := reservationTracer.Start(ctx, "ReservationService.Delete")
	defer span.End()

	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir reserva", Err: err}
	}
	s.logger.Info("reservation deleted", zap.String("reservation_id", id))
	return nil
}
