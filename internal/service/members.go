package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var memberTracer = otel.Tracer("service/members")

// MemberService is the admin's user management plus each member's own profile page.
type MemberService struct {
	profiles port.ProfileStore
	logger   *zap.Logger
}

func NewMemberService(profiles port.ProfileStore, logger *zap.Logger) *MemberService {
	return &MemberService{profiles: profiles, logger: logger}
}

// ListMembers returns every profile, optionally of one role, by name.
func (s *MemberService) ListMembers(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.ListMembers")
	defer span.End()

	if role != "" && !role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "papel inválido"}
	}
	return s.profiles.ListProfiles(ctx, role)
}

// ToggleApproval flips the approved flag. The change applies on the user's next request.
func (s *MemberService) ToggleApproval(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.ToggleApproval")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", id))

	p, err := s.mustProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.profiles.UpdateProfile(ctx, id, map[string]any{"approved": !p.Approved})
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao atualizar aprovação", Err: err}
	}
	s.logger.Info("member approval toggled", zap.String("user_id", id), zap.Bool("approved", updated.Approved))
	return updated, nil
}

// SetRole changes a user's role. Admins cannot take the admin role from themselves.
func (s *MemberService) SetRole(ctx context.Context, viewer domain.Viewer, id string, role domain.Role) (*domain.Profile, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.SetRole")
	defer span.End()

	if !role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "papel deve ser member, admin ou visitor"}
	}
	if id == viewer.UserID && role != domain.RoleAdmin {
		return nil, &domain.ErrForbidden{Action: "remover o próprio acesso de administrador"}
	}
	if _, err := s.mustProfile(ctx, id); err != nil {
		return nil, err
	}
	updated, err := s.profiles.UpdateProfile(ctx, id, map[string]any{"role": string(role)})
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao atualizar papel", Err: err}
	}
	s.logger.Info("member role changed", zap.String("user_id", id), zap.String("role", string(role)), zap.String("by", viewer.UserID))
	return updated, nil
}

// DeleteUser removes the profile row. The auth identity stays with the provider.
func (s *MemberService) DeleteUser(ctx context.Context, viewer domain.Viewer, id string) error {
	ctx, span := memberTracer.Start(ctx, "MemberService.DeleteUser")
	defer span.End()

	if id == viewer.UserID {
		return &domain.ErrForbidden{Action: "excluir o próprio usuário"}
	}
	if _, err := s.mustProfile(ctx, id); err != nil {
		return err
	}
	if err := s.profiles.DeleteProfile(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir usuário", Err: err}
	}
	s.logger.Info("member deleted", zap.String("user_id", id), zap.String("by", viewer.UserID))
	return nil
}

func (s *MemberService) GetOwnProfile(ctx context.Context, viewer domain.Viewer) (*domain.Profile, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.GetOwnProfile")
	defer span.End()

	return s.mustProfile(ctx, viewer.UserID)
}

// UpdateOwnProfile applies the contact fields and dependents sent by the member.
func (s *MemberService) UpdateOwnProfile(ctx context.Context, viewer domain.Viewer, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	ctx, span := memberTracer.Start(ctx, "MemberService.UpdateOwnProfile")
	defer span.End()

	updates := map[string]any{}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, &domain.ErrValidation{Field: "full_name", Message: "obrigatório"}
		}
		updates["full_name"] = name
	}
	if req.CPF != nil {
		updates["cpf"] = strings.TrimSpace(*req.CPF)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.BirthDate != nil {
		// birth_date is a date column: an empty value clears it with null.
		if birth := strings.TrimSpace(*req.BirthDate); birth == "" {
			updates["birth_date"] = nil
		} else {
			if _, err := time.Parse(domain.DateLayout, birth); err != nil {
				return nil, &domain.ErrValidation{Field: "birth_date", Message: "data inválida, use AAAA-MM-DD"}
			}
			updates["birth_date"] = birth
		}
	}
	if req.Dependents != nil {
		for _, d := range *req.Dependents {
			if strings.TrimSpace(d.Name) == "" {
				return nil, &domain.ErrValidation{Field: "dependents", Message: "nome do dependente obrigatório"}
			}
		}
		updates["dependents"] = *req.Dependents
	}
	if len(updates) == 0 {
		return s.mustProfile(ctx, viewer.UserID)
	}

	updated, err := s.profiles.UpdateProfile(ctx, viewer.UserID, updates)
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao salvar perfil", Err: err}
	}
	s.logger.Info("profile updated", zap.String("user_id", viewer.UserID), zap.Int("fields", len(updates)))
	return updated, nil
}

func (s *MemberService) mustProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	return p, nil
}

// ============================================================
// Visitors registry
// ============================================================

type VisitorStore interface {
	ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error)
	ListReservationsByUsers(ctx context.Context, userIDs []string) ([]domain.Reservation, error)
}

// VisitorService builds the admin's visitors registry.
type VisitorService struct {
	store  VisitorStore
	logger *zap.Logger
}

func NewVisitorService(store VisitorStore, logger *zap.Logger) *VisitorService {
	return &VisitorService{store: store, logger: logger}
}

// Registry lists visitor profiles with the details of their most recent reservation,
// most recently active first; visitors without reservations go last, by name.
func (s *VisitorService) Registry(ctx context.Context) ([]domain.VisitorEntry, error) {
	ctx, span := memberTracer.Start(ctx, "VisitorService.Registry")
	defer span.End()

	visitors, err := s.store.ListProfiles(ctx, domain.RoleVisitor)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.VisitorEntry, 0, len(visitors))
	if len(visitors) == 0 {
		return entries, nil
	}

	ids := make([]string, 0, len(visitors))
	for _, v := range visitors {
		ids = append(ids, v.ID)
	}
	reservations, err := s.store.ListReservationsByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	latest := map[string]domain.Reservation{}
	counts := map[string]int{}
	for _, r := range reservations {
		counts[r.UserID]++
		if cur, ok := latest[r.UserID]; !ok || r.CreatedAt.After(cur.CreatedAt) {
			latest[r.UserID] = r
		}
	}

	for _, v := range visitors {
		e := domain.VisitorEntry{
			UserID:       v.ID,
			FullName:     v.FullName,
			Email:        v.Email,
			Approved:     v.Approved,
			CPF:          v.CPF,
			Phone:        v.Phone,
			Reservations: counts[v.ID],
			RegisteredAt: v.CreatedAt,
		}
		if r, ok := latest[v.ID]; ok {
			d := domain.VisitorDetailsOf(r)
			if d.CPF != "" {
				e.CPF = d.CPF
			}
			if d.Phone != "" {
				e.Phone = d.Phone
			}
			e.HostName = d.HostName
			e.LastCheckIn = r.CheckIn
			e.LastStatus = r.Status
			at := r.CreatedAt
			e.LastReservation = &at
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].LastReservation, entries[j].LastReservation
		switch {
		case a != nil && b != nil:
			return a.After(*b)
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return entries[i].FullName < entries[j].FullName
	})
	return entries, nil
}
