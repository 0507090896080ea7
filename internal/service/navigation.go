package service

import (
	"context"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var navTracer = otel.Tracer("service/navigation")

// NavigationService serves the menu and remembers the last page a user opened.
type NavigationService struct {
	profiles port.ProfileStore
	logger   *zap.Logger
}

func NewNavigationService(profiles port.ProfileStore, logger *zap.Logger) *NavigationService {
	return &NavigationService{profiles: profiles, logger: logger}
}

// Menu returns the viewer's menu and the page to restore.
func (s *NavigationService) Menu(ctx context.Context, viewer domain.Viewer) (*domain.NavigationResponse, error) {
	ctx, span := navTracer.Start(ctx, "NavigationService.Menu")
	defer span.End()

	last, err := s.LastPage(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return &domain.NavigationResponse{Menu: domain.Menu(viewer), LastPage: last}, nil
}

// Resolve returns where a request for page actually lands.
func (s *NavigationService) Resolve(viewer domain.Viewer, page domain.Page) *domain.ResolveResponse {
	landed := domain.ResolvePage(viewer, page)
	return &domain.ResolveResponse{Requested: page, Page: landed, Redirected: landed != page}
}

// LastPage returns the persisted last page, resolved for the viewer's current role.
func (s *NavigationService) LastPage(ctx context.Context, viewer domain.Viewer) (domain.Page, error) {
	profile, err := s.profiles.GetProfile(ctx, viewer.UserID)
	if err != nil {
		return "", err
	}
	return lastPageOf(viewer, profile), nil
}

// SaveLastPage stores the page the viewer lands on for page.
func (s *NavigationService) SaveLastPage(ctx context.Context, viewer domain.Viewer, page domain.Page) (domain.Page, error) {
	ctx, span := navTracer.Start(ctx, "NavigationService.SaveLastPage")
	defer span.End()

	landed := domain.ResolvePage(viewer, page)
	if _, err := s.profiles.UpdateProfile(ctx, viewer.UserID, map[string]any{"last_page": string(landed)}); err != nil {
		return "", &domain.ErrOperation{Message: "Erro ao salvar página", Err: err}
	}
	s.logger.Debug("last page saved", zap.String("user_id", viewer.UserID), zap.String("page", string(landed)))
	return landed, nil
}
