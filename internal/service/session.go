// Package service holds the portal's use cases. Services receive the caller as
// a domain.Viewer and talk to the backend only through the port interfaces.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// Session is the server-side state behind an access token. It lives in the
// session cache; every authenticated request pushes its idle expiry forward.
type Session struct {
	UserID        string
	Email         string
	ProviderToken string
	CreatedAt     time.Time
}

// SessionClaims are the claims of the portal access token.
type SessionClaims struct {
	SessionID string      `json:"sid"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionService signs users up, in and out, and resolves the Viewer of each request.
type SessionService struct {
	identity   port.IdentityProvider
	profiles   port.ProfileStore
	sessions   port.Cache[Session]
	metrics    *observability.Metrics
	jwtSecret  []byte
	accessTTL  time.Duration
	superAdmin string
	logger     *zap.Logger
}

// NewSessionService creates the session service. The idle timeout is the TTL of sessions.
func NewSessionService(
	identity port.IdentityProvider,
	profiles port.ProfileStore,
	sessions port.Cache[Session],
	metrics *observability.Metrics,
	jwtSecret string,
	accessTTL time.Duration,
	superAdminEmail string,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		identity:   identity,
		profiles:   profiles,
		sessions:   sessions,
		metrics:    metrics,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		superAdmin: strings.TrimSpace(superAdminEmail),
		logger:     logger,
	}
}

// ============================================================
// SignUp: POST /v1/auth/signup
// ============================================================

func (s *SessionService) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.SessionResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignUp")
	defer span.End()

	role := domain.Role(req.Kind)
	if role != domain.RoleMember && role != domain.RoleVisitor {
		return nil, &domain.ErrValidation{Field: "kind", Message: "tipo de cadastro deve ser member ou visitor"}
	}
	if req.BirthDate != "" {
		if _, err := time.Parse(domain.DateLayout, req.BirthDate); err != nil {
			return nil, &domain.ErrValidation{Field: "birthDate", Message: "data inválida, use AAAA-MM-DD"}
		}
	}

	identity, err := s.identity.SignUp(ctx, req.Email, req.Password, map[string]any{
		"full_name": req.FullName,
		"kind":      req.Kind,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", identity.ID))

	profile := &domain.Profile{
		ID:        identity.ID,
		FullName:  strings.TrimSpace(req.FullName),
		Email:     identity.Email,
		Role:      role,
		Approved:  false,
		CPF:       req.CPF,
		Phone:     req.Phone,
		Address:   req.Address,
		BirthDate: req.BirthDate,
	}
	if s.isSuperAdmin(identity.Email) {
		profile.Role = domain.RoleAdmin
		profile.Approved = true
	}

	created, err := s.profiles.CreateProfile(ctx, profile)
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao criar perfil", Err: err}
	}

	s.metrics.IncrEvent(observability.EventSignUp)
	s.logger.Info("user signed up",
		zap.String("user_id", created.ID),
		zap.String("role", string(created.Role)),
	)

	viewer := domain.NewViewer(*identity, created).PromoteSuperAdmin(s.superAdmin)
	return s.open(ctx, *identity, viewer, created)
}

// ============================================================
// SignIn: POST /v1/auth/login
// ============================================================

func (s *SessionService) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SessionResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignIn")
	defer span.End()

	identity, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", identity.ID))

	profile, err := s.profiles.GetProfile(ctx, identity.ID)
	if err != nil {
		// Without a profile the user lands on the pending screen, except the super-admin.
		s.logger.Warn("sign-in: profile lookup failed",
			zap.String("user_id", identity.ID),
			zap.Error(err),
		)
		profile = nil
	}
	viewer := domain.NewViewer(*identity, profile).PromoteSuperAdmin(s.superAdmin)

	s.logger.Info("user signed in",
		zap.String("user_id", viewer.UserID),
		zap.String("gate", string(viewer.Gate())),
	)
	return s.open(ctx, *identity, viewer, profile)
}

// open creates the server-side session and signs its access token.
func (s *SessionService) open(ctx context.Context, identity domain.Identity, viewer domain.Viewer, profile *domain.Profile) (*domain.SessionResponse, error) {
	sid := uuid.NewString()
	token, err := s.sign(sid, viewer)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	s.sessions.Set(sid, Session{
		UserID:        identity.ID,
		Email:         identity.Email,
		ProviderToken: identity.ProviderToken,
		CreatedAt:     time.Now(),
	})
	viewer.SessionID = sid

	resp := describe(viewer, profile)
	resp.AccessToken = token
	resp.ExpiresIn = int(s.accessTTL.Seconds())
	return resp, nil
}

func (s *SessionService) sign(sid string, viewer domain.Viewer) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sid,
		Email:     viewer.Email,
		Role:      viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "portal-bfa",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ============================================================
// Authenticate: used by the auth middleware
// ============================================================

// Authenticate validates the access token, requires a live session and refreshes
// its idle timer, then resolves the Viewer from the current profile row.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.Viewer, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Authenticate")
	defer span.End()

	claims, err := s.parse(token)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Sessão inválida"}
	}

	session, ok := s.sessions.Get(claims.SessionID)
	if !ok || session.UserID != claims.Subject {
		s.metrics.IncrSessionMiss()
		return nil, &domain.ErrUnauthorized{Message: "Sessão expirada por inatividade"}
	}
	s.metrics.IncrSessionHit()
	s.sessions.Set(claims.SessionID, session)

	identity := domain.Identity{ID: session.UserID, Email: session.Email}
	profile, err := s.profiles.GetProfile(ctx, session.UserID)
	if err != nil && !s.isSuperAdmin(session.Email) {
		return nil, err
	}
	viewer := domain.NewViewer(identity, profile).PromoteSuperAdmin(s.superAdmin)
	viewer.SessionID = claims.SessionID
	return &viewer, nil
}

func (s *SessionService) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("token without session")
	}
	return claims, nil
}

// ============================================================
// SignOut: POST /v1/auth/logout
// ============================================================

// SignOut ends the session. The provider sign-out and the last-page reset are best-effort.
func (s *SessionService) SignOut(ctx context.Context, viewer domain.Viewer) error {
	ctx, span := sessionTracer.Start(ctx, "SessionService.SignOut")
	defer span.End()

	session, ok := s.sessions.Get(viewer.SessionID)
	s.sessions.Delete(viewer.SessionID)

	if ok && session.ProviderToken != "" {
		if err := s.identity.SignOut(ctx, session.ProviderToken); err != nil {
			s.logger.Warn("sign-out: identity provider sign-out failed",
				zap.String("user_id", viewer.UserID),
				zap.Error(err),
			)
		}
	}
	if _, err := s.profiles.UpdateProfile(ctx, viewer.UserID, map[string]any{"last_page": nil}); err != nil {
		s.logger.Warn("sign-out: could not clear last page",
			zap.String("user_id", viewer.UserID),
			zap.Error(err),
		)
	}

	s.logger.Info("user signed out", zap.String("user_id", viewer.UserID))
	return nil
}

// ============================================================
// Current: GET /v1/me
// ============================================================

func (s *SessionService) Current(ctx context.Context, viewer domain.Viewer) (*domain.SessionResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Current")
	defer span.End()

	profile, err := s.profiles.GetProfile(ctx, viewer.UserID)
	if err != nil {
		s.logger.Warn("me: profile lookup failed", zap.String("user_id", viewer.UserID), zap.Error(err))
		profile = nil
	}
	return describe(viewer, profile), nil
}

// ActiveSessions is the number of live sessions.
func (s *SessionService) ActiveSessions() int {
	return s.sessions.Len()
}

func (s *SessionService) isSuperAdmin(email string) bool {
	return s.superAdmin != "" && strings.EqualFold(strings.TrimSpace(email), s.superAdmin)
}

// describe builds the gate view: pending users get no menu and land nowhere.
func describe(viewer domain.Viewer, profile *domain.Profile) *domain.SessionResponse {
	resp := &domain.SessionResponse{
		Gate:   viewer.Gate(),
		Viewer: viewer,
		Menu:   []domain.MenuItem{},
	}
	if resp.Gate == domain.GateActive {
		resp.Menu = domain.Menu(viewer)
		resp.LastPage = lastPageOf(viewer, profile)
	}
	return resp
}

func lastPageOf(viewer domain.Viewer, profile *domain.Profile) domain.Page {
	if profile == nil || profile.LastPage == "" {
		return domain.PageHome
	}
	return domain.ResolvePage(viewer, domain.Page(profile.LastPage))
}
