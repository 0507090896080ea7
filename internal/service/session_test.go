package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/cache"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

func signUp(kind, email string) *domain.SignUpRequest {
	return &domain.SignUpRequest{Email: email, Password: "segredo123", FullName: "Ana Souza", Kind: kind}
}

func TestSignUp_NewMemberIsPending(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, signUp("member", "ana@fazenda.org"))
	require.NoError(t, err)

	assert.Equal(t, domain.GatePending, resp.Gate)
	assert.Empty(t, resp.Menu)
	assert.NotEmpty(t, resp.AccessToken)

	p, err := f.store.GetProfile(ctx, resp.Viewer.UserID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.RoleMember, p.Role)
	assert.False(t, p.Approved)
}

func TestSignUp_RejectsAdminKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessionService().SignUp(context.Background(), signUp("admin", "x@fazenda.org"))
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)
}

func TestSignUp_SuperAdminIsApprovedAdmin(t *testing.T) {
	f := newFixture(t)

	resp, err := f.sessionService().SignUp(context.Background(), signUp("member", superAdminEmail))
	require.NoError(t, err)
	assert.Equal(t, domain.GateActive, resp.Gate)
	assert.True(t, resp.Viewer.IsAdmin)
}

func TestSignUp_DuplicateEmailSurfacesProviderMessage(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, signUp("visitor", "v@fazenda.org"))
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, signUp("visitor", "v@fazenda.org"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User already registered")
}

func TestApprovalAppliesOnNextRequest(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	members := service.NewMemberService(f.store, f.logger)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, signUp("member", "ana@fazenda.org"))
	require.NoError(t, err)

	v, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.GatePending, v.Gate())

	_, err = members.ToggleApproval(ctx, v.UserID)
	require.NoError(t, err)

	v, err = svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.GateActive, v.Gate())

	me, err := svc.Current(ctx, *v)
	require.NoError(t, err)
	assert.NotEmpty(t, me.Menu)
	assert.Equal(t, domain.PageHome, me.LastPage)
}

func TestSignIn_WrongPassword(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, signUp("member", "ana@fazenda.org"))
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, &domain.SignInRequest{Email: "ana@fazenda.org", Password: "errada"})
	var uerr *domain.ErrUnauthorized
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "Invalid login credentials", uerr.Message)
}

type failingProfiles struct {
	*fixture
}

func (failingProfiles) GetProfile(context.Context, string) (*domain.Profile, error) {
	return nil, &domain.ErrExternalService{Service: "supabase/profiles", Err: errors.New("connection refused")}
}

func (p failingProfiles) CreateProfile(ctx context.Context, pr *domain.Profile) (*domain.Profile, error) {
	return p.store.CreateProfile(ctx, pr)
}

func (p failingProfiles) UpdateProfile(ctx context.Context, id string, u map[string]any) (*domain.Profile, error) {
	return p.store.UpdateProfile(ctx, id, u)
}

func (p failingProfiles) ListProfiles(ctx context.Context, r domain.Role) ([]domain.Profile, error) {
	return p.store.ListProfiles(ctx, r)
}

func (p failingProfiles) DeleteProfile(ctx context.Context, id string) error {
	return p.store.DeleteProfile(ctx, id)
}

func TestSignIn_SuperAdminWhenProfileLookupFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.identities.SignUp(ctx, superAdminEmail, "segredo123", nil)
	require.NoError(t, err)
	_, err = f.identities.SignUp(ctx, "ana@fazenda.org", "segredo123", nil)
	require.NoError(t, err)

	svc := service.NewSessionService(f.identities, failingProfiles{f}, f.sessions, f.metrics, "test-secret", time.Hour, superAdminEmail, f.logger)

	admin, err := svc.SignIn(ctx, &domain.SignInRequest{Email: superAdminEmail, Password: "segredo123"})
	require.NoError(t, err)
	assert.True(t, admin.Viewer.IsAdmin)
	assert.Equal(t, domain.GateActive, admin.Gate)

	v, err := svc.Authenticate(ctx, admin.AccessToken)
	require.NoError(t, err)
	assert.True(t, v.IsAdmin)

	member, err := svc.SignIn(ctx, &domain.SignInRequest{Email: "ana@fazenda.org", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, domain.GatePending, member.Gate)
}

func TestAuthenticate_IdleSessionExpires(t *testing.T) {
	f := newFixture(t)
	sessions := cache.New[service.Session](60 * time.Millisecond)
	svc := service.NewSessionService(f.identities, f.store, sessions, observability.NewMetrics(), "test-secret", time.Hour, "", zap.NewNop())
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, signUp("member", "ana@fazenda.org"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := svc.Authenticate(ctx, resp.AccessToken)
		require.NoError(t, err, "request %d keeps the session alive", i)
	}

	time.Sleep(120 * time.Millisecond)
	_, err = svc.Authenticate(ctx, resp.AccessToken)
	var uerr *domain.ErrUnauthorized
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestAuthenticate_RejectsForeignToken(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	other := service.NewSessionService(f.identities, f.store, f.sessions, f.metrics, "other-secret", time.Hour, "", f.logger)
	ctx := context.Background()

	resp, err := other.SignUp(ctx, signUp("member", "ana@fazenda.org"))
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, resp.AccessToken)
	var uerr *domain.ErrUnauthorized
	require.ErrorAs(t, err, &uerr)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	require.ErrorAs(t, err, &uerr)
}

func TestSignOut_EndsSessionAndClearsLastPage(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()
	nav := service.NewNavigationService(f.store, f.logger)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, signUp("member", superAdminEmail))
	require.NoError(t, err)
	v, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)

	_, err = nav.SaveLastPage(ctx, *v, domain.PageShop)
	require.NoError(t, err)

	again, err := svc.SignIn(ctx, &domain.SignInRequest{Email: superAdminEmail, Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, domain.PageShop, again.LastPage)

	require.NoError(t, svc.SignOut(ctx, *v))
	_, err = svc.Authenticate(ctx, resp.AccessToken)
	require.Error(t, err)

	p, err := f.store.GetProfile(ctx, v.UserID)
	require.NoError(t, err)
	assert.Empty(t, p.LastPage)
}
