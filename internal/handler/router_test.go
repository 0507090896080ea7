package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/handler"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/cache"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/memory"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

type testServer struct {
	router     http.Handler
	store      *memory.Store
	identities *memory.Identities
	objects    *memory.Objects
	shop       *service.ShopService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.NewStore()
	identities := memory.NewIdentities().WithMinCost()
	objects := memory.NewObjects("http://files.test")
	uploader := service.NewUploader(objects, 2, metrics, logger)

	visitors := service.NewVisitorService(store, logger)
	reservations := service.NewReservationService(store, metrics, logger)
	shop := service.NewShopService(store, store, uploader, metrics, logger)

	svc := handler.Services{
		Sessions:     service.NewSessionService(identities, store, cache.New[service.Session](time.Hour), metrics, "test-secret", time.Hour, "", logger),
		Navigation:   service.NewNavigationService(store, logger),
		Reservations: reservations,
		Shop:         shop,
		News:         service.NewNewsService(store, uploader, logger),
		Events:       service.NewEventService(store, uploader, logger),
		Documents:    service.NewDocumentService(store, uploader, logger),
		Gallery:      service.NewGalleryService(store, uploader, logger),
		Members:      service.NewMemberService(store, logger),
		Visitors:     visitors,
		Contact:      service.NewContactService(store, logger),
		Finance:      service.NewFinanceService(store, logger),
		Exports:      service.NewExportService(visitors, reservations, shop, logger),
	}

	router := handler.NewRouter(svc, handler.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes: 1 << 20,
		Files:          objects,
	}, metrics, logger)

	return &testServer{router: router, store: store, identities: identities, objects: objects, shop: shop}
}

// login registers an identity with the given profile state and returns its access token.
func (s *testServer) login(t *testing.T, email string, role domain.Role, approved bool) string {
	t.Helper()
	ctx := context.Background()
	identity, err := s.identities.SignUp(ctx, email, "segredo123", nil)
	require.NoError(t, err)
	_, err = s.store.CreateProfile(ctx, &domain.Profile{
		ID: identity.ID, FullName: "Usuário " + email, Email: email, Role: role, Approved: approved,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": "segredo123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) multipart(t *testing.T, path, token string, fields map[string]string, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		t.Run(path, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestHealthz_ReportsDegradedBackend(t *testing.T) {
	logger := zap.NewNop()
	router := handler.NewRouter(handler.Services{}, handler.Options{
		Probe: func(context.Context) error { return assert.AnError },
	}, observability.NewMetrics(), logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var health domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Len(t, health.Services, 2)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/news", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/news", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUp_LandsOnPendingGate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"email": "novo@fazenda.org", "password": "segredo123", "fullName": "Novo Sócio", "kind": "member",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp domain.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.GatePending, resp.Gate)

	me := s.do(t, http.MethodGet, "/v1/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, me.Code)

	news := s.do(t, http.MethodGet, "/v1/news", resp.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, news.Code)
}

func TestSignUp_RejectsInvalidBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisitor_CannotOpenMemberPages(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "visitante@fazenda.org", domain.RoleVisitor, true)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/news", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/products", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/events", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/documents", token, nil).Code)
}

func TestMember_CannotUseAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "socio@fazenda.org", domain.RoleMember, true)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/members", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/reservations", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/v1/news", token, map[string]string{
		"title": "t", "body": "b", "category": "c",
	}).Code)
}

func TestAdmin_ListsMembersByRole(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@fazenda.org", domain.RoleAdmin, true)
	s.login(t, "visitante@fazenda.org", domain.RoleVisitor, true)

	rec := s.do(t, http.MethodGet, "/v1/members?role=visitor", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "visitante@fazenda.org", list[0].Email)
}

func TestCheckout_ComputesTotal(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "socio@fazenda.org", domain.RoleMember, true)

	ctx := context.Background()
	queijo, err := s.store.CreateProduct(ctx, &domain.Product{Name: "Queijo", Price: 10.25, IsActive: true})
	require.NoError(t, err)
	mel, err := s.store.CreateProduct(ctx, &domain.Product{Name: "Mel", Price: 5, IsActive: true})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/v1/orders", token, map[string]any{
		"pickup_date": "2030-05-10",
		"items": []map[string]any{
			{"product_id": queijo.ID, "quantity": 2},
			{"product_id": mel.ID, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.InDelta(t, 25.50, order.TotalPrice, 0.001)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	mine := s.do(t, http.MethodGet, "/v1/orders/mine", token, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Contains(t, mine.Body.String(), order.ID)
}

func TestCheckout_EmptyCartIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "socio@fazenda.org", domain.RoleMember, true)

	rec := s.do(t, http.MethodPost, "/v1/orders", token, map[string]any{"pickup_date": "2030-05-10", "items": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDocument_Multipart(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@fazenda.org", domain.RoleAdmin, true)

	rec := s.multipart(t, "/v1/documents", token, map[string]string{"title": "Estatuto", "category": "Atas"}, "estatuto.pdf", "%PDF-1.4")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Estatuto", doc.Title)
	assert.True(t, strings.HasPrefix(doc.URL, "http://files.test/"), doc.URL)

	grouped := s.do(t, http.MethodGet, "/v1/documents?grouped=true", token, nil)
	require.Equal(t, http.StatusOK, grouped.Code)
	var groups []domain.DocumentGroup
	require.NoError(t, json.Unmarshal(grouped.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Atas", groups[0].Category)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@fazenda.org", domain.RoleAdmin, true)

	rec := s.multipart(t, "/v1/documents", token, map[string]string{"title": "Sem arquivo"}, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportVisitors_ServesSpreadsheet(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@fazenda.org", domain.RoleAdmin, true)

	rec := s.do(t, http.MethodGet, "/v1/visitors/export.xlsx", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "visitantes-")
	assert.NotZero(t, rec.Body.Len())
}

func TestContact_SendAndListMine(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "socio@fazenda.org", domain.RoleMember, true)

	rec := s.do(t, http.MethodPost, "/v1/contact", token, map[string]string{
		"type": "sugestao", "subject": "Trilhas", "message": "Mais sinalização",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	bad := s.do(t, http.MethodPost, "/v1/contact", token, map[string]string{
		"type": "spam", "subject": "x", "message": "y",
	})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	mine := s.do(t, http.MethodGet, "/v1/contact/mine", token, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	var list []domain.ContactMessage
	require.NoError(t, json.Unmarshal(mine.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestStoredFiles_AreServed(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.objects.Upload(context.Background(), "documents", "a/b.txt", strings.NewReader("olá"), 4, "text/plain"))

	rec := s.do(t, http.MethodGet, "/files/documents/a/b.txt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "olá", rec.Body.String())
}
