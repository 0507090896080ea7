package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/resilience"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/supabase"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

var (
	_ port.Store            = (*supabase.Client)(nil)
	_ port.IdentityProvider = (*supabase.Client)(nil)
	_ port.ObjectStore      = (*supabase.Client)(nil)
)

func newTestClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(
		srv.Client(), srv.URL, "anon-key", "service-key",
		resilience.NewCircuitBreaker("supabase-test"),
		resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func TestGetProfile_MissingRowIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.u-1", r.URL.Query().Get("id"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	})

	p, err := c.GetProfile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetProfile_DecodesRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"u-1","full_name":"Ana","role":"visitor","approved":true,
			"dependents":[{"name":"Bia","birthDate":"2015-02-01"}],"created_at":"2024-03-01T10:00:00.123+00:00"}]`)
	})

	p, err := c.GetProfile(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.RoleVisitor, p.Role)
	assert.True(t, p.Approved)
	require.Len(t, p.Dependents, 1)
	assert.Equal(t, "Bia", p.Dependents[0].Name)
}

func TestListReservations_JoinsSubmitterName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "*,profiles(full_name)", r.URL.Query().Get("select"))
		assert.Equal(t, "check_in.asc", r.URL.Query().Get("order"))
		_, _ = io.WriteString(w, `[{"id":"r-1","user_id":"u-1","check_in":"2025-01-10","check_out":"2025-01-12",
			"num_guests":2,"guests_details":null,"accommodation":"Casa sede","status":"pending",
			"created_at":"2024-12-01T00:00:00Z","profiles":{"full_name":"Carlos"}}]`)
	})

	rows, err := c.ListReservations(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Carlos", rows[0].FullName)
	assert.NotNil(t, rows[0].GuestsDetails)
}

func TestSelect_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	news, err := c.ListNews(context.Background())
	require.NoError(t, err)
	assert.Empty(t, news)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSelect_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"permission denied for table news"}`)
	})

	_, err := c.ListNews(context.Background())
	var ext *domain.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "permission denied for table news", ext.Err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInsert_IsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateReservation(context.Background(), &domain.Reservation{UserID: "u-1", Status: domain.StatusPending})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateReservation_SendsVisitorColumns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123.456.789-00", body["visitor_cpf"])
		assert.Equal(t, "pending", body["status"])
		assert.Nil(t, body["host_name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"r-9","user_id":"u-1","status":"pending","visitor_cpf":"123.456.789-00"}]`)
	})

	res, err := c.CreateReservation(context.Background(), &domain.Reservation{
		UserID: "u-1", Status: domain.StatusPending, VisitorCPF: "123.456.789-00",
	})
	require.NoError(t, err)
	assert.Equal(t, "r-9", res.ID)
}

func TestUpdateOwnProfile_ClearsBirthDateWithNull(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq.u-1", r.URL.Query().Get("id"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		birth, sent := body["birth_date"]
		assert.True(t, sent)
		assert.Nil(t, birth)
		_, _ = io.WriteString(w, `[{"id":"u-1","full_name":"Ana","role":"member","approved":true,"birth_date":null}]`)
	})
	members := service.NewMemberService(c, zap.NewNop())
	viewer := domain.Viewer{UserID: "u-1", Role: domain.RoleMember, Approved: true}

	empty := ""
	p, err := members.UpdateOwnProfile(context.Background(), viewer, &domain.UpdateProfileRequest{BirthDate: &empty})
	require.NoError(t, err)
	assert.Empty(t, p.BirthDate)
}

func TestCreateOrder_CallsTransactionalFunction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/create_product_reservation", r.URL.Path)
		var args struct {
			UserID string  `json:"p_user_id"`
			Total  float64 `json:"p_total_price"`
			Items  []struct {
				ProductID string  `json:"product_id"`
				Quantity  int     `json:"quantity"`
				UnitPrice float64 `json:"unit_price"`
			} `json:"p_items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.Equal(t, 25.5, args.Total)
		require.Len(t, args.Items, 2)
		_, _ = io.WriteString(w, `{"id":"o-1","user_id":"u-1","pickup_date":"2025-02-01","total_price":25.5,"status":"pending",
			"items":[{"id":"i-1","product_reservation_id":"o-1","product_id":"p-1","quantity":2,"unit_price":10},
			         {"id":"i-2","product_reservation_id":"o-1","product_id":"p-2","quantity":1,"unit_price":5.5}]}`)
	})

	order, err := c.CreateOrder(context.Background(),
		&domain.Order{UserID: "u-1", PickupDate: "2025-02-01", TotalPrice: 25.5, Status: domain.StatusPending},
		[]domain.OrderItem{
			{ProductID: "p-1", ProductName: "Queijo", Quantity: 2, UnitPrice: 10},
			{ProductID: "p-2", ProductName: "Doce de leite", Quantity: 1, UnitPrice: 5.5},
		})
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Queijo", order.Items[0].ProductName)
}

func TestListEvents_FiltersVisibleWindow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "(end_date.gte.2025-03-10,and(end_date.is.null,start_date.gte.2025-03-10))", r.URL.Query().Get("or"))
		_, _ = io.WriteString(w, `[]`)
	})

	events, err := c.ListEvents(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSignIn_SurfacesAuthMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
	})

	_, err := c.SignIn(context.Background(), "a@b.com", "wrong")
	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "Invalid login credentials", unauth.Message)
}

func TestSignUp_AcceptsBareUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"u-7","email":"a@b.com"}`)
	})

	id, err := c.SignUp(context.Background(), "a@b.com", "secret1", map[string]any{"full_name": "A"})
	require.NoError(t, err)
	assert.Equal(t, "u-7", id.ID)
	assert.Empty(t, id.ProviderToken)
}

func TestStorage_UploadAndPublicURL(t *testing.T) {
	var uploaded string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/gallery/abc.jpg", r.URL.Path)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		uploaded = string(b)
		_, _ = io.WriteString(w, `{"Key":"gallery/abc.jpg"}`)
	})

	err := c.Upload(context.Background(), "gallery", "abc.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", uploaded)
	assert.Contains(t, c.PublicURL("gallery", "abc.jpg"), "/storage/v1/object/public/gallery/abc.jpg")
}

func TestStorage_RemoveSendsPrefixes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/gallery", r.URL.Path)
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, body.Prefixes)
		_, _ = io.WriteString(w, `[]`)
	})

	require.NoError(t, c.Remove(context.Background(), "gallery", []string{"a.jpg", "b.jpg"}))
}

func TestPing_HitsAuthHealth(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/auth/v1/health", r.URL.Path)
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"name":"GoTrue"}`)
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
