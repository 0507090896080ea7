package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/cache"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/memory"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

const superAdminEmail = "diretoria@fazenda.org"

type fixture struct {
	store      *memory.Store
	identities *memory.Identities
	objects    *memory.Objects
	sessions   *cache.InMemory[service.Session]
	metrics    *observability.Metrics
	uploader   *service.Uploader
	logger     *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	objects := memory.NewObjects("http://files.test")
	return &fixture{
		store:      memory.NewStore(),
		identities: memory.NewIdentities().WithMinCost(),
		objects:    objects,
		sessions:   cache.New[service.Session](30 * time.Minute),
		metrics:    metrics,
		uploader:   service.NewUploader(objects, 4, metrics, logger),
		logger:     logger,
	}
}

func (f *fixture) sessionService() *service.SessionService {
	return service.NewSessionService(f.identities, f.store, f.sessions, f.metrics, "test-secret", time.Hour, superAdminEmail, f.logger)
}

// profile inserts a profile row and returns the matching viewer.
func (f *fixture) profile(t *testing.T, id string, role domain.Role, approved bool) domain.Viewer {
	t.Helper()
	p, err := f.store.CreateProfile(context.Background(), &domain.Profile{
		ID:       id,
		FullName: "Usuário " + id,
		Email:    id + "@fazenda.org",
		Role:     role,
		Approved: approved,
	})
	require.NoError(t, err)
	return domain.NewViewer(domain.Identity{ID: p.ID, Email: p.Email}, p)
}

func upload(name, body string) *domain.Upload {
	return &domain.Upload{
		FileName:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func ptr[T any](v T) *T { return &v }
