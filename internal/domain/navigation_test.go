package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

func pagesOf(items []domain.MenuItem) []domain.Page {
	out := make([]domain.Page, 0, len(items))
	for _, it := range items {
		out = append(out, it.Page)
	}
	return out
}

func TestMenu_VisitorSeesPublicPagesOnly(t *testing.T) {
	v := domain.NewViewer(domain.Identity{ID: "v"}, &domain.Profile{Role: domain.RoleVisitor, Approved: true})

	assert.Equal(t, []domain.Page{domain.PageHome, domain.PageReservations, domain.PageShop}, pagesOf(domain.Menu(v)))
}

func TestMenu_MemberHasNoAdminPages(t *testing.T) {
	v := domain.NewViewer(domain.Identity{ID: "m"}, &domain.Profile{Role: domain.RoleMember, Approved: true})
	pages := pagesOf(domain.Menu(v))

	assert.Contains(t, pages, domain.PageFinance)
	assert.NotContains(t, pages, domain.PageVisitors)
	assert.NotContains(t, pages, domain.PageAccess)
}

func TestMenu_AdminLabels(t *testing.T) {
	v := domain.NewViewer(domain.Identity{ID: "a"}, &domain.Profile{Role: domain.RoleAdmin})
	labels := map[domain.Page]string{}
	for _, it := range domain.Menu(v) {
		labels[it.Page] = it.Label
	}

	assert.Equal(t, "Cadastro de sócios", labels[domain.PageProfile])
	assert.Equal(t, "Mensagens recebidas", labels[domain.PageContact])
	assert.Contains(t, labels, domain.PageAccess)
}

func TestResolvePage_FallsBackToHome(t *testing.T) {
	visitor := domain.NewViewer(domain.Identity{ID: "v"}, &domain.Profile{Role: domain.RoleVisitor, Approved: true})

	assert.Equal(t, domain.PageShop, domain.ResolvePage(visitor, domain.PageShop))
	assert.Equal(t, domain.PageHome, domain.ResolvePage(visitor, domain.PageDocuments))
	assert.Equal(t, domain.PageHome, domain.ResolvePage(visitor, domain.Page("nope")))
}

func TestViewer_Gate(t *testing.T) {
	pending := domain.NewViewer(domain.Identity{ID: "p"}, &domain.Profile{Role: domain.RoleMember})
	assert.Equal(t, domain.GatePending, pending.Gate())

	missing := domain.NewViewer(domain.Identity{ID: "x"}, nil)
	assert.Equal(t, domain.GatePending, missing.Gate())
	assert.False(t, missing.IsAdmin)

	admin := domain.NewViewer(domain.Identity{ID: "a"}, &domain.Profile{Role: domain.RoleAdmin})
	assert.Equal(t, domain.GateActive, admin.Gate())
}

func TestPromoteSuperAdmin(t *testing.T) {
	v := domain.NewViewer(domain.Identity{ID: "s", Email: "Diretoria@Fazenda.org"}, nil)

	promoted := v.PromoteSuperAdmin("diretoria@fazenda.org")
	assert.True(t, promoted.IsAdmin)
	assert.Equal(t, domain.GateActive, promoted.Gate())

	assert.False(t, v.PromoteSuperAdmin("").IsAdmin)
	assert.False(t, v.PromoteSuperAdmin("outro@fazenda.org").IsAdmin)
}
