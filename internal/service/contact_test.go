package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

func TestContact_SendAndList(t *testing.T) {
	f := newFixture(t)
	svc := service.NewContactService(f.store, f.logger)
	member := f.profile(t, "m-1", domain.RoleMember, true)
	ctx := context.Background()

	_, err := svc.Send(ctx, member, &domain.SendMessageRequest{Type: "pedido", Subject: "x", Message: "y"})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)

	m, err := svc.Send(ctx, member, &domain.SendMessageRequest{Type: "sugestao", Subject: " Horta ", Message: "Plantar alface"})
	require.NoError(t, err)
	assert.Equal(t, "Horta", m.Subject)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Usuário m-1", all[0].FullName)

	require.NoError(t, svc.Delete(ctx, m.ID))
	mine, err := svc.ListMine(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestFinance_StoresEmbeddableURL(t *testing.T) {
	f := newFixture(t)
	svc := service.NewFinanceService(f.store, f.logger)
	ctx := context.Background()

	empty, err := svc.GetEmbedURL(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.URL)

	_, err = svc.SetEmbedURL(ctx, "not a url")
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)

	set, err := svc.SetEmbedURL(ctx, "https://lookerstudio.google.com/reporting/abc123/page/p_1")
	require.NoError(t, err)
	assert.Equal(t, "https://lookerstudio.google.com/embed/reporting/abc123/page/p_1", set.URL)

	got, err := svc.GetEmbedURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.URL, got.URL)
}
