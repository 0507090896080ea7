package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

func TestExport_OrdersOneRowPerItem(t *testing.T) {
	f := newFixture(t)
	shop, queijo, doce := shopWithProducts(t, f)
	member := f.profile(t, "m-1", domain.RoleMember, true)
	ctx := context.Background()

	_, err := shop.Checkout(ctx, member, &domain.CheckoutRequest{
		PickupDate: "2025-08-01",
		Items: []domain.CheckoutLine{
			{ProductID: queijo.ID, Quantity: 2},
			{ProductID: doce.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	exports := service.NewExportService(
		service.NewVisitorService(f.store, f.logger),
		service.NewReservationService(f.store, f.metrics, f.logger),
		shop,
		f.logger,
	)
	data, err := exports.Orders(ctx)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Pedidos")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Pedido", rows[0][0])
	assert.Equal(t, "Usuário m-1", rows[1][1])
}

func TestExport_EmptyVisitorsHasHeaderOnly(t *testing.T) {
	f := newFixture(t)
	exports := service.NewExportService(service.NewVisitorService(f.store, f.logger), nil, nil, f.logger)

	data, err := exports.Visitors(context.Background())
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Visitantes")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Nome", rows[0][0])
	assert.Equal(t, "visitantes-2025-01-01.xlsx", service.ExportFileName("Visitantes", "2025-01-01"))
}
