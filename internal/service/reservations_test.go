package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

func stay() *domain.CreateReservationRequest {
	return &domain.CreateReservationRequest{
		CheckIn:       "2025-07-10",
		CheckOut:      "2025-07-12",
		GuestsDetails: []domain.Guest{{Name: "Ana", Age: 40}, {Name: "Bia", Age: 9}},
		Accommodation: "Chalé 2",
	}
}

func TestReservation_CreateIsPendingAndOwned(t *testing.T) {
	f := newFixture(t)
	svc := service.NewReservationService(f.store, f.metrics, f.logger)
	member := f.profile(t, "m-1", domain.RoleMember, true)

	r, err := svc.Create(context.Background(), member, stay())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Equal(t, "m-1", r.UserID)
	assert.Equal(t, 2, r.NumGuests)
}

func TestReservation_CheckOutBeforeCheckIn(t *testing.T) {
	f := newFixture(t)
	svc := service.NewReservationService(f.store, f.metrics, f.logger)
	member := f.profile(t, "m-1", domain.RoleMember, true)

	req := stay()
	req.CheckOut = "2025-07-09"
	_, err := svc.Create(context.Background(), member, req)
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "check_out", verr.Field)
}

func TestReservation_VisitorMustIdentifyHost(t *testing.T) {
	f := newFixture(t)
	svc := service.NewReservationService(f.store, f.metrics, f.logger)
	visitor := f.profile(t, "v-1", domain.RoleVisitor, true)
	ctx := context.Background()

	req := stay()
	req.VisitorCPF = "123.456.789-00"
	req.VisitorPhone = "(11) 99999-0000"
	_, err := svc.Create(ctx, visitor, req)
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "host_name", verr.Field)

	req.HostName = "Maria"
	r, err := svc.Create(ctx, visitor, req)
	require.NoError(t, err)
	assert.Equal(t, "Maria", r.HostName)
}

func TestReservation_TransitionMatrix(t *testing.T) {
	f := newFixture(t)
	svc := service.NewReservationService(f.store, f.metrics, f.logger)
	member := f.profile(t, "m-1", domain.RoleMember, true)
	ctx := context.Background()

	r, err := svc.Create(ctx, member, stay())
	require.NoError(t, err)

	_, err = svc.Transition(ctx, r.ID, &domain.StatusChangeRequest{Status: domain.StatusCanceled})
	var cerr *domain.ErrConflict
	require.ErrorAs(t, err, &cerr)

	got, err := svc.Transition(ctx, r.ID, &domain.StatusChangeRequest{Status: domain.StatusConfirmed, AdminNote: "Chalé reservado"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.Equal(t, "Chalé reservado", got.AdminNotes)

	got, err = svc.Transition(ctx, r.ID, &domain.StatusChangeRequest{Status: domain.StatusCanceled, AdminNote: "hóspede desistiu"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)
	assert.Equal(t, "Chalé reservado\nhóspede desistiu", got.AdminNotes)

	_, err = svc.Transition(ctx, "missing", &domain.StatusChangeRequest{Status: domain.StatusConfirmed})
	var nerr *domain.ErrNotFound
	require.ErrorAs(t, err, &nerr)
}

func TestReservation_OverviewForAdmin(t *testing.T) {
	f := newFixture(t)
	svc := service.NewReservationService(f.store, f.metrics, f.logger)
	member := f.profile(t, "m-1", domain.RoleMember, true)
	admin := f.profile(t, "a-1", domain.RoleAdmin, true)
	ctx := context.Background()

	_, err := svc.Create(ctx, member, stay())
	require.NoError(t, err)

	mine, err := svc.Overview(ctx, member)
	require.NoError(t, err)
	assert.Len(t, mine.Mine, 1)
	assert.Nil(t, mine.All)

	all, err := svc.Overview(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, all.Mine)
	require.Len(t, all.All, 1)
	assert.Equal(t, "Usuário m-1", all.All[0].FullName)

	require.NoError(t, svc.Delete(ctx, all.All[0].ID))
	left, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}
