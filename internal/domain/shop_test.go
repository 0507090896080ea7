package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

func TestCart_MergesLinesAndRecomputesTotal(t *testing.T) {
	queijo := domain.Product{ID: "p1", Name: "Queijo", Price: 10.25}
	mel := domain.Product{ID: "p2", Name: "Mel", Price: 5}

	var c domain.Cart
	c.Add(queijo, 1)
	c.Add(mel, 1)
	c.Add(queijo, 1)
	assert.Len(t, c.Lines, 2)
	assert.Equal(t, 25.5, c.Total)

	c.SetQuantity("p2", 3)
	assert.Equal(t, 35.5, c.Total)

	c.SetQuantity("p1", 0)
	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 15.0, c.Total)

	c.Add(mel, -2)
	assert.Equal(t, 15.0, c.Total)
}

func TestCart_ItemsCarryCurrentPrice(t *testing.T) {
	var c domain.Cart
	c.Add(domain.Product{ID: "p1", Name: "Ovos", Price: 0.1}, 3)

	items := c.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, "Ovos", items[0].ProductName)
	assert.Equal(t, 0.3, items[0].Subtotal())
	assert.Equal(t, 0.3, c.Total)
}

func TestNewItemRemoval(t *testing.T) {
	order := domain.Order{ID: "o1", TotalPrice: 25.5, AdminNotes: "Retirar cedo"}
	item := domain.OrderItem{ID: "i1", ProductName: "Queijo", Quantity: 2, UnitPrice: 10.25}

	r := domain.NewItemRemoval(order, item, "sem estoque")
	assert.Equal(t, 5.0, r.NewTotal)
	assert.Equal(t, "Retirar cedo\nItem removido: Queijo (2x R$ 10.25) - Motivo: sem estoque", r.NewAdminNotes)
}

func TestNewItemRemoval_ClampsAtZero(t *testing.T) {
	r := domain.NewItemRemoval(domain.Order{TotalPrice: 3}, domain.OrderItem{ProductID: "p9", Quantity: 1, UnitPrice: 5}, "")

	assert.Zero(t, r.NewTotal)
	assert.Contains(t, r.NewAdminNotes, "p9")
	assert.Contains(t, r.NewAdminNotes, "não informado")
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(from, to string) bool
		from, to string
		want     bool
	}{
		{"reservation confirm", domain.CanTransitionReservation, domain.StatusPending, domain.StatusConfirmed, true},
		{"reservation reject", domain.CanTransitionReservation, domain.StatusPending, domain.StatusRejected, true},
		{"reservation cancel confirmed", domain.CanTransitionReservation, domain.StatusConfirmed, domain.StatusCanceled, true},
		{"reservation reopen", domain.CanTransitionReservation, domain.StatusRejected, domain.StatusPending, false},
		{"reservation complete", domain.CanTransitionReservation, domain.StatusConfirmed, domain.StatusCompleted, false},
		{"order complete", domain.CanTransitionOrder, domain.StatusConfirmed, domain.StatusCompleted, true},
		{"order skip confirm", domain.CanTransitionOrder, domain.StatusPending, domain.StatusCompleted, false},
		{"order after completed", domain.CanTransitionOrder, domain.StatusCompleted, domain.StatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.from, tt.to))
		})
	}
}

func TestAppendNote(t *testing.T) {
	assert.Equal(t, "primeira", domain.AppendNote("", "primeira"))
	assert.Equal(t, "primeira\nsegunda", domain.AppendNote("primeira", "segunda"))
}
