package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurchaseOrderTransitions(t *testing.T) {
	allowed := map[PurchaseOrderStatus][]PurchaseOrderStatus{
		PODraft:    {POPending, POCancelled},
		POPending:  {POCancelled},
		POReceived: {POCompleted},
	}
	all := []PurchaseOrderStatus{PODraft, POPending, POPartiallyReceived, POReceived, POCompleted, POCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestCanReceive(t *testing.T) {
	assert.True(t, POPending.CanReceive())
	assert.True(t, POPartiallyReceived.CanReceive())
	assert.False(t, PODraft.CanReceive())
	assert.False(t, POReceived.CanReceive())
	assert.False(t, POCancelled.CanReceive())
}

func TestDerivePurchaseOrderStatus(t *testing.T) {
	line := func(ordered, received string) LineProgress {
		return LineProgress{Ordered: d(ordered), Received: d(received)}
	}
	cases := []struct {
		name    string
		current PurchaseOrderStatus
		lines   []LineProgress
		want    PurchaseOrderStatus
	}{
		{"nada recibido", POPending, []LineProgress{line("10", "0"), line("5", "0")}, POPending},
		{"parcial", POPending, []LineProgress{line("10", "6"), line("5", "0")}, POPartiallyReceived},
		{"completa", POPartiallyReceived, []LineProgress{line("10", "10"), line("5", "5")}, POReceived},
		{"una línea completa y otra no", POPending, []LineProgress{line("10", "10"), line("5", "0")}, POPartiallyReceived},
		{"borrador no cambia", PODraft, []LineProgress{line("10", "10")}, PODraft},
		{"sin líneas", POPending, nil, POPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DerivePurchaseOrderStatus(tc.current, tc.lines)
			assert.Equal(t, tc.want, got)
			// idempotente
			assert.Equal(t, got, DerivePurchaseOrderStatus(got, tc.lines))
		})
	}
}

func TestReturnStatusTransitions(t *testing.T) {
	assert.True(t, ReturnPending.CanTransitionTo(ReturnConfirmed))
	assert.True(t, ReturnPending.CanTransitionTo(ReturnRejected))
	assert.False(t, ReturnConfirmed.CanTransitionTo(ReturnRejected))
	assert.False(t, ReturnRejected.CanTransitionTo(ReturnConfirmed))
	assert.False(t, ReturnConfirmed.CanTransitionTo(ReturnConfirmed))
}

func TestReturnEnums(t *testing.T) {
	assert.True(t, ReturnRefund.IsValid())
	assert.False(t, ReturnType("CREDIT").IsValid())
	assert.True(t, NoRestock.IsValid())
	assert.False(t, RestockPolicy("MAYBE").IsValid())
}
