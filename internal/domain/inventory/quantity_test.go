package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply(t *testing.T) {
	cases := []struct {
		name      string
		current   string
		delta     string
		typ       MovementType
		policy    NegativePolicy
		wantQty   string
		wantNeg   bool
		belowZero bool
		badDelta  bool
	}{
		{name: "compra suma", current: "10", delta: "5", typ: MovementPurchase, wantQty: "15"},
		{name: "venta resta", current: "10", delta: "-3", typ: MovementSale, wantQty: "7"},
		{name: "venta deja en cero", current: "3", delta: "-3", typ: MovementSale, wantQty: "0"},
		{name: "decimales", current: "2.5", delta: "-0.75", typ: MovementServiceUse, wantQty: "1.75"},
		{name: "venta sin stock", current: "2", delta: "-3", typ: MovementSale, belowZero: true},
		{name: "ajuste negativo permitido", current: "2", delta: "-3", typ: MovementAdjustment, policy: AllowNegative, wantQty: "-1", wantNeg: true},
		{name: "ajuste negativo estricto", current: "2", delta: "-3", typ: MovementAdjustment, belowZero: true},
		{name: "delta cero", current: "2", delta: "0", typ: MovementAdjustment, badDelta: true},
		{name: "compra negativa", current: "2", delta: "-1", typ: MovementPurchase, badDelta: true},
		{name: "daño positivo", current: "2", delta: "1", typ: MovementDamage, badDelta: true},
		{name: "apertura negativa", current: "0", delta: "-1", typ: MovementOpeningStock, badDelta: true},
		{name: "traslado en ambos sentidos", current: "4", delta: "-4", typ: MovementTransfer, wantQty: "0"},
		{name: "devolución entrante", current: "0", delta: "2", typ: MovementReturn, wantQty: "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Apply(d(tc.current), d(tc.delta), tc.typ, tc.policy)
			switch {
			case tc.belowZero:
				require.Error(t, err)
				assert.True(t, IsBelowZero(err))
				assert.False(t, IsDeltaError(err))
			case tc.badDelta:
				require.Error(t, err)
				assert.True(t, IsDeltaError(err))
			default:
				require.NoError(t, err)
				assert.True(t, out.NewQty.Equal(d(tc.wantQty)), "new_qty = %s", out.NewQty)
				assert.True(t, out.PreviousQty.Equal(d(tc.current)))
				assert.True(t, out.PreviousQty.Add(out.Delta).Equal(out.NewQty))
				assert.Equal(t, tc.wantNeg, out.Negative)
			}
		})
	}
}

func TestParseMovementType(t *testing.T) {
	mt, err := ParseMovementType("SERVICE_USE")
	require.NoError(t, err)
	assert.Equal(t, MovementServiceUse, mt)

	_, err = ParseMovementType("THEFT")
	assert.Error(t, err)
}

func TestManualMovementType(t *testing.T) {
	assert.True(t, ManualAdjustment.IsValid())
	assert.True(t, ManualDamage.IsValid())
	assert.False(t, ManualMovementType("SALE").IsValid())
	assert.Equal(t, MovementDamage, ManualDamage.MovementType())
}

func TestReferenceType(t *testing.T) {
	assert.True(t, ReferenceNone.IsValid())
	assert.True(t, ReferenceSalesReturn.IsValid())
	assert.False(t, ReferenceType("EMAIL").IsValid())
}
