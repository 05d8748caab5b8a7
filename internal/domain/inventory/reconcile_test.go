package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id, prev, qty, next string) Snapshot {
	return Snapshot{ID: id, PreviousQty: d(prev), Quantity: d(qty), NewQty: d(next)}
}

func TestReconcile_Consistent(t *testing.T) {
	r := Reconcile(d("8"), []Snapshot{
		snap("m1", "0", "10", "10"),
		snap("m2", "10", "-3", "7"),
		snap("m3", "7", "1", "8"),
	})
	assert.True(t, r.Consistent())
	assert.True(t, r.MovementSum.Equal(d("8")))
	assert.Equal(t, 3, r.Movements)
	assert.Empty(t, r.Breaks)
}

func TestReconcile_EmptyHistory(t *testing.T) {
	assert.True(t, Reconcile(d("0"), nil).Consistent())
	assert.False(t, Reconcile(d("1"), nil).Consistent())
}

func TestReconcile_QuantityDrift(t *testing.T) {
	r := Reconcile(d("9"), []Snapshot{snap("m1", "0", "10", "10"), snap("m2", "10", "-3", "7")})
	assert.False(t, r.Consistent())
	assert.Empty(t, r.Breaks, "la cadena está bien; solo difiere el saldo")
}

func TestReconcile_ChainBreaks(t *testing.T) {
	r := Reconcile(d("7"), []Snapshot{
		snap("m1", "0", "10", "10"),
		snap("m2", "9", "-2", "7"),
	})
	require.Len(t, r.Breaks, 1)
	assert.Equal(t, "m2", r.Breaks[0].MovementID)
	assert.True(t, r.Breaks[0].Expected.Equal(d("10")))
	assert.True(t, r.Breaks[0].Actual.Equal(d("9")))

	r = Reconcile(d("5"), []Snapshot{snap("m1", "2", "3", "5")})
	require.Len(t, r.Breaks, 1)
	assert.Equal(t, "m1", r.Breaks[0].MovementID)

	r = Reconcile(d("4"), []Snapshot{snap("m1", "0", "3", "4")})
	require.NotEmpty(t, r.Breaks)
	assert.False(t, r.Consistent())
}
