package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

func TestLedgerMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.MovementPosted(inventory.MovementPurchase)
	m.MovementPosted(inventory.MovementPurchase)
	m.MovementPosted(inventory.MovementSale)
	m.MutationRejected("consume", "insufficient_stock")
	m.NegativeAdjustment()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movements.WithLabelValues("PURCHASE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movements.WithLabelValues("SALE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("consume", "insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.negative))
}

func TestLedgerMetrics_NilIsSafe(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.MovementPosted(inventory.MovementSale)
		m.MutationRejected("adjust", "invalid_delta")
		m.NegativeAdjustment()
	})
}
