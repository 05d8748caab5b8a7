package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

var _ ports.LedgerMetrics = (*LedgerMetrics)(nil)

// LedgerMetrics colectores Prometheus del ledger de stock.
type LedgerMetrics struct {
	movements *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	negative  prometheus.Counter
}

// NewLedgerMetrics registra los colectores en registerer (nil = registerer por defecto).
func NewLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &LedgerMetrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock",
			Name:      "movements_posted_total",
			Help:      "Movimientos de stock registrados, por tipo.",
		}, []string{"movement_type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock",
			Name:      "mutations_rejected_total",
			Help:      "Operaciones de stock rechazadas, por operación y motivo.",
		}, []string{"operation", "reason"}),
		negative: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stock",
			Name:      "negative_adjustments_total",
			Help:      "Ajustes manuales que dejaron stock negativo.",
		}),
	}
	registerer.MustRegister(m.movements, m.rejected, m.negative)
	return m
}

func (m *LedgerMetrics) MovementPosted(t inventory.MovementType) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(t.String()).Inc()
}

func (m *LedgerMetrics) MutationRejected(operation, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(operation, reason).Inc()
}

func (m *LedgerMetrics) NegativeAdjustment() {
	if m == nil {
		return
	}
	m.negative.Inc()
}
