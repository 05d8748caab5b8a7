package ports

import "github.com/jhoicas/taller-stock/internal/domain/inventory"

// LedgerMetrics puerto de métricas del ledger (Prometheus en producción, no-op en tests).
type LedgerMetrics interface {
	// MovementPosted se llama tras cada movimiento confirmado por el ledger.
	MovementPosted(t inventory.MovementType)
	// MutationRejected cuenta mutaciones rechazadas por tipo de error (insufficient_stock, invalid_delta...).
	MutationRejected(operation, reason string)
	// NegativeAdjustment cuenta ajustes manuales que dejaron stock bajo cero.
	NegativeAdjustment()
}

// NoopMetrics implementación vacía de LedgerMetrics.
type NoopMetrics struct{}

func (NoopMetrics) MovementPosted(inventory.MovementType) {}
func (NoopMetrics) MutationRejected(string, string)       {}
func (NoopMetrics) NegativeAdjustment()                   {}
