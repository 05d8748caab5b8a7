package purchasing

import (
	"strings"

	"github.com/google/uuid"

	ledger "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

// Service órdenes de compra, su recepción y las devoluciones a proveedor.
// Todo cambio de stock pasa por el ledger, dentro de la transacción del caso de uso.
type Service struct {
	txRunner ports.TxRunner
	repos    repository.TxRepos
	ledger   *ledger.Ledger
	log      *logger.Logger
}

// NewService construye el servicio de compras.
func NewService(txRunner ports.TxRunner, repos repository.TxRepos, l *ledger.Ledger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{txRunner: txRunner, repos: repos, ledger: l, log: log}
}

// documentNumber genera un número legible, p. ej. PO-1A2B3C4D.
func documentNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
