package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.RefundRepository = (*RefundRepo)(nil)

type RefundRepo struct {
	q Querier
}

func NewRefundRepository(q Querier) *RefundRepo {
	return &RefundRepo{q: q}
}

const refundColumns = `id, company_id, source_type, source_id, amount, payment_method, reference, notes,
	processed_by, created_at`

func (r *RefundRepo) Create(ctx context.Context, t *entity.RefundTransaction) error {
	query := `
		INSERT INTO refund_transactions (` + refundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, string(t.SourceType), t.SourceID, t.Amount, t.PaymentMethod, t.Reference, t.Notes,
		t.ProcessedBy, t.CreatedAt,
	)
	return mapError(err, "create refund", "refund_transaction", t.ID)
}

func (r *RefundRepo) ListBySource(ctx context.Context, source inventory.RefundSource, sourceID string) ([]*entity.RefundTransaction, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refund_transactions
		WHERE source_type = $1 AND source_id = $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, string(source), sourceID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}
	return collect(rows, "list refunds", func(row rowScanner) (*entity.RefundTransaction, error) {
		var (
			t   entity.RefundTransaction
			src string
		)
		err := row.Scan(&t.ID, &t.CompanyID, &src, &t.SourceID, &t.Amount, &t.PaymentMethod, &t.Reference, &t.Notes,
			&t.ProcessedBy, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		t.SourceType = inventory.RefundSource(src)
		return &t, nil
	})
}
