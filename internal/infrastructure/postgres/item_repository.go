package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador del catálogo. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, company_id, item_code, item_name, description, brand_id, model_id, category_id,
	unit, gst_rate, tax_type, purchase_price, sales_price, is_active, created_at, updated_at`

func scanItem(row rowScanner) (*entity.Item, error) {
	var i entity.Item
	err := row.Scan(
		&i.ID, &i.CompanyID, &i.ItemCode, &i.ItemName, &i.Description, &i.BrandID, &i.ModelID, &i.CategoryID,
		&i.Unit, &i.GSTRate, &i.TaxType, &i.PurchasePrice, &i.SalesPrice, &i.IsActive, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserta un ítem; (company_id, item_code) duplicado devuelve ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, i *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		i.ID, i.CompanyID, i.ItemCode, i.ItemName, i.Description, i.BrandID, i.ModelID, i.CategoryID,
		i.Unit, i.GSTRate, i.TaxType, i.PurchasePrice, i.SalesPrice, i.IsActive, i.CreatedAt, i.UpdatedAt,
	)
	return mapError(err, "create item", "item", i.ID)
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	i, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get item", "item", id)
	}
	return i, nil
}

func (r *ItemRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE company_id = $1 AND item_code = $2`
	i, err := scanItem(r.q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		return nil, mapError(err, "get item by code", "item", code)
	}
	return i, nil
}

func (r *ItemRepo) Update(ctx context.Context, i *entity.Item) error {
	query := `
		UPDATE items SET item_code = $2, item_name = $3, description = $4, brand_id = $5, model_id = $6,
			category_id = $7, unit = $8, gst_rate = $9, tax_type = $10, purchase_price = $11,
			sales_price = $12, is_active = $13, updated_at = $14
		WHERE id = $1`
	return execOne(ctx, r.q, "update item", "item", i.ID, query,
		i.ID, i.ItemCode, i.ItemName, i.Description, i.BrandID, i.ModelID,
		i.CategoryID, i.Unit, i.GSTRate, i.TaxType, i.PurchasePrice,
		i.SalesPrice, i.IsActive, i.UpdatedAt,
	)
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete item", "item", id, `DELETE FROM items WHERE id = $1`, id)
}

// ListByCompany lista el catálogo ordenado por nombre; Search busca en código y nombre (ILIKE).
func (r *ItemRepo) ListByCompany(ctx context.Context, companyID string, f repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	lim, off := limitOffset(limit, offset)
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE company_id = $1
		  AND ($2 = '' OR item_code ILIKE '%' || $2 || '%' OR item_name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR category_id = $3)
		  AND (NOT $4 OR is_active)
		ORDER BY item_name, item_code
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, companyID, f.Search, f.CategoryID, f.OnlyActive, lim, off)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return collect(rows, "list items", scanItem)
}

func (r *ItemRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM branch_inventory WHERE item_id = $1)
		    OR EXISTS (SELECT 1 FROM purchase_order_items WHERE item_id = $1)`
	var referenced bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&referenced); err != nil {
		return false, fmt.Errorf("item referenced: %w", err)
	}
	return referenced, nil
}
