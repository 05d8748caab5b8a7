package repository

import (
	"context"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// ItemFilter filtros del listado de catálogo.
type ItemFilter struct {
	Search     string // por código o nombre
	CategoryID string
	OnlyActive bool
}

// ItemRepository define el puerto de persistencia del catálogo (DIP).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id string) error
	ListByCompany(ctx context.Context, companyID string, filter ItemFilter, limit, offset int) ([]*entity.Item, error)
	// IsReferenced true si alguna fila de stock o línea de orden de compra apunta al ítem.
	IsReferenced(ctx context.Context, id string) (bool, error)
}
