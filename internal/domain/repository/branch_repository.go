package repository

import (
	"context"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// BranchRepository lectura de sucursales (se administran fuera de este servicio).
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
}
