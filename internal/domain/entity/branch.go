package entity

import "time"

// Branch representa una sucursal (tienda/taller) donde se guarda stock.
type Branch struct {
	ID        string
	CompanyID string
	Name      string
	Code      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
