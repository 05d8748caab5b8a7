package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// CreateItemRequest entrada para crear un ítem del catálogo. ItemCode se genera si viene vacío.
type CreateItemRequest struct {
	ItemCode      string          `json:"item_code" validate:"omitempty,max=50"`
	ItemName      string          `json:"item_name" validate:"required,min=1,max=200"`
	Description   string          `json:"description" validate:"omitempty,max=1000"`
	BrandID       string          `json:"brand_id"`
	ModelID       string          `json:"model_id"`
	CategoryID    string          `json:"category_id"`
	Unit          string          `json:"unit" validate:"omitempty,max=20"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	TaxType       string          `json:"tax_type" validate:"omitempty,oneof=INCLUSIVE EXCLUSIVE"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
}

// UpdateItemRequest actualización parcial. ItemCode y Unit no se pueden cambiar si el ítem ya tiene stock u órdenes.
type UpdateItemRequest struct {
	ItemCode      *string          `json:"item_code" validate:"omitempty,min=1,max=50"`
	ItemName      *string          `json:"item_name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,max=1000"`
	BrandID       *string          `json:"brand_id"`
	ModelID       *string          `json:"model_id"`
	CategoryID    *string          `json:"category_id"`
	Unit          *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	GSTRate       *decimal.Decimal `json:"gst_rate"`
	TaxType       *string          `json:"tax_type" validate:"omitempty,oneof=INCLUSIVE EXCLUSIVE"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalesPrice    *decimal.Decimal `json:"sales_price"`
}

// SetActiveRequest body de PATCH .../active.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	Description   string          `json:"description"`
	BrandID       string          `json:"brand_id,omitempty"`
	ModelID       string          `json:"model_id,omitempty"`
	CategoryID    string          `json:"category_id,omitempty"`
	Unit          string          `json:"unit"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	TaxType       string          `json:"tax_type"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ToItemResponse mapea la entidad a la respuesta.
func ToItemResponse(i *entity.Item) *ItemResponse {
	return &ItemResponse{
		ID:            i.ID,
		CompanyID:     i.CompanyID,
		ItemCode:      i.ItemCode,
		ItemName:      i.ItemName,
		Description:   i.Description,
		BrandID:       i.BrandID,
		ModelID:       i.ModelID,
		CategoryID:    i.CategoryID,
		Unit:          i.Unit,
		GSTRate:       i.GSTRate,
		TaxType:       i.TaxType,
		PurchasePrice: i.PurchasePrice,
		SalesPrice:    i.SalesPrice,
		IsActive:      i.IsActive,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
