package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

const (
	defaultUnit    = "pcs"
	defaultTaxType = "EXCLUSIVE"
)

var maxGSTRate = decimal.NewFromInt(100)

// ItemUseCase casos de uso del catálogo. El stock no vive aquí: se maneja por sucursal en el ledger.
type ItemUseCase struct {
	txRunner ports.TxRunner
	repo     repository.ItemRepository
	cache    ports.ItemCache
	log      *logger.Logger
}

// NewItemUseCase construye el caso de uso. cache puede ser nil (sin caché).
func NewItemUseCase(txRunner ports.TxRunner, repo repository.ItemRepository, cache ports.ItemCache, log *logger.Logger) *ItemUseCase {
	if cache == nil {
		cache = ports.NoopItemCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ItemUseCase{txRunner: txRunner, repo: repo, cache: cache, log: log}
}

func validatePrices(gst, purchase, sales decimal.Decimal) error {
	if purchase.IsNegative() || sales.IsNegative() {
		return domain.Invalid("los precios no pueden ser negativos")
	}
	if gst.IsNegative() || gst.GreaterThan(maxGSTRate) {
		return domain.Invalid("gst_rate debe estar entre 0 y 100")
	}
	return nil
}

// generateItemCode código automático ITM-XXXXXXXX.
func generateItemCode() string {
	return "ITM-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// Create crea un ítem. item_code es único por empresa; si no viene se genera.
func (uc *ItemUseCase) Create(ctx context.Context, caller entity.Caller, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if strings.TrimSpace(in.ItemName) == "" {
		return nil, domain.Invalid("item_name es obligatorio")
	}
	if err := validatePrices(in.GSTRate, in.PurchasePrice, in.SalesPrice); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.ItemCode)
	if code == "" {
		code = generateItemCode()
	}
	if in.Unit == "" {
		in.Unit = defaultUnit
	}
	if in.TaxType == "" {
		in.TaxType = defaultTaxType
	}

	now := time.Now()
	item := &entity.Item{
		ID:            uuid.New().String(),
		CompanyID:     caller.CompanyID,
		ItemCode:      code,
		ItemName:      strings.TrimSpace(in.ItemName),
		Description:   in.Description,
		BrandID:       in.BrandID,
		ModelID:       in.ModelID,
		CategoryID:    in.CategoryID,
		Unit:          in.Unit,
		GSTRate:       in.GSTRate,
		TaxType:       in.TaxType,
		PurchasePrice: in.PurchasePrice,
		SalesPrice:    in.SalesPrice,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	existing, err := uc.repo.GetByCompanyAndCode(ctx, caller.CompanyID, code)
	if err == nil && existing != nil {
		return nil, domain.Duplicate("item", "item_code ya existe: "+code)
	}
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return dto.ToItemResponse(item), nil
}

// Get obtiene un ítem (lectura a través de la caché).
func (uc *ItemUseCase) Get(ctx context.Context, caller entity.Caller, id string) (*dto.ItemResponse, error) {
	item, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("item", id)
	}
	return dto.ToItemResponse(item), nil
}

func (uc *ItemUseCase) load(ctx context.Context, id string) (*entity.Item, error) {
	if item, ok := uc.cache.Get(ctx, id); ok {
		return item, nil
	}
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, item)
	return item, nil
}

// List lista ítems de la empresa del caller.
func (uc *ItemUseCase) List(ctx context.Context, caller entity.Caller, filter repository.ItemFilter, page dto.PageRequest) (*dto.ItemListResponse, error) {
	page.DefaultPage()
	items, err := uc.repo.ListByCompany(ctx, caller.CompanyID, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ItemListResponse{
		Items: make([]dto.ItemResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, i := range items {
		out.Items = append(out.Items, *dto.ToItemResponse(i))
	}
	return out, nil
}

// Update actualiza campos descriptivos. item_code y unit son inmutables cuando el ítem
// ya está en alguna sucursal o en una orden de compra.
func (uc *ItemUseCase) Update(ctx context.Context, caller entity.Caller, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	var item *entity.Item
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if item, err = repos.Items.GetByID(ctx, id); err != nil {
			return err
		}
		if item.CompanyID != caller.CompanyID {
			return domain.NotFound("item", id)
		}

		if in.ItemCode != nil && strings.TrimSpace(*in.ItemCode) == "" {
			return domain.Invalid("item_code no puede estar vacío")
		}
		codeChange := in.ItemCode != nil && strings.TrimSpace(*in.ItemCode) != item.ItemCode
		unitChange := in.Unit != nil && *in.Unit != item.Unit
		if codeChange || unitChange {
			referenced, err := repos.Items.IsReferenced(ctx, id)
			if err != nil {
				return err
			}
			if referenced {
				return domain.Conflict("item", id, "item_code y unit no se pueden cambiar en un ítem con stock u órdenes")
			}
		}
		if codeChange {
			code := strings.TrimSpace(*in.ItemCode)
			if _, err := repos.Items.GetByCompanyAndCode(ctx, caller.CompanyID, code); err == nil {
				return domain.Duplicate("item", "item_code ya existe: "+code)
			} else if !domain.IsNotFound(err) {
				return err
			}
			item.ItemCode = code
		}
		if unitChange {
			item.Unit = *in.Unit
		}
		if in.ItemName != nil {
			item.ItemName = strings.TrimSpace(*in.ItemName)
		}
		if in.Description != nil {
			item.Description = *in.Description
		}
		if in.BrandID != nil {
			item.BrandID = *in.BrandID
		}
		if in.ModelID != nil {
			item.ModelID = *in.ModelID
		}
		if in.CategoryID != nil {
			item.CategoryID = *in.CategoryID
		}
		if in.GSTRate != nil {
			item.GSTRate = *in.GSTRate
		}
		if in.TaxType != nil {
			item.TaxType = *in.TaxType
		}
		if in.PurchasePrice != nil {
			item.PurchasePrice = *in.PurchasePrice
		}
		if in.SalesPrice != nil {
			item.SalesPrice = *in.SalesPrice
		}
		if item.ItemName == "" {
			return domain.Invalid("item_name es obligatorio")
		}
		if err := validatePrices(item.GSTRate, item.PurchasePrice, item.SalesPrice); err != nil {
			return err
		}
		item.UpdatedAt = time.Now()
		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, id)
	return dto.ToItemResponse(item), nil
}

// SetActive activa o desactiva el ítem (baja lógica).
func (uc *ItemUseCase) SetActive(ctx context.Context, caller entity.Caller, id string, active bool) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("item", id)
	}
	item.IsActive = active
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, id)
	return dto.ToItemResponse(item), nil
}

// Delete borra un ítem que nunca se usó. Si tiene stock u órdenes hay que desactivarlo.
func (uc *ItemUseCase) Delete(ctx context.Context, caller entity.Caller, id string) error {
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item.CompanyID != caller.CompanyID {
			return domain.NotFound("item", id)
		}
		referenced, err := repos.Items.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return domain.Conflict("item", id, "el ítem tiene stock u órdenes; desactívelo en su lugar")
		}
		return repos.Items.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.cache.Invalidate(ctx, id)
	uc.log.Info().Str("item_id", id).Str("user_id", caller.UserID).Msg("ítem eliminado")
	return nil
}
