package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// Seed datos de referencia que administran otros servicios (sucursales y facturas del POS).
type Seed struct {
	Branches []SeedBranch  `json:"branches"`
	Invoices []SeedInvoice `json:"invoices"`
}

type SeedBranch struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Address   string `json:"address"`
	Inactive  bool   `json:"inactive"`
}

type SeedInvoice struct {
	ID            string            `json:"id"`
	CompanyID     string            `json:"company_id"`
	BranchID      string            `json:"branch_id"`
	CustomerID    string            `json:"customer_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Date          time.Time         `json:"date"`
	Items         []SeedInvoiceItem `json:"items"`
}

type SeedInvoiceItem struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	GSTRate   decimal.Decimal `json:"gst_rate"`
	Total     decimal.Decimal `json:"total"`
}

// LoadSeedFile lee un archivo JSON de Seed y lo aplica al store.
func (s *Store) LoadSeedFile(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decodificar seed %s: %w", path, err)
	}
	if err := s.ApplySeed(seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

// ApplySeed registra sucursales y facturas. El total de cada línea se calcula si viene en cero.
func (s *Store) ApplySeed(seed Seed) error {
	now := time.Now()
	for _, b := range seed.Branches {
		if b.ID == "" || b.CompanyID == "" {
			return fmt.Errorf("seed: sucursal sin id o company_id")
		}
		s.SeedBranch(entity.Branch{
			ID: b.ID, CompanyID: b.CompanyID, Name: b.Name, Code: b.Code, Address: b.Address,
			IsActive: !b.Inactive, CreatedAt: now, UpdatedAt: now,
		})
	}
	for _, in := range seed.Invoices {
		if in.ID == "" || in.CompanyID == "" || in.BranchID == "" {
			return fmt.Errorf("seed: factura sin id, company_id o branch_id")
		}
		inv := entity.Invoice{
			ID: in.ID, CompanyID: in.CompanyID, BranchID: in.BranchID, CustomerID: in.CustomerID,
			InvoiceNumber: in.InvoiceNumber, Date: in.Date, GrandTotal: decimal.Zero, CreatedAt: now,
		}
		for _, it := range in.Items {
			total := it.Total
			if total.IsZero() {
				total = it.Quantity.Mul(it.UnitPrice)
			}
			inv.Items = append(inv.Items, entity.InvoiceItem{
				ID: it.ID, InvoiceID: in.ID, ItemID: it.ItemID,
				Quantity: it.Quantity, UnitPrice: it.UnitPrice, GSTRate: it.GSTRate, Total: total,
			})
			inv.GrandTotal = inv.GrandTotal.Add(total)
		}
		s.SeedInvoice(inv)
	}
	return nil
}
