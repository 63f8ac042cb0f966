package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ítem de catálogo.
const (
	CatalogKindProduct = "PRODUCT" // producto físico con stock
	CatalogKindService = "SERVICE" // servicio (sin stock)
)

// CatalogItem representa un producto o servicio del catálogo del local.
// UnitPrice es derivado: solo lo escribe el motor de costos como efecto de los gastos.
type CatalogItem struct {
	ID          string
	Kind        string
	Name        string
	Category    string
	Brand       string
	UnitMeasure string
	UnitPrice   decimal.Decimal // costo promedio ponderado (inicia en 0)
	IsDeleted   bool
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsProduct indica si el ítem es un producto con inventario.
func (c *CatalogItem) IsProduct() bool { return c.Kind == CatalogKindProduct }
