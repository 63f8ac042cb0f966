package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// PriceScale decimales de los precios unitarios.
const PriceScale = 4

var half = decimal.NewFromFloat(0.5)

// Round4 redondea a 4 decimales con la regla half-up (hacia +∞ en el empate).
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Shift(PriceScale).Add(half).Floor().Shift(-PriceScale)
}

// UnitPriceFromTotal = round4(total / cantidad). ok=false si la cantidad no es positiva.
func UnitPriceFromTotal(total decimal.Decimal, quantity int64) (decimal.Decimal, bool) {
	if quantity <= 0 {
		return decimal.Zero, false
	}
	return Round4(total.Div(decimal.NewFromInt(quantity))), true
}

// ShouldSetPrice decide si un gasto con fecha candidate puede fijar el precio:
// solo el gasto de fecha más reciente lo hace, y el empate favorece al candidato.
// latestPrior nil = no hay gastos previos para el ítem.
func ShouldSetPrice(candidate time.Time, latestPrior *time.Time) bool {
	if latestPrior == nil {
		return true
	}
	return !candidate.Before(*latestPrior)
}

// BookValue suma max(cantidad,0)*unitPrice y max(cantidad,0) sobre las filas de stock.
func BookValue(stocks []*entity.StockRecord, unitPrice decimal.Decimal) (weighted decimal.Decimal, qty int64) {
	weighted = decimal.Zero
	for _, s := range stocks {
		if s.Quantity <= 0 {
			continue
		}
		weighted = weighted.Add(decimal.NewFromInt(s.Quantity).Mul(unitPrice))
		qty += s.Quantity
	}
	return weighted, qty
}

// RecomputeAfterDeletion calcula el nuevo precio unitario tras eliminar un gasto:
//  1. valor en libros del stock positivo restante al precio previo;
//  2. si no hay stock positivo, total/cantidad del gasto restante más reciente;
//  3. si no hay gastos, 0.
func RecomputeAfterDeletion(stocks []*entity.StockRecord, currentPrice decimal.Decimal, latestRemaining *entity.Expense) decimal.Decimal {
	weighted, qty := BookValue(stocks, currentPrice)
	if qty > 0 {
		return Round4(weighted.Div(decimal.NewFromInt(qty)))
	}
	if latestRemaining != nil {
		if p, ok := UnitPriceFromTotal(latestRemaining.TotalAmount, latestRemaining.Quantity); ok {
			return p
		}
	}
	return decimal.Zero
}
