package inventory

import (
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// QuantityAsOf reconstruye la cantidad a la fecha de corte recorriendo el diario hacia atrás:
// quantity_now − Σ(change de las entradas con timestamp > cutoff).
func QuantityAsOf(current int64, entries []*entity.StockHistoryEntry, cutoff time.Time) int64 {
	q := current
	for _, e := range entries {
		if e.CreatedAt.After(cutoff) {
			q -= e.Change
		}
	}
	return q
}

// ChangesAfterByKey agrupa una sola vez, por clave de stock, la suma de cambios posteriores al corte.
func ChangesAfterByKey(entries []*entity.StockHistoryEntry, cutoff time.Time) map[string]int64 {
	out := make(map[string]int64)
	for _, e := range entries {
		if e.CreatedAt.After(cutoff) {
			out[e.StockID] += e.Change
		}
	}
	return out
}

// SumChanges Σ change; debe coincidir con StockRecord.Quantity.
func SumChanges(entries []*entity.StockHistoryEntry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.Change
	}
	return sum
}
