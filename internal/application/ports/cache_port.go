package ports

// Claves de caché invalidadas por las mutaciones del ledger y del motor de costos.
const (
	CacheKeyAllStocks   = "stocks:all"
	CacheKeyAllProducts = "catalog:products:all"
	CacheKeyAllServices = "catalog:services:all"
	cacheKeyItemPrefix  = "catalog:item:"
)

// CacheKeyItem clave de un ítem de catálogo individual.
func CacheKeyItem(id string) string { return cacheKeyItemPrefix + id }

// Cache puerto de caché de lectura (snapshots de "todo el stock" / "todo el catálogo").
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Invalidate(keys ...string)
}

// CatalogKeys claves afectadas por un cambio en un ítem: su listado por tipo y el propio ítem.
func CatalogKeys(kind, id string) []string {
	all := CacheKeyAllServices
	if kind == "PRODUCT" {
		all = CacheKeyAllProducts
	}
	return []string{all, CacheKeyItem(id)}
}
