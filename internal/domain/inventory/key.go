package inventory

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// KeySeparator une las partes normalizadas; nunca aparece dentro de una parte normalizada.
const KeySeparator = "_"

// latinFolds letras latinas sin descomposición canónica (NFD no las separa de un diacrítico).
var latinFolds = strings.NewReplacer(
	"ı", "i", "ß", "ss", "ø", "o", "ł", "l", "đ", "d", "ħ", "h",
	"æ", "ae", "œ", "oe", "þ", "th", "ð", "d",
)

// NormalizeKeyPart aplica la regla de normalización de claves:
// minúsculas, sin diacríticos, todo carácter no alfanumérico pasa a "-",
// guiones consecutivos se colapsan y se recortan en los extremos.
// Las letras y dígitos de cualquier escritura se conservan ("Склад" → "склад").
func NormalizeKeyPart(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	lastHyphen := false
	for _, r := range latinFolds.Replace(strings.ToLower(stripped)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// StockKey deriva la clave compuesta de stock para (producto, ubicación).
func StockKey(productID, locationID string) (string, error) {
	p := NormalizeKeyPart(productID)
	l := NormalizeKeyPart(locationID)
	if p == "" || l == "" {
		return "", fmt.Errorf("%w: producto y ubicación son requeridos para la clave de stock", domain.ErrInvalidInput)
	}
	return p + KeySeparator + l, nil
}
