package prices

import (
	"regexp"
	"strings"

	"github.com/dcmgrade/lorcanaprice/internal/model"
)

// Set names longer than this over-constrain the vendor's fuzzy search, so we
// leave them out of the query entirely.
const maxSetNameLen = 30

var (
	leadingZeros = regexp.MustCompile(`^0+(\d)`)
	setPrefix    = regexp.MustCompile(`(?i)^(lorcana|disney)[\s:]+`)
	setArticle   = regexp.MustCompile(`(?i)^the\s+`)
)

// CleanCollectorNumber reduces a collector number to the form the vendor
// prints in product names: "#027/204" → "27". Returns "" when nothing is
// left after cleaning.
func CleanCollectorNumber(number string) string {
	n := strings.TrimPrefix(number, "#")
	if i := strings.Index(n, "/"); i >= 0 {
		n = n[:i]
	}
	n = strings.TrimSpace(n)
	return leadingZeros.ReplaceAllString(n, "$1")
}

// CleanSetName strips the product-family label the vendor prepends to set
// names ("Lorcana ", "Disney ", with optional colon) and a leading article:
// the vendor lists "The First Chapter" as "Lorcana First Chapter".
func CleanSetName(setName string) string {
	s := strings.TrimSpace(setPrefix.ReplaceAllString(setName, ""))
	return strings.TrimSpace(setArticle.ReplaceAllString(s, ""))
}

// NormalizeVariant maps free-text variant names onto the vendor's canonical
// markers. Foil takes priority over any named variant. Unknown variants pass
// through unchanged; "" means no variant at all.
func NormalizeVariant(variant string, isFoil bool) string {
	if isFoil {
		return "Foil"
	}
	if variant == "" {
		return ""
	}

	v := strings.ToLower(strings.TrimSpace(variant))
	switch {
	case strings.Contains(v, "foil"):
		return "Foil"
	case strings.Contains(v, "enchanted"):
		return "Enchanted"
	case strings.Contains(v, "promo"):
		return "Promo"
	case strings.Contains(v, "full art"), strings.Contains(v, "full-art"):
		return "Full Art"
	}
	return variant
}

// BuildQuery renders search attributes into the vendor's free-text query.
// Order matters: vendor relevance degrades when the variant token precedes
// the card name. Format: "Card Name #Number Set Variant".
func BuildQuery(attrs model.SearchAttributes) string {
	parts := []string{attrs.CardName}

	if attrs.CollectorNumber != "" {
		if n := CleanCollectorNumber(attrs.CollectorNumber); n != "" {
			parts = append(parts, "#"+n)
		}
	}

	if attrs.SetName != "" {
		if s := CleanSetName(attrs.SetName); s != "" && len(s) <= maxSetNameLen {
			parts = append(parts, s)
		}
	}

	if v := NormalizeVariant(attrs.Variant, attrs.IsFoil); v != "" {
		parts = append(parts, v)
	}

	return strings.Join(parts, " ")
}
