package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResolvedVariant is what the storefront needs once a selection narrows to
// a single variant.
type ResolvedVariant struct {
	VariantID    uuid.UUID
	Price        decimal.Decimal
	SalePrice    *decimal.Decimal
	SKU          string
	StockTotal   int
	PrimaryImage string
}

// ResolveVariant maps a partial attribute selection (attribute name -> value)
// to the single matching variant. Entries with an empty value are treated as
// not yet selected. A variant matches when it carries every selected
// (attribute, value) pair; it need not be selected on every attribute.
//
// The second result is false when nothing is selected, when no variant
// matches, or when more than one does. Ambiguity is never resolved by
// guessing.
func ResolveVariant(p *Product, selections map[string]string) (ResolvedVariant, bool) {
	if p == nil {
		return ResolvedVariant{}, false
	}
	wanted := make(map[string]string, len(selections))
	for name, value := range selections {
		if strings.TrimSpace(value) == "" {
			continue
		}
		wanted[name] = value
	}
	if len(wanted) == 0 {
		return ResolvedVariant{}, false
	}

	var match *Variant
	for i := range p.Variants {
		v := &p.Variants[i]
		if !matches(v, wanted) {
			continue
		}
		if match != nil {
			return ResolvedVariant{}, false
		}
		match = v
	}
	if match == nil {
		return ResolvedVariant{}, false
	}

	id := match.ID
	return ResolvedVariant{
		VariantID:    match.ID,
		Price:        match.Price,
		SalePrice:    match.SalePrice,
		SKU:          match.SKU,
		StockTotal:   match.StockTotal,
		PrimaryImage: p.PrimaryImage(&id),
	}, true
}

// Candidates returns every variant compatible with the selection so far.
// The UI uses it to disable values that lead nowhere.
func Candidates(p *Product, selections map[string]string) []Variant {
	wanted := make(map[string]string, len(selections))
	for name, value := range selections {
		if strings.TrimSpace(value) != "" {
			wanted[name] = value
		}
	}
	out := make([]Variant, 0, len(p.Variants))
	for i := range p.Variants {
		if matches(&p.Variants[i], wanted) {
			out = append(out, p.Variants[i])
		}
	}
	return out
}

func matches(v *Variant, wanted map[string]string) bool {
	for name, value := range wanted {
		found := false
		for _, av := range v.Values {
			if av.AttributeName == name && av.Value == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DistinctValues lists the values of one attribute that appear across the
// product's variants, de-duplicated by value id. Order carries no meaning;
// values are sorted by literal for stable output.
func DistinctValues(p *Product, attributeName string) []AttributeValue {
	seen := make(map[uuid.UUID]AttributeValue)
	for _, v := range p.Variants {
		for _, av := range v.Values {
			if av.AttributeName == attributeName {
				seen[av.ID] = av
			}
		}
	}
	out := make([]AttributeValue, 0, len(seen))
	for _, av := range seen {
		out = append(out, av)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
