// Package predicate holds the per-criterion compatibility tests composed by
// the search pipeline and the request matcher. Every predicate is a total
// function: an absent criterion matches every provider.
package predicate

import (
	"strings"

	"github.com/samber/lo"

	"github.com/gip-inclusion/directory-cli/internal/model"
)

// Territory flag names accepted by the territory criterion.
const (
	TerritoryQPV = "QPV"
	TerritoryZRR = "ZRR"
)

// Sectors reports whether the provider works in at least one of the wanted
// sectors.
func Sectors(p *model.Provider, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	return len(lo.Intersect(p.Sectors, wanted)) > 0
}

// Kind reports whether the provider's kind is one of the wanted kinds.
func Kind(p *model.Provider, wanted []model.ProviderKind) bool {
	return len(wanted) == 0 || lo.Contains(wanted, p.Kind)
}

// ServiceTypes reports whether the provider delivers at least one of the
// wanted service types.
func ServiceTypes(p *model.Provider, wanted []model.ServiceType) bool {
	if len(wanted) == 0 {
		return true
	}
	return len(lo.Intersect(p.ServiceTypes, wanted)) > 0
}

// Territories tests the QPV/ZRR flags. Requesting both means either flag
// qualifies.
func Territories(p *model.Provider, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	qpv := lo.Contains(wanted, TerritoryQPV)
	zrr := lo.Contains(wanted, TerritoryZRR)
	return qpv && p.IsQPV || zrr && p.IsZRR
}

// Networks reports whether the provider belongs to at least one wanted
// network.
func Networks(p *model.Provider, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	return len(lo.Intersect(p.NetworkIDs, wanted)) > 0
}

// LegalForms reports whether the provider's legal form is one of the wanted
// forms.
func LegalForms(p *model.Provider, wanted []string) bool {
	return len(wanted) == 0 || lo.Contains(wanted, p.LegalForm)
}

// Presence is the tri-state count filter: nil is a no-op, true requires a
// count of at least one, false requires exactly zero.
func Presence(count int, wanted *bool) bool {
	if wanted == nil {
		return true
	}
	if *wanted {
		return count >= 1
	}
	return count == 0
}

// ClientReferenceName reports whether one of the provider's client
// references contains the given name, case-insensitive.
func ClientReferenceName(p *model.Provider, name string) bool {
	if name == "" {
		return true
	}
	needle := strings.ToLower(name)
	return lo.SomeBy(p.ClientReferenceNames, func(ref string) bool {
		return strings.Contains(strings.ToLower(ref), needle)
	})
}
