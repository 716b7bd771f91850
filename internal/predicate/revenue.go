package predicate

import "github.com/gip-inclusion/directory-cli/internal/model"

// Revenue tests bracket membership against the provider's authoritative
// revenue (self-declared when positive, registry value otherwise). Bounds
// form a half-open interval: the lower bound is inclusive, the upper bound
// exclusive, so the top bracket of a bracket ladder has no upper bound and
// a value sitting exactly on an upper bound falls into the next bracket up.
// A provider with no authoritative revenue never matches a bounded bracket.
func Revenue(p *model.Provider, bracket *model.RevenueBracket) bool {
	if bracket == nil || (bracket.Lower == nil && bracket.Upper == nil) {
		return true
	}
	revenue := p.AuthoritativeRevenue()
	if revenue == nil {
		return false
	}
	if bracket.Lower != nil && *revenue < *bracket.Lower {
		return false
	}
	if bracket.Upper != nil && *revenue >= *bracket.Upper {
		return false
	}
	return true
}
