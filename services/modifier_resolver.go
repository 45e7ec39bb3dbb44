package services

// ResolvedGroup is one entry of an item's merged modifier set.
type ResolvedGroup struct {
	GroupCode string `json:"group_code"`
	Inherited bool   `json:"inherited"`
}

// ResolveModifierGroups merges an item's explicit group selections with the groups
// its category makes available for inheritance.
//
// Explicit codes always win: a code present in both inputs is returned once, as
// explicit. Category codes are only considered when inheritEnabled is set. The result
// lists explicit entries in caller order followed by inherited entries in category
// order, with no code repeated.
func ResolveModifierGroups(explicit, category []string, inheritEnabled bool) []ResolvedGroup {
	seen := make(map[string]struct{}, len(explicit)+len(category))
	resolved := make([]ResolvedGroup, 0, len(explicit)+len(category))

	for _, code := range explicit {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		resolved = append(resolved, ResolvedGroup{GroupCode: code, Inherited: false})
	}

	if !inheritEnabled {
		return resolved
	}

	for _, code := range category {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		resolved = append(resolved, ResolvedGroup{GroupCode: code, Inherited: true})
	}
	return resolved
}
