package accesscontrol

// The evaluator implements first-match-wins over an ordered rule list with
// a default-deny fallback. The filter operations are built strictly on the
// single-element decision so that "is X allowed" and "keep X in this set"
// can never disagree.

// firstMatch scans the ordered rule list and returns the first rule
// matching the predicate, or nil if no rule matches.
func firstMatch[R any](rules []*R, match func(*R) bool) *R {
	for _, rule := range rules {
		if match(rule) {
			return rule
		}
	}
	return nil
}

// decide applies first-match-wins semantics: the first matching rule is
// authoritative and its payload (via extract) is the decision. Absence of
// any matching rule is deny — never allow.
func decide[R any](rules []*R, match func(*R) bool, extract func(*R) bool) bool {
	rule := firstMatch(rules, match)
	if rule == nil {
		return false
	}
	return extract(rule)
}

// filter keeps the candidates for which allowed returns true, preserving
// input order. Each candidate is decided independently; an excluded
// candidate is silently dropped, never reported as an error.
func filter[T any](candidates []T, allowed func(T) bool) []T {
	kept := make([]T, 0, len(candidates))
	for _, candidate := range candidates {
		if allowed(candidate) {
			kept = append(kept, candidate)
		}
	}
	return kept
}
