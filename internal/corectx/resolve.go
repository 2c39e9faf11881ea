package corectx

import "fmt"

// ResolveDefault returns the value of the Default with the greatest
// introduced version not exceeding target, among a mold-side keyval's
// Default children. Mirrors the generic "best version below or at target"
// rule used throughout mold resolution.
func ResolveDefault(moldKeyval *Context, target Version) (Value, error) {
	if moldKeyval == nil || moldKeyval.kind != KindKeyval {
		return Value{}, newErr(StatusWrongContext, KindKeyval, "", "resolve_default requires a mold keyval")
	}
	var best *defaultPayload
	for _, d := range moldKeyval.keyval.defaults {
		dp := d.def
		if dp.introduced.GreaterThan(target) {
			continue
		}
		if best == nil || dp.introduced.GreaterThan(best.introduced) {
			best = dp
		}
	}
	if best == nil {
		return Value{}, newErr(StatusDefaultMissing, KindKeyval, moldKeyval.keyval.name, "no default applies at version %s", target)
	}
	return best.value, nil
}

// ResolveEntriesBounds returns the [min, max] cardinality bounds active at
// target for a mold-side section or keyval name's restrictions, where an
// unset bound is reported as -1 (no bound). Supplemented as a first-class
// query per the original's query_resolve_context-adjacent entry-count
// introspection, not merely an internal validation step.
func ResolveEntriesBounds(moldParent *Context, name string, target Version) (min int, max int, err error) {
	min, max = -1, -1
	restrictions, kErr := restrictionsForName(moldParent, name)
	if kErr != nil {
		return -1, -1, kErr
	}
	for _, r := range restrictions {
		rp := r.restriction
		if !versionActive(rp.introduced, rp.deprecated, target) {
			continue
		}
		switch rp.kind {
		case RestrictionEntriesMin:
			v := int(rp.min)
			if v > min {
				min = v
			}
		case RestrictionEntriesMax:
			v := int(rp.max)
			if max == -1 || v < max {
				max = v
			}
		}
	}
	return min, max, nil
}

func restrictionsForName(moldParent *Context, name string) ([]*Context, error) {
	var storage *ElementStorage
	switch moldParent.kind {
	case KindMold:
		storage = moldParent.mold.elements
	case KindSection:
		storage = moldParent.section.elements
	default:
		return nil, newErr(StatusWrongContext, moldParent.kind, name, "entries bounds only resolve under mold/section parents")
	}
	child, err := storage.GetFirst(name)
	if err != nil {
		return nil, err
	}
	defer child.release()
	switch child.kind {
	case KindSection:
		return child.section.restrictions, nil
	case KindKeyval:
		return child.keyval.restrictions, nil
	default:
		return nil, nil
	}
}

// resolveEntriesBounds checks a config-side section's observed cardinality
// against its mold equivalent's bounds active at the section's own target
// version, invoked during validation.
func resolveEntriesBounds(configSection *Context) (Status, string) {
	moldParent := configSection.parent.moldSideEquivalentOf()
	if moldParent == nil {
		return StatusOK, ""
	}
	target := targetVersionFor(configSection)
	min, max, err := ResolveEntriesBounds(moldParent, configSection.section.name, target)
	if err != nil {
		return StatusOK, ""
	}
	// configSection itself counts once: it is not yet linked into parent
	// storage while it finalizes, but already is when ValidateTree revisits it.
	count := configSection.parent.childStorage().count(configSection.section.name)
	if !configSection.hasFlag(FlagInParent) {
		count++
	}
	if min != -1 && count < min {
		return StatusRestrictionViolated, fmt.Sprintf("section %q would appear %d times, minimum is %d", configSection.section.name, count, min)
	}
	if max != -1 && count > max {
		return StatusRestrictionViolated, fmt.Sprintf("section %q would appear %d times, maximum is %d", configSection.section.name, count, max)
	}
	return StatusOK, ""
}

// ResolveExclusiveValue returns the single legal value for a restriction
// kind that pins one (ValueEnum, ValueNumeric), for callers that want to
// pre-fill a keyval rather than merely validate it after the fact.
func ResolveExclusiveValue(moldKeyval *Context, target Version) (Value, bool) {
	for _, r := range moldKeyval.keyval.restrictions {
		rp := r.restriction
		if !versionActive(rp.introduced, rp.deprecated, target) {
			continue
		}
		switch rp.kind {
		case RestrictionValueEnum:
			return NewEnumValue(rp.enumValue), true
		case RestrictionValueNumeric:
			return NewFloatValue(rp.numeric), true
		}
	}
	return Value{}, false
}
