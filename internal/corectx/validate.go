package corectx

import "fmt"

// targetVersionFor returns the version validation should resolve defaults
// and restrictions against: a config's own version when validating inside a
// config tree, or the mold's own (auto-advanced) version when validating
// inside a mold tree.
func targetVersionFor(c *Context) Version {
	switch c.root.kind {
	case KindConfig:
		return c.root.config.version
	case KindMold:
		return c.root.mold.version
	default:
		return Version1_0
	}
}

// ValidateTree revalidates every node in the subtree rooted at c against
// target, independent of each node's already-Finalized state. Used for
// CLI validate/diff entry points, which must re-check a tree loaded from
// storage rather than freshly constructed in memory. Section cardinality
// bounds are checked at the config's own version, not at target.
func ValidateTree(c *Context, target Version) (Status, []string) {
	var msgs []string
	worst := StatusOK
	walkValidate(c, target, &worst, &msgs)
	return worst, msgs
}

func walkValidate(c *Context, target Version, worst *Status, msgs *[]string) {
	status, msg := validateContext(c, target)
	if status != StatusOK {
		recordWorse(worst, status)
		if msg != "" {
			*msgs = append(*msgs, fmt.Sprintf("%s %q: %s", c.kind, c.displayName(), msg))
		}
	}
	for _, child := range c.childContexts() {
		walkValidate(child, target, worst, msgs)
	}
}

// statusSeverity orders statuses so ElementsInvalid (a summary status)
// never masks a more specific failure bubbling up from a child.
var statusSeverity = map[Status]int{
	StatusOK:                  0,
	StatusElementsInvalid:     1,
	StatusDefaultMissing:      2,
	StatusMoldMissing:         3,
	StatusRestrictionViolated: 4,
	StatusWrongValueType:      5,
	StatusConflictingVersion:  6,
	StatusInvalidContext:      7,
	StatusFatalContext:        8,
}

func recordWorse(worst *Status, candidate Status) {
	if statusSeverity[candidate] >= statusSeverity[*worst] {
		*worst = candidate
	}
}

// validateContext runs the local checks for a single node — it does not
// recurse, callers fold children in themselves (Finalize folds in
// already-finalized children's stored status via FlagInvalid/FlagFatal
// propagation, ValidateTree recurses explicitly).
func validateContext(c *Context, target Version) (Status, string) {
	if c.hasFlag(FlagFatal) {
		return StatusFatalContext, c.errMsg
	}
	if c.hasFlag(FlagDestroyed) {
		return StatusDestroyedContext, ""
	}
	if c.hasFlag(FlagInvalid) {
		return c.invalidStatus, c.errMsg
	}

	switch c.kind {
	case KindMold:
		return validateElementsInvalid(c)
	case KindConfig:
		if c.config.mold == nil {
			return StatusMoldMissing, "config has no bound mold"
		}
		return validateElementsInvalid(c)
	case KindSection:
		return validateSection(c, target)
	case KindKeyval:
		return validateKeyval(c, target)
	case KindDocumentation, KindDefault, KindRestriction, KindFreeText:
		return StatusOK, ""
	default:
		return StatusInvalidContext, "unrecognized kind"
	}
}

// validateElementsInvalid reports Elements-Invalid when any direct child
// already carries the Invalid or Fatal flag, the summarizing status a
// Mold/Config root surfaces without re-deriving each child's own failure.
func validateElementsInvalid(c *Context) (Status, string) {
	for _, child := range c.childContexts() {
		if child.hasFlag(FlagFatal) {
			return StatusFatalContext, "child " + child.displayName() + " is fatal"
		}
		if child.hasFlag(FlagInvalid) {
			return StatusElementsInvalid, "child " + child.displayName() + " is invalid"
		}
	}
	return StatusOK, ""
}

func validateSection(c *Context, target Version) (Status, string) {
	if c.root.kind == KindConfig {
		if c.section.moldEquiv == nil {
			return StatusMoldMissing, "no mold equivalent for section " + c.section.name
		}
		if status, msg := resolveEntriesBounds(c); status != StatusOK {
			return status, msg
		}
	}
	return validateElementsInvalid(c)
}

func validateKeyval(c *Context, target Version) (Status, string) {
	if c.root.kind == KindConfig {
		if c.keyval.moldEquiv == nil {
			return StatusMoldMissing, "no mold equivalent for keyval " + c.keyval.name
		}
		if c.keyval.value.IsNull() {
			if _, err := ResolveDefault(c.keyval.moldEquiv, target); err != nil {
				return StatusDefaultMissing, "keyval " + c.keyval.name + " is unset and has no applicable default"
			}
		}
		if status, msg := checkValueRestrictions(c, target); status != StatusOK {
			return status, msg
		}
	}
	return validateElementsInvalid(c)
}

// checkValueRestrictions applies every exclusive-value restriction on the
// keyval's mold equivalent active at target against the keyval's current
// value.
func checkValueRestrictions(c *Context, target Version) (Status, string) {
	mold := c.keyval.moldEquiv
	for _, r := range mold.keyval.restrictions {
		rp := r.restriction
		if !versionActive(rp.introduced, rp.deprecated, target) {
			continue
		}
		if rp.kind.Inclusive() {
			continue
		}
		ok, msg := checkExclusiveRestriction(rp, c.keyval.value)
		if !ok {
			return StatusRestrictionViolated, msg
		}
	}
	return StatusOK, ""
}

func versionActive(introduced, deprecated, target Version) bool {
	if target.LessThan(introduced) {
		return false
	}
	if !deprecated.IsZero() && target.GreaterEqual(deprecated) {
		return false
	}
	return true
}

func checkExclusiveRestriction(rp *restrictionPayload, v Value) (bool, string) {
	switch rp.kind {
	case RestrictionValueEnum:
		s := v.String()
		if s != rp.enumValue {
			return false, fmt.Sprintf("value %q is not the restricted enum value %q", s, rp.enumValue)
		}
		return true, ""
	case RestrictionValueRange:
		var n float64
		switch v.Type() {
		case ValueTypeInteger:
			n = float64(v.i)
		case ValueTypeFloat:
			n = v.f
		default:
			return false, "value_range restriction on non-numeric value"
		}
		if n < rp.min || n > rp.max {
			return false, fmt.Sprintf("value %v outside range [%v, %v]", n, rp.min, rp.max)
		}
		return true, ""
	case RestrictionValueNumeric:
		var n float64
		switch v.Type() {
		case ValueTypeInteger:
			n = float64(v.i)
		case ValueTypeFloat:
			n = v.f
		default:
			return false, "value_numeric restriction on non-numeric value"
		}
		if n != rp.numeric {
			return false, fmt.Sprintf("value %v does not equal restricted value %v", n, rp.numeric)
		}
		return true, ""
	default:
		return true, ""
	}
}
