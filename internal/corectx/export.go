package corectx

// DocsOf returns the Documentation children of a Mold, Section, or Keyval,
// for callers outside the package resolving documentation by version
// (moldapi.GetDocumentation).
func DocsOf(c *Context) []*Context {
	switch c.kind {
	case KindMold:
		return c.mold.docs
	case KindSection:
		return c.section.docs
	case KindKeyval:
		return c.keyval.docs
	default:
		return nil
	}
}

// NameOf returns a Section/Keyval's configured name.
func NameOf(c *Context) (string, error) {
	switch c.kind {
	case KindSection:
		return c.section.name, nil
	case KindKeyval:
		return c.keyval.name, nil
	default:
		return "", newErr(StatusWrongContext, c.kind, "", "get_name is only legal on Section/Keyval")
	}
}

// IntroducedOf returns a Documentation/Default/Restriction node's
// introduced version.
func IntroducedOf(c *Context) (Version, error) {
	switch c.kind {
	case KindDocumentation:
		return c.doc.introduced, nil
	case KindDefault:
		return c.def.introduced, nil
	case KindRestriction:
		return c.restriction.introduced, nil
	default:
		return Version{}, newErr(StatusWrongContext, c.kind, "", "no introduced version on kind %s", c.kind)
	}
}

// DeprecatedOf returns a Section/Keyval/Restriction node's deprecated
// version.
func DeprecatedOf(c *Context) (Version, error) {
	switch c.kind {
	case KindSection:
		return c.section.deprecated, nil
	case KindKeyval:
		return c.keyval.deprecated, nil
	case KindRestriction:
		return c.restriction.deprecated, nil
	default:
		return Version{}, newErr(StatusWrongContext, c.kind, "", "no deprecated version on kind %s", c.kind)
	}
}

// DefaultsOf returns a refcount-holding snapshot of a mold-side keyval's
// Default children.
func DefaultsOf(c *Context) (*Collection, error) {
	if c.kind != KindKeyval {
		return nil, newErr(StatusWrongContext, c.kind, "", "get_default_contexts is only legal on Keyval")
	}
	col := newCollection()
	for _, d := range c.keyval.defaults {
		col.push(d)
	}
	return col, nil
}

// RestrictionsOf returns a refcount-holding snapshot of a mold-side
// section or keyval's Restriction children.
func RestrictionsOf(c *Context) (*Collection, error) {
	col := newCollection()
	switch c.kind {
	case KindSection:
		for _, r := range c.section.restrictions {
			col.push(r)
		}
	case KindKeyval:
		for _, r := range c.keyval.restrictions {
			col.push(r)
		}
	default:
		return nil, newErr(StatusWrongContext, c.kind, "", "restriction_collection is only legal on Section/Keyval")
	}
	return col, nil
}
