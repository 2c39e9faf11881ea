package corectx

import (
	"fmt"
	"regexp"
)

// nameCharset is the restriction every Section/Keyval name is checked
// against: lowercase ASCII letters, digits, and underscore.
var nameCharset = regexp.MustCompile(`^[a-z0-9_]+$`)

// Context is the universal context tree node. It is not safe for
// concurrent use against a single tree: the refcount, state flags, and
// mold-equivalent back-references form a graph that assumes one caller
// drives one tree at a time. Independent trees may be driven from
// different goroutines.
type Context struct {
	kind    Kind
	state   State
	flags   Flag
	refcount int
	parent  *Context
	root    *Context
	errMsg  string
	invalidStatus Status

	mold        *moldPayload
	config      *configPayload
	section     *sectionPayload
	keyval      *keyvalPayload
	def         *defaultPayload
	doc         *docPayload
	restriction *restrictionPayload
	freeText    *freeTextPayload
}

func (c *Context) Kind() Kind   { return c.kind }
func (c *Context) State() State { return c.state }
func (c *Context) Root() *Context { return c.root }
func (c *Context) Parent() *Context { return c.parent }

func (c *Context) hold() *Context {
	c.refcount++
	return c
}

// displayName returns the name of a Section/Keyval, or the kind string for
// unnamed nodes — used for error messages and ElementStorage.Names.
func (c *Context) displayName() string {
	switch c.kind {
	case KindSection:
		return c.section.name
	case KindKeyval:
		return c.keyval.name
	default:
		return c.kind.String()
	}
}

func checkLive(c *Context) error {
	if c == nil {
		return newErr(StatusBadContextObject, 0, "", "nil context")
	}
	if c.hasFlag(FlagDestroyed) {
		return &Error{Status: StatusDestroyedContext, Kind: c.kind, Name: c.displayName()}
	}
	return nil
}

func checkConstructing(c *Context) error {
	if err := checkLive(c); err != nil {
		return err
	}
	if c.state != StateConstructing {
		return &Error{Status: StatusContextInWrongState, Kind: c.kind, Name: c.displayName(), Message: "context is finalized"}
	}
	return nil
}

// legalChild enforces invariant 5 and the begin-time kind table of §4.5.
func legalChild(parent *Context, childKind Kind) error {
	switch parent.kind {
	case KindMold:
		switch childKind {
		case KindDocumentation, KindKeyval, KindSection:
			return nil
		}
	case KindConfig:
		switch childKind {
		case KindKeyval, KindSection:
			return nil
		}
	case KindSection:
		switch childKind {
		case KindDocumentation, KindKeyval, KindSection:
			return nil
		case KindRestriction:
			if parent.root.kind == KindMold {
				return nil
			}
			return newErr(StatusWrongContext, childKind, "", "restrictions are only legal under a mold section")
		}
	case KindKeyval:
		switch childKind {
		case KindDocumentation:
			return nil
		case KindDefault:
			if parent.root.kind == KindMold {
				return nil
			}
			return newErr(StatusWrongContext, childKind, "", "defaults are only legal under a mold keyval")
		case KindRestriction:
			if parent.root.kind == KindMold {
				return nil
			}
			return newErr(StatusWrongContext, childKind, "", "restrictions are only legal under a mold keyval")
		}
	}
	return newErr(StatusWrongContext, childKind, "", "kind %s is not a legal child of %s", childKind, parent.kind)
}

// BeginMold starts a new mold root.
func BeginMold() (*Context, error) {
	c := &Context{kind: KindMold, state: StateConstructing, refcount: 1, mold: &moldPayload{elements: NewElementStorage()}}
	c.root = c
	return c, nil
}

// BeginConfig starts a new config root bound to mold. mold must already be
// finalized.
func BeginConfig(mold *Context) (*Context, error) {
	if err := checkLive(mold); err != nil {
		return nil, err
	}
	if mold.kind != KindMold {
		return nil, newErr(StatusWrongContext, mold.kind, "", "config must be bound to a mold")
	}
	if mold.state != StateFinalized {
		return nil, &Error{Status: StatusContextInWrongState, Kind: mold.kind, Message: "mold is not finalized"}
	}
	mold.hold()
	c := &Context{
		kind:  KindConfig,
		state: StateConstructing,
		refcount: 1,
		config: &configPayload{
			mold:     mold,
			elements: NewElementStorage(),
			version:  mold.mold.version,
		},
	}
	c.root = c
	return c, nil
}

// BeginFreeText creates an already-finalized, parentless string holder.
func BeginFreeText(s string) (*Context, error) {
	c := &Context{kind: KindFreeText, state: StateFinalized, refcount: 1, freeText: &freeTextPayload{value: NewStringValue(s)}}
	c.root = c
	return c, nil
}

// Begin creates a Constructing child of the given kind under parent.
func Begin(parent *Context, kind Kind) (*Context, error) {
	if err := checkLive(parent); err != nil {
		return nil, err
	}
	if err := legalChild(parent, kind); err != nil {
		return nil, err
	}
	c := &Context{kind: kind, state: StateConstructing, refcount: 1, parent: parent, root: parent.root}
	switch kind {
	case KindSection:
		c.section = &sectionPayload{elements: NewElementStorage()}
	case KindKeyval:
		c.keyval = &keyvalPayload{}
	case KindDocumentation:
		c.doc = &docPayload{value: NewTypedValue(ValueTypeString), introduced: Version1_0}
	case KindDefault:
		c.def = &defaultPayload{value: NewTypedValue(parent.keyval.value.Type()), introduced: Version1_0}
	case KindRestriction:
		c.restriction = &restrictionPayload{}
	default:
		return nil, newErr(StatusInvalidArgument, kind, "", "cannot begin a root kind as a child")
	}
	parent.hold()
	return c, nil
}

// ---- mutators (Constructing only) ----

// SetName sets a Section/Keyval's name. When the root is a Config, this
// resolves the mold-equivalent sibling by name: failure marks the node
// Invalid but is reported non-fatally (Not-Exist) so construction can
// continue, per the open question in §9 resolved toward Not-Exist at
// set-name time.
func (c *Context) SetName(name string) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindSection && c.kind != KindKeyval {
		return newErr(StatusWrongContext, c.kind, "", "set_name is only legal on Section/Keyval")
	}
	if !nameCharset.MatchString(name) {
		c.setFlag(FlagInvalid)
		c.invalidStatus = StatusRestrictionViolated
		c.errMsg = "name must match [a-z0-9_]+"
		return newErr(StatusRestrictionViolated, c.kind, name, "name must match [a-z0-9_]+")
	}
	switch c.kind {
	case KindSection:
		c.section.name = name
	case KindKeyval:
		c.keyval.name = name
	}
	if c.root.kind != KindConfig {
		return nil
	}
	equiv, err := c.resolveMoldEquivalent(name)
	if err != nil {
		c.setFlag(FlagInvalid)
		c.invalidStatus = StatusNotExist
		c.errMsg = fmt.Sprintf("no mold equivalent for %q", name)
		return newErr(StatusNotExist, c.kind, name, "no mold equivalent for %q", name)
	}
	switch c.kind {
	case KindSection:
		c.section.moldEquiv = equiv
	case KindKeyval:
		c.keyval.moldEquiv = equiv
		c.keyval.value = NewTypedValue(equiv.keyval.value.Type())
	}
	return nil
}

func (c *Context) resolveMoldEquivalent(name string) (*Context, error) {
	moldParent := c.parent.moldSideEquivalentOf()
	if moldParent == nil {
		return nil, newErr(StatusMoldMissing, c.kind, name, "parent has no mold equivalent")
	}
	var storage *ElementStorage
	switch moldParent.kind {
	case KindMold:
		storage = moldParent.mold.elements
	case KindSection:
		storage = moldParent.section.elements
	default:
		return nil, newErr(StatusMoldMissing, c.kind, name, "unexpected mold parent kind %s", moldParent.kind)
	}
	equiv, err := storage.GetFirst(name)
	if err != nil {
		return nil, err
	}
	equiv.release() // GetFirst holds; the back-reference is non-owning
	if equiv.kind != c.kind {
		return nil, newErr(StatusNotExist, c.kind, name, "mold equivalent kind mismatch")
	}
	return equiv, nil
}

func (c *Context) release() {
	if c.refcount > 0 {
		c.refcount--
	}
}

// moldSideEquivalentOf returns the mold-side context that stands in for c
// when resolving a config-side child's mold-equivalent: c itself if it is
// already mold-rooted, otherwise c's own moldEquiv.
func (c *Context) moldSideEquivalentOf() *Context {
	if c.root.kind == KindMold {
		return c
	}
	switch c.kind {
	case KindConfig:
		return c.config.mold
	case KindSection:
		return c.section.moldEquiv
	case KindKeyval:
		return c.keyval.moldEquiv
	default:
		return nil
	}
}

// SetValueType pins a mold Keyval's value type. Config-side keyvals have
// their type pinned automatically by SetName.
func (c *Context) SetValueType(vt ValueType) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindKeyval {
		return newErr(StatusWrongContext, c.kind, "", "set_value_type is only legal on Keyval")
	}
	if c.root.kind != KindMold {
		return newErr(StatusWrongContext, c.kind, c.keyval.name, "value type is pinned by the mold on a config keyval")
	}
	c.keyval.value = NewTypedValue(vt)
	return nil
}

// Value returns a pointer to the mutable value payload, valid for Keyval,
// Default, Documentation (string-only), and FreeText nodes.
func (c *Context) Value() (*Value, error) {
	switch c.kind {
	case KindKeyval:
		return &c.keyval.value, nil
	case KindDefault:
		return &c.def.value, nil
	case KindDocumentation:
		return &c.doc.value, nil
	case KindFreeText:
		return &c.freeText.value, nil
	default:
		return nil, newErr(StatusWrongContext, c.kind, "", "no value on kind %s", c.kind)
	}
}

// SetRestrictionEntriesBound configures an EntriesMin/EntriesMax
// restriction's bound, where kind must be RestrictionEntriesMin or
// RestrictionEntriesMax.
func (c *Context) SetRestrictionEntriesBound(kind RestrictionKind, bound int) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindRestriction || !kind.Inclusive() {
		return newErr(StatusWrongContext, c.kind, "", "entries bound restriction requires EntriesMin/Max")
	}
	c.restriction.kind = kind
	switch kind {
	case RestrictionEntriesMin:
		c.restriction.min = float64(bound)
	case RestrictionEntriesMax:
		c.restriction.max = float64(bound)
	}
	return nil
}

// SetRestrictionValueEnum configures a ValueEnum restriction's pinned
// value.
func (c *Context) SetRestrictionValueEnum(value string) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindRestriction {
		return newErr(StatusWrongContext, c.kind, "", "set_restriction_value_enum is only legal on Restriction")
	}
	c.restriction.kind = RestrictionValueEnum
	c.restriction.enumValue = value
	return nil
}

// SetRestrictionValueRange configures a ValueRange restriction's [min, max]
// bounds.
func (c *Context) SetRestrictionValueRange(min, max float64) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindRestriction {
		return newErr(StatusWrongContext, c.kind, "", "set_restriction_value_range is only legal on Restriction")
	}
	c.restriction.kind = RestrictionValueRange
	c.restriction.min = min
	c.restriction.max = max
	return nil
}

// SetRestrictionValueNumeric configures a ValueNumeric restriction's
// pinned value.
func (c *Context) SetRestrictionValueNumeric(value float64) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	if c.kind != KindRestriction {
		return newErr(StatusWrongContext, c.kind, "", "set_restriction_value_numeric is only legal on Restriction")
	}
	c.restriction.kind = RestrictionValueNumeric
	c.restriction.numeric = value
	return nil
}

// RestrictionKind reports the kind pinned on a Restriction node.
func (c *Context) RestrictionKind() (RestrictionKind, error) {
	if c.kind != KindRestriction {
		return RestrictionUnknown, newErr(StatusWrongContext, c.kind, "", "restriction_kind is only legal on Restriction")
	}
	return c.restriction.kind, nil
}

// SetIntroduced sets the introduced version of a Section, Keyval,
// Documentation, Default, or Restriction.
func (c *Context) SetIntroduced(v Version) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	switch c.kind {
	case KindSection:
		c.section.introduced = v
	case KindKeyval:
		// Keyval has no introduced field of its own in the data model beyond
		// deprecated; introduced tracking lives on its Default/Documentation
		// children. Accept for symmetry with Section but no-op beyond that.
	case KindDocumentation:
		c.doc.introduced = v
	case KindDefault:
		c.def.introduced = v
	case KindRestriction:
		c.restriction.introduced = v
	default:
		return newErr(StatusWrongContext, c.kind, "", "add_introduced not legal on kind %s", c.kind)
	}
	return nil
}

// AddDeprecated sets the deprecated version of a Section, Keyval, or
// Restriction. Named AddDeprecated (not the source's typoed
// dc_add_deprecrated) per the design-notes resolution.
func (c *Context) AddDeprecated(v Version) error {
	if err := checkConstructing(c); err != nil {
		return err
	}
	switch c.kind {
	case KindSection:
		c.section.deprecated = v
	case KindKeyval:
		c.keyval.deprecated = v
	case KindRestriction:
		c.restriction.deprecated = v
	default:
		return newErr(StatusWrongContext, c.kind, "", "add_deprecated not legal on kind %s", c.kind)
	}
	return nil
}

// SetVersion sets a root's (Mold or Config) version. A Config's version
// may never exceed its Mold's version.
func (c *Context) SetVersion(v Version) error {
	if err := checkLive(c); err != nil {
		return err
	}
	switch c.kind {
	case KindMold:
		c.mold.version = v
		return nil
	case KindConfig:
		if v.GreaterThan(c.config.mold.mold.version) {
			return &Error{Status: StatusConflictingVersion, Kind: c.kind, Message: fmt.Sprintf("config version %s exceeds mold version %s", v, c.config.mold.mold.version)}
		}
		c.config.version = v
		return nil
	default:
		return newErr(StatusWrongContext, c.kind, "", "set_version is only legal on roots")
	}
}

func (c *Context) GetVersion() (Version, error) {
	switch c.kind {
	case KindMold:
		return c.mold.version, nil
	case KindConfig:
		return c.config.version, nil
	default:
		return Version{}, newErr(StatusWrongContext, c.kind, "", "get_version is only legal on roots")
	}
}

// bumpMoldVersion advances the mold's auto-tracked version to the greatest
// version observed among descendants, called whenever a versioned child
// (Section/Keyval/Documentation/Default/Restriction) finalizes.
func (c *Context) bumpMoldVersion(v Version) {
	root := c.root
	if root.kind != KindMold {
		return
	}
	if v.GreaterThan(root.mold.version) {
		root.mold.version = v
	}
}

// ---- lifecycle ----

// Finalize runs local + subtree validation; on success it links the
// context into its parent's storage/queue and flips it to Finalized. On
// failure the context is marked Invalid; if the parent is still
// Constructing the caller keeps the reference to inspect or discard
// (Invalid-Context), otherwise the concrete failure status propagates.
func (c *Context) Finalize() error {
	if err := checkConstructing(c); err != nil {
		return err
	}

	target := targetVersionFor(c)
	status, msg := validateContext(c, target)
	if status == StatusOK {
		c.state = StateFinalized
		if c.parent != nil {
			c.linkIntoParent()
		}
		c.trackVersions()
		return nil
	}

	c.setFlag(FlagInvalid)
	c.invalidStatus = status
	c.errMsg = msg
	// A fatal status is sticky and always propagates as itself, independent
	// of the parent's state.
	if status == StatusFatalContext || c.parent == nil || c.parent.state == StateFinalized {
		return &Error{Status: status, Kind: c.kind, Name: c.displayName(), Message: msg}
	}
	return &Error{Status: StatusInvalidContext, Kind: c.kind, Name: c.displayName(), Message: msg}
}

func (c *Context) trackVersions() {
	switch c.kind {
	case KindSection:
		c.bumpMoldVersion(c.section.introduced)
		c.bumpMoldVersion(c.section.deprecated)
	case KindKeyval:
		c.bumpMoldVersion(c.keyval.deprecated)
	case KindDocumentation:
		c.bumpMoldVersion(c.doc.introduced)
	case KindDefault:
		c.bumpMoldVersion(c.def.introduced)
	case KindRestriction:
		c.bumpMoldVersion(c.restriction.introduced)
		c.bumpMoldVersion(c.restriction.deprecated)
	}
}

func (c *Context) linkIntoParent() {
	p := c.parent
	switch c.kind {
	case KindSection:
		p.childStorage().Add(c.section.name, c)
	case KindKeyval:
		p.childStorage().Add(c.keyval.name, c)
	case KindDocumentation:
		switch p.kind {
		case KindMold:
			p.mold.docs = append(p.mold.docs, c)
		case KindSection:
			p.section.docs = append(p.section.docs, c)
		case KindKeyval:
			p.keyval.docs = append(p.keyval.docs, c)
		}
	case KindDefault:
		p.keyval.defaults = append(p.keyval.defaults, c)
	case KindRestriction:
		switch p.kind {
		case KindSection:
			p.section.restrictions = append(p.section.restrictions, c)
		case KindKeyval:
			p.keyval.restrictions = append(p.keyval.restrictions, c)
		}
	}
	c.setFlag(FlagInParent)
}

// childStorage returns the ElementStorage a Mold/Config/Section uses for
// its Keyval/Section children.
func (c *Context) childStorage() *ElementStorage {
	switch c.kind {
	case KindMold:
		return c.mold.elements
	case KindConfig:
		return c.config.elements
	case KindSection:
		return c.section.elements
	default:
		return nil
	}
}

// childContexts returns every direct child of c across whichever
// queues/storage apply to its kind, for internal recursive walks
// (validate, destroy, diff). It does not perturb refcounts.
func (c *Context) childContexts() []*Context {
	var out []*Context
	switch c.kind {
	case KindMold:
		out = append(out, c.mold.docs...)
		out = append(out, c.mold.elements.allSlice()...)
	case KindConfig:
		out = append(out, c.config.elements.allSlice()...)
	case KindSection:
		out = append(out, c.section.docs...)
		out = append(out, c.section.restrictions...)
		out = append(out, c.section.elements.allSlice()...)
	case KindKeyval:
		out = append(out, c.keyval.docs...)
		out = append(out, c.keyval.defaults...)
		out = append(out, c.keyval.restrictions...)
	}
	return out
}

// Destroy tears down the subtree rooted at c unconditionally, regardless of
// outstanding refcount, marking every node in it Destroyed. Other holders
// observe Destroyed-Context on any operation besides Put.
func (c *Context) Destroy() error {
	if c.hasFlag(FlagDestroyed) {
		return nil
	}
	for _, child := range append([]*Context(nil), c.childContexts()...) {
		_ = child.Destroy()
	}
	if c.hasFlag(FlagInParent) && c.parent != nil {
		_ = c.parent.childStorage().removeFromOwner(c)
	}
	c.setFlag(FlagDestroyed)
	c.refcount = 0
	if c.parent != nil {
		c.parent.release()
		c.parent = nil
	}
	if c.kind == KindConfig && c.config.mold != nil {
		c.config.mold.release()
	}
	return nil
}

// removeFromOwner removes ctx from whichever of the storage's lists it was
// inserted under, looking the name up from ctx itself.
func (s *ElementStorage) removeFromOwner(ctx *Context) error {
	return s.Remove(ctx.displayName(), ctx)
}

// Put decrements the refcount, destroying the subtree once it reaches
// zero outstanding holders. Put never errors, even on an already-destroyed
// context, so holders can always release their reference.
func (c *Context) Put() error {
	if c == nil {
		return nil
	}
	if c.hasFlag(FlagDestroyed) {
		if c.refcount > 0 {
			c.refcount--
		}
		return nil
	}
	if c.refcount <= 1 {
		return c.Destroy()
	}
	c.refcount--
	return nil
}

// GetElements returns a refcount-holding snapshot of every child named
// name directly under c (Mold/Config/Section).
func (c *Context) GetElements(name string) (*Collection, error) {
	storage := c.childStorage()
	if storage == nil {
		return nil, newErr(StatusWrongContext, c.kind, name, "kind %s has no named elements", c.kind)
	}
	return storage.Get(name)
}

// FindElements returns a refcount-holding snapshot of every direct child
// under c (Mold/Config/Section), in insertion order.
func (c *Context) FindElements() (*Collection, error) {
	storage := c.childStorage()
	if storage == nil {
		return nil, newErr(StatusWrongContext, c.kind, "", "kind %s has no elements", c.kind)
	}
	return storage.GetAll(), nil
}

// FindElement is the single-result convenience over GetElements, erroring
// Exists when the name is ambiguous rather than silently picking one.
func (c *Context) FindElement(name string) (*Context, error) {
	storage := c.childStorage()
	if storage == nil {
		return nil, newErr(StatusWrongContext, c.kind, name, "kind %s has no named elements", c.kind)
	}
	matches := storage.namedSlice(name)
	switch len(matches) {
	case 0:
		return nil, newErr(StatusNotExist, c.kind, name, "no element named %q", name)
	case 1:
		return matches[0].hold(), nil
	default:
		return nil, newErr(StatusExists, c.kind, name, "%q is ambiguous: %d entries", name, len(matches))
	}
}

// Valid reports whether c currently carries the Invalid flag.
func (c *Context) Valid() bool {
	return !c.hasFlag(FlagInvalid) && !c.hasFlag(FlagFatal) && !c.hasFlag(FlagDestroyed)
}

// Error returns the most recently attached error message, or "" if none.
func (c *Context) Error() string {
	return c.errMsg
}

// FatalError attaches a sticky fatal error: it persists across subsequent
// operations and forces Fatal-Context on every later validation.
func (c *Context) FatalError(msg string) error {
	if err := checkLive(c); err != nil {
		return err
	}
	c.setFlag(FlagFatal)
	c.errMsg = msg
	return nil
}
