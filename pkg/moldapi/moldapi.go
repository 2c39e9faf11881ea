// Package moldapi is the flat operation surface the core context tree is
// consumed through: CLIs, plugins, and archive backends call these
// functions instead of reaching into internal/corectx directly.
package moldapi

import (
	"strconv"

	"github.com/vitaliisemenov/moldctl/internal/corectx"
)

// Re-exported types for a convenient, stable API surface independent of
// the internal package layout.
type (
	Context         = corectx.Context
	Status          = corectx.Status
	Error           = corectx.Error
	Kind            = corectx.Kind
	Value           = corectx.Value
	ValueType       = corectx.ValueType
	Version         = corectx.Version
	Collection      = corectx.Collection
	RestrictionKind = corectx.RestrictionKind
)

const (
	StatusOK                  = corectx.StatusOK
	StatusInvalidArgument     = corectx.StatusInvalidArgument
	StatusInvalidContext      = corectx.StatusInvalidContext
	StatusWrongContext        = corectx.StatusWrongContext
	StatusWrongValueType      = corectx.StatusWrongValueType
	StatusContextInWrongState = corectx.StatusContextInWrongState
	StatusDestroyedContext    = corectx.StatusDestroyedContext
	StatusBadContextObject    = corectx.StatusBadContextObject
	StatusTooFewArguments     = corectx.StatusTooFewArguments
	StatusExists              = corectx.StatusExists
	StatusConflictingVersion  = corectx.StatusConflictingVersion
	StatusRestrictionViolated = corectx.StatusRestrictionViolated
	StatusMoldMissing         = corectx.StatusMoldMissing
	StatusDefaultMissing      = corectx.StatusDefaultMissing
	StatusElementsInvalid     = corectx.StatusElementsInvalid
	StatusFatalContext        = corectx.StatusFatalContext
	StatusNotExist            = corectx.StatusNotExist
	StatusExhausted           = corectx.StatusExhausted
	StatusNoMemory            = corectx.StatusNoMemory
	StatusPermission          = corectx.StatusPermission
	StatusNoCanDo             = corectx.StatusNoCanDo
	StatusConflict            = corectx.StatusConflict
	StatusInternalError       = corectx.StatusInternalError
)

const (
	KindInvalid       = corectx.KindInvalid
	KindMold          = corectx.KindMold
	KindConfig        = corectx.KindConfig
	KindSection       = corectx.KindSection
	KindKeyval        = corectx.KindKeyval
	KindDocumentation = corectx.KindDocumentation
	KindDefault       = corectx.KindDefault
	KindRestriction   = corectx.KindRestriction
	KindFreeText      = corectx.KindFreeText
)

const (
	ValueTypeUnknown = corectx.ValueTypeUnknown
	ValueTypeString  = corectx.ValueTypeString
	ValueTypeInteger = corectx.ValueTypeInteger
	ValueTypeFloat   = corectx.ValueTypeFloat
	ValueTypeBoolean = corectx.ValueTypeBoolean
	ValueTypeEnum    = corectx.ValueTypeEnum
)

const (
	RestrictionEntriesMin   = corectx.RestrictionEntriesMin
	RestrictionEntriesMax   = corectx.RestrictionEntriesMax
	RestrictionValueEnum    = corectx.RestrictionValueEnum
	RestrictionValueRange   = corectx.RestrictionValueRange
	RestrictionValueNumeric = corectx.RestrictionValueNumeric
)

var Version1_0 = corectx.Version1_0

// VersionFromString parses a "M" or "M.N" version string.
var VersionFromString = corectx.ParseVersion

// ---- Context operations ----

func Begin(parent *Context, kind Kind) (*Context, error) { return corectx.Begin(parent, kind) }
func Finalize(child *Context) error                      { return child.Finalize() }
func Destroy(ctx *Context) error                          { return ctx.Destroy() }
func Put(ctx *Context) error                              { return ctx.Put() }
func Valid(ctx *Context) bool                             { return ctx.Valid() }
func GetError(ctx *Context) string                        { return ctx.Error() }
func FatalError(ctx *Context, msg string) error           { return ctx.FatalError(msg) }

// ---- Metadata ----

func SetName(ctx *Context, name string) error { return ctx.SetName(name) }

func GetName(ctx *Context) (string, error) { return corectx.NameOf(ctx) }

func ResolveRootName(root *Context) string { return corectx.ResolveRootName(root) }

func AddIntroduced(ctx *Context, v Version) error   { return ctx.SetIntroduced(v) }
func AddDeprecated(ctx *Context, v Version) error   { return ctx.AddDeprecated(v) }
func GetIntroduced(ctx *Context) (Version, error)   { return corectx.IntroducedOf(ctx) }
func GetDeprecated(ctx *Context) (Version, error)   { return corectx.DeprecatedOf(ctx) }
func SetVersion(root *Context, v Version) error     { return root.SetVersion(v) }
func GetVersion(root *Context) (Version, error)     { return root.GetVersion() }

// ---- Documentation, default, restriction ----

// AddDocumentation attaches a Documentation child carrying s, finalized
// immediately as a shortcut over begin/set-value/finalize.
func AddDocumentation(ctx *Context, s string) (*Context, error) {
	doc, err := corectx.Begin(ctx, KindDocumentation)
	if err != nil {
		return nil, err
	}
	v, _ := doc.Value()
	if err := v.SetString(s); err != nil {
		_ = doc.Destroy()
		return nil, err
	}
	if err := doc.Finalize(); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentation returns the text of the Documentation entry active at
// version, and the version it was introduced at.
func GetDocumentation(ctx *Context, version Version) (string, Version, error) {
	var best *Context
	docs := docsOf(ctx)
	for _, d := range docs {
		introduced, _ := introducedOf(d)
		if introduced.GreaterThan(version) {
			continue
		}
		if best == nil {
			best = d
		} else if bi, _ := introducedOf(best); introduced.GreaterThan(bi) {
			best = d
		}
	}
	if best == nil {
		return "", Version{}, &Error{Status: StatusNotExist, Kind: ctx.Kind(), Message: "no documentation applies at this version"}
	}
	v, _ := best.Value()
	s, _ := v.GetString()
	introduced, _ := introducedOf(best)
	return s, introduced, nil
}

func docsOf(ctx *Context) []*Context {
	return corectx.DocsOf(ctx)
}

func introducedOf(doc *Context) (Version, error) {
	return corectx.IntroducedOf(doc)
}

// AddDefaultString/-Integer/-Float/-Boolean/-Enum attach a typed Default
// child active from version onward.
func AddDefaultString(ctx *Context, value string, version Version) (*Context, error) {
	return addDefault(ctx, version, func(v *Value) error { return v.SetString(value) })
}
func AddDefaultInteger(ctx *Context, value int64, version Version) (*Context, error) {
	return addDefault(ctx, version, func(v *Value) error { return v.SetInteger(value) })
}
func AddDefaultFloat(ctx *Context, value float64, version Version) (*Context, error) {
	return addDefault(ctx, version, func(v *Value) error { return v.SetFloat(value) })
}
func AddDefaultBoolean(ctx *Context, value bool, version Version) (*Context, error) {
	return addDefault(ctx, version, func(v *Value) error { return v.SetBoolean(value) })
}
func AddDefaultEnum(ctx *Context, value string, version Version) (*Context, error) {
	return addDefault(ctx, version, func(v *Value) error { return v.SetEnum(value) })
}

func addDefault(ctx *Context, version Version, set func(*Value) error) (*Context, error) {
	def, err := corectx.Begin(ctx, KindDefault)
	if err != nil {
		return nil, err
	}
	if err := def.SetIntroduced(version); err != nil {
		_ = def.Destroy()
		return nil, err
	}
	v, _ := def.Value()
	if err := set(v); err != nil {
		_ = def.Destroy()
		return nil, err
	}
	if err := def.Finalize(); err != nil {
		return nil, err
	}
	return def, nil
}

// GetDefault returns the stringified best-applicable default at version.
func GetDefault(ctx *Context, version Version) (string, error) {
	v, err := corectx.ResolveDefault(ctx, version)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// GetDefaultContexts returns every Default child of ctx in insertion order.
func GetDefaultContexts(ctx *Context) (*Collection, error) {
	return corectx.DefaultsOf(ctx)
}

func SetRestrictionType(ctx *Context, kind RestrictionKind) error {
	switch kind {
	case RestrictionEntriesMin, RestrictionEntriesMax:
		return ctx.SetRestrictionEntriesBound(kind, 0)
	case RestrictionValueEnum:
		return ctx.SetRestrictionValueEnum("")
	case RestrictionValueRange:
		return ctx.SetRestrictionValueRange(0, 0)
	case RestrictionValueNumeric:
		return ctx.SetRestrictionValueNumeric(0)
	default:
		return &Error{Status: StatusInvalidArgument, Kind: ctx.Kind(), Message: "unknown restriction kind"}
	}
}

func GetRestrictionType(ctx *Context) (RestrictionKind, error) { return ctx.RestrictionKind() }

func SetRestrictionString(ctx *Context, value string) error { return ctx.SetRestrictionValueEnum(value) }
func SetRestrictionRange(ctx *Context, min, max float64) error {
	return ctx.SetRestrictionValueRange(min, max)
}
func SetRestrictionNumeric(ctx *Context, value float64) error {
	return ctx.SetRestrictionValueNumeric(value)
}

// AddRestrictionValueEnum/-Range/-Numeric/-EntriesMin/-EntriesMax are
// begin+set+finalize shortcuts mirroring AddDefault*.
func AddRestrictionValueEnum(ctx *Context, value string) (*Context, error) {
	return addRestriction(ctx, func(r *Context) error { return r.SetRestrictionValueEnum(value) })
}
func AddRestrictionValueRange(ctx *Context, min, max float64) (*Context, error) {
	return addRestriction(ctx, func(r *Context) error { return r.SetRestrictionValueRange(min, max) })
}
func AddRestrictionValueNumeric(ctx *Context, value float64) (*Context, error) {
	return addRestriction(ctx, func(r *Context) error { return r.SetRestrictionValueNumeric(value) })
}
func AddRestrictionEntriesMin(ctx *Context, bound int) (*Context, error) {
	return addRestriction(ctx, func(r *Context) error {
		return r.SetRestrictionEntriesBound(RestrictionEntriesMin, bound)
	})
}
func AddRestrictionEntriesMax(ctx *Context, bound int) (*Context, error) {
	return addRestriction(ctx, func(r *Context) error {
		return r.SetRestrictionEntriesBound(RestrictionEntriesMax, bound)
	})
}

func addRestriction(ctx *Context, set func(*Context) error) (*Context, error) {
	r, err := corectx.Begin(ctx, KindRestriction)
	if err != nil {
		return nil, err
	}
	if err := set(r); err != nil {
		_ = r.Destroy()
		return nil, err
	}
	if err := r.Finalize(); err != nil {
		return nil, err
	}
	return r, nil
}

func RestrictionEntriesMinimum(ctx *Context, name string, version Version) (int, error) {
	min, _, err := corectx.ResolveEntriesBounds(ctx, name, version)
	return min, err
}

func RestrictionEntriesMaximum(ctx *Context, name string, version Version) (int, error) {
	_, max, err := corectx.ResolveEntriesBounds(ctx, name, version)
	return max, err
}

func RestrictionCollection(ctx *Context) (*Collection, error) {
	return corectx.RestrictionsOf(ctx)
}

// ---- Keyval shortcuts ----

// AddKeyvalString/-Integer/-Float/-Boolean/-Enum are begin+set_name+
// set_value_type+add_default+add_documentation+finalize shortcuts for
// building a mold keyval in one call.
func AddKeyvalString(parent *Context, name, def, doc string, version Version) (*Context, error) {
	return addKeyval(parent, name, ValueTypeString, doc, func(kv *Context) error {
		_, err := AddDefaultString(kv, def, version)
		return err
	})
}

func AddKeyvalInteger(parent *Context, name string, def int64, doc string, version Version) (*Context, error) {
	return addKeyval(parent, name, ValueTypeInteger, doc, func(kv *Context) error {
		_, err := AddDefaultInteger(kv, def, version)
		return err
	})
}

func AddKeyvalFloat(parent *Context, name string, def float64, doc string, version Version) (*Context, error) {
	return addKeyval(parent, name, ValueTypeFloat, doc, func(kv *Context) error {
		_, err := AddDefaultFloat(kv, def, version)
		return err
	})
}

func AddKeyvalBoolean(parent *Context, name string, def bool, doc string, version Version) (*Context, error) {
	return addKeyval(parent, name, ValueTypeBoolean, doc, func(kv *Context) error {
		_, err := AddDefaultBoolean(kv, def, version)
		return err
	})
}

func AddKeyvalEnum(parent *Context, name, def, doc string, version Version) (*Context, error) {
	return addKeyval(parent, name, ValueTypeEnum, doc, func(kv *Context) error {
		_, err := AddDefaultEnum(kv, def, version)
		return err
	})
}

func addKeyval(parent *Context, name string, vtype ValueType, doc string, addDefault func(*Context) error) (*Context, error) {
	kv, err := corectx.Begin(parent, KindKeyval)
	if err != nil {
		return nil, err
	}
	if err := kv.SetName(name); err != nil {
		_ = kv.Destroy()
		return nil, err
	}
	if parent.Root().Kind() == KindMold {
		if err := kv.SetValueType(vtype); err != nil {
			_ = kv.Destroy()
			return nil, err
		}
		if err := addDefault(kv); err != nil {
			_ = kv.Destroy()
			return nil, err
		}
	}
	if doc != "" {
		if _, err := AddDocumentation(kv, doc); err != nil {
			_ = kv.Destroy()
			return nil, err
		}
	}
	if err := kv.Finalize(); err != nil {
		return nil, err
	}
	return kv, nil
}

// ---- Traversal ----

func GetElements(ctx *Context) (*Collection, error)                  { return ctx.FindElements() }
func FindElements(ctx *Context, name string) (*Collection, error)    { return ctx.GetElements(name) }
func FindElement(ctx *Context, name string, index int) (*Context, error) {
	if index == 0 {
		if found, err := ctx.FindElement(name); err == nil {
			return found, nil
		}
	}
	return corectx.ResolveQuery(ctx, indexedSegment(name, index))
}

func indexedSegment(name string, index int) string {
	if index < 0 {
		return name
	}
	return name + "@" + strconv.Itoa(index)
}

// QueryResolveContext resolves a dotted path such as "a.b.c@2" from
// parent, disambiguating repeated names with a trailing @index.
func QueryResolveContext(parent *Context, path string) (*Context, error) {
	return corectx.ResolveQuery(parent, path)
}

// ---- Roots ----

func MoldBegin() (*Context, error)             { return corectx.BeginMold() }
func MoldFinalize(mold *Context) error         { return mold.Finalize() }
func ConfigBegin(mold *Context) (*Context, error) { return corectx.BeginConfig(mold) }
func ConfigFinalize(cfg *Context) error        { return cfg.Finalize() }
func ConfigGetVersion(cfg *Context) (Version, error) { return cfg.GetVersion() }
func MoldGetVersion(mold *Context) (Version, error)  { return mold.GetVersion() }
func FreeTextCreate(s string) (*Context, error)      { return corectx.BeginFreeText(s) }

// ValidateTree re-validates an already-finalized tree (e.g. one just
// loaded from an archive backend or plugin) against target, returning the
// worst Status found and every diagnostic message collected along the way.
func ValidateTree(root *Context, target Version) (Status, []string) {
	return corectx.ValidateTree(root, target)
}

// ---- Comparison ----

// Compare diffs lhs against rhs, returning StatusConflict when any
// difference is found (with report populated) or StatusOK otherwise.
func Compare(lhs, rhs *Context) (Status, []string, error) {
	report, err := corectx.Diff(lhs, rhs)
	if err != nil {
		return StatusInternalError, nil, err
	}
	if len(report) > 0 {
		return StatusConflict, report, nil
	}
	return StatusOK, nil, nil
}
