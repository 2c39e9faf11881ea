package jsonplugin

import (
	"fmt"

	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

// decodeElements constructs Section/Keyval children of parent from docs,
// recursing into nested Entries for Section. parent may be a mold, a
// config, or a section at any nesting depth under either root.
func decodeElements(parent *moldapi.Context, docs []elementDoc) error {
	for _, ed := range docs {
		switch ed.Kind {
		case "section":
			if err := decodeSection(parent, ed); err != nil {
				return err
			}
		case "keyval":
			if err := decodeKeyval(parent, ed); err != nil {
				return err
			}
		default:
			return fmt.Errorf("jsonplugin: unknown element kind %q", ed.Kind)
		}
	}
	return nil
}

func decodeSection(parent *moldapi.Context, ed elementDoc) error {
	sec, err := moldapi.Begin(parent, moldapi.KindSection)
	if err != nil {
		return err
	}
	if err := moldapi.SetName(sec, ed.Name); err != nil {
		_ = moldapi.Destroy(sec)
		return err
	}
	if parent.Root().Kind() == moldapi.KindMold {
		if ed.Introduced != "" {
			v, err := parseVersion(ed.Introduced)
			if err == nil {
				_ = moldapi.AddIntroduced(sec, v)
			}
		}
		if ed.Deprecated != "" {
			v, err := parseVersion(ed.Deprecated)
			if err == nil {
				_ = moldapi.AddDeprecated(sec, v)
			}
		}
		for _, r := range ed.Restrictions {
			if err := decodeRestriction(sec, r); err != nil {
				_ = moldapi.Destroy(sec)
				return err
			}
		}
	}
	for _, text := range ed.Docs {
		if _, err := moldapi.AddDocumentation(sec, text); err != nil {
			_ = moldapi.Destroy(sec)
			return err
		}
	}
	if err := decodeElements(sec, ed.Entries); err != nil {
		_ = moldapi.Destroy(sec)
		return err
	}
	return moldapi.Finalize(sec)
}

func decodeKeyval(parent *moldapi.Context, ed elementDoc) error {
	kv, err := moldapi.Begin(parent, moldapi.KindKeyval)
	if err != nil {
		return err
	}
	if err := moldapi.SetName(kv, ed.Name); err != nil {
		_ = moldapi.Destroy(kv)
		return err
	}

	if parent.Root().Kind() == moldapi.KindMold {
		vtype := parseValueType(ed.ValueType)
		if err := kv.SetValueType(vtype); err != nil {
			_ = moldapi.Destroy(kv)
			return err
		}
		for _, d := range ed.Defaults {
			if err := decodeDefault(kv, vtype, d); err != nil {
				_ = moldapi.Destroy(kv)
				return err
			}
		}
		for _, r := range ed.Restrictions {
			if err := decodeRestriction(kv, r); err != nil {
				_ = moldapi.Destroy(kv)
				return err
			}
		}
	} else if ed.Value != nil {
		v, _ := kv.Value()
		if err := setValueFromJSON(v, ed.Value); err != nil {
			_ = moldapi.Destroy(kv)
			return err
		}
	}

	for _, text := range ed.Docs {
		if _, err := moldapi.AddDocumentation(kv, text); err != nil {
			_ = moldapi.Destroy(kv)
			return err
		}
	}
	return moldapi.Finalize(kv)
}

func decodeDefault(kv *moldapi.Context, vtype moldapi.ValueType, d defaultDoc) error {
	version := moldapi.Version1_0
	if d.Introduced != "" {
		if v, err := parseVersion(d.Introduced); err == nil {
			version = v
		}
	}
	var err error
	switch vtype {
	case moldapi.ValueTypeString:
		_, err = moldapi.AddDefaultString(kv, fmt.Sprint(d.Value), version)
	case moldapi.ValueTypeInteger:
		_, err = moldapi.AddDefaultInteger(kv, toInt64(d.Value), version)
	case moldapi.ValueTypeFloat:
		_, err = moldapi.AddDefaultFloat(kv, toFloat64(d.Value), version)
	case moldapi.ValueTypeBoolean:
		_, err = moldapi.AddDefaultBoolean(kv, toBool(d.Value), version)
	case moldapi.ValueTypeEnum:
		_, err = moldapi.AddDefaultEnum(kv, fmt.Sprint(d.Value), version)
	}
	return err
}

func decodeRestriction(ctx *moldapi.Context, r restrictionDoc) error {
	var err error
	switch r.Kind {
	case "entries_min":
		_, err = moldapi.AddRestrictionEntriesMin(ctx, int(r.Min))
	case "entries_max":
		_, err = moldapi.AddRestrictionEntriesMax(ctx, int(r.Max))
	case "value_enum":
		_, err = moldapi.AddRestrictionValueEnum(ctx, r.EnumValue)
	case "value_range":
		_, err = moldapi.AddRestrictionValueRange(ctx, r.Min, r.Max)
	case "value_numeric":
		_, err = moldapi.AddRestrictionValueNumeric(ctx, r.Numeric)
	default:
		return fmt.Errorf("jsonplugin: unknown restriction kind %q", r.Kind)
	}
	return err
}

// encodeElement recurses a Section/Keyval into its JSON shape.
func encodeElement(ctx *moldapi.Context) (elementDoc, error) {
	name, err := moldapi.GetName(ctx)
	if err != nil {
		return elementDoc{}, err
	}
	ed := elementDoc{Name: name}
	switch ctx.Kind() {
	case moldapi.KindSection:
		ed.Kind = "section"
		col, err := moldapi.GetElements(ctx)
		if err != nil {
			return ed, err
		}
		defer col.Finished()
		for {
			child, err := col.Next()
			if err != nil {
				break
			}
			childDoc, err := encodeElement(child)
			if err != nil {
				return ed, err
			}
			ed.Entries = append(ed.Entries, childDoc)
		}
	case moldapi.KindKeyval:
		ed.Kind = "keyval"
		v, err := ctx.Value()
		if err != nil {
			return ed, err
		}
		ed.ValueType = v.Type().String()
		ed.Value = valueToJSON(*v)
	default:
		return ed, fmt.Errorf("jsonplugin: cannot encode kind %s", ctx.Kind())
	}
	return ed, nil
}

func parseVersion(s string) (moldapi.Version, error) {
	return moldapi.VersionFromString(s)
}

func parseValueType(s string) moldapi.ValueType {
	switch s {
	case "STRING":
		return moldapi.ValueTypeString
	case "INTEGER":
		return moldapi.ValueTypeInteger
	case "FLOAT":
		return moldapi.ValueTypeFloat
	case "BOOLEAN":
		return moldapi.ValueTypeBoolean
	case "ENUM":
		return moldapi.ValueTypeEnum
	default:
		return moldapi.ValueTypeString
	}
}

func valueToJSON(v moldapi.Value) interface{} {
	switch v.Type() {
	case moldapi.ValueTypeInteger:
		i, _ := v.GetInteger()
		return i
	case moldapi.ValueTypeFloat:
		f, _ := v.GetFloat()
		return f
	case moldapi.ValueTypeBoolean:
		b, _ := v.GetBoolean()
		return b
	default:
		return v.String()
	}
}

func setValueFromJSON(v *moldapi.Value, raw interface{}) error {
	switch v.Type() {
	case moldapi.ValueTypeString:
		return v.SetString(fmt.Sprint(raw))
	case moldapi.ValueTypeInteger:
		return v.SetInteger(toInt64(raw))
	case moldapi.ValueTypeFloat:
		return v.SetFloat(toFloat64(raw))
	case moldapi.ValueTypeBoolean:
		return v.SetBoolean(toBool(raw))
	case moldapi.ValueTypeEnum:
		return v.SetEnum(fmt.Sprint(raw))
	default:
		return fmt.Errorf("jsonplugin: cannot set value of unknown type")
	}
}

func toInt64(raw interface{}) int64 {
	switch n := raw.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(raw interface{}) float64 {
	switch n := raw.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toBool(raw interface{}) bool {
	b, _ := raw.(bool)
	return b
}
