package corectx

import "fmt"

// Diff walks two same-mold config trees structurally and returns an
// append-only list of human-readable differences. Order follows a's
// element order; names present only in b are reported after names common
// to both or present only in a.
func Diff(a, b *Context) ([]string, error) {
	if a == nil || b == nil {
		return nil, newErr(StatusInvalidArgument, 0, "", "diff requires two non-nil configs")
	}
	if a.kind != KindConfig || b.kind != KindConfig {
		return nil, newErr(StatusWrongContext, a.kind, "", "diff only operates on two configs")
	}
	var out []string
	diffStorage(a.config.elements, b.config.elements, "", &out)
	if !a.config.version.Equal(b.config.version) {
		out = append(out, fmt.Sprintf("config version differs: %s vs %s", a.config.version, b.config.version))
	}
	return out, nil
}

func diffStorage(a, b *ElementStorage, path string, out *[]string) {
	seen := make(map[string]bool)
	for _, name := range a.Names() {
		seen[name] = true
		diffNamed(name, a.namedSlice(name), b.namedSlice(name), path, out)
	}
	for _, name := range b.Names() {
		if seen[name] {
			continue
		}
		diffNamed(name, nil, b.namedSlice(name), path, out)
	}
}

func diffNamed(name string, as, bs []*Context, path string, out *[]string) {
	full := joinPath(path, name)
	if len(as) == 0 {
		for range bs {
			*out = append(*out, fmt.Sprintf("%s: added", full))
		}
		return
	}
	if len(bs) == 0 {
		for range as {
			*out = append(*out, fmt.Sprintf("%s: removed", full))
		}
		return
	}
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		diffNode(as[i], bs[i], full, out)
	}
	for i := n; i < len(as); i++ {
		*out = append(*out, fmt.Sprintf("%s: removed", full))
	}
	for i := n; i < len(bs); i++ {
		*out = append(*out, fmt.Sprintf("%s: added", full))
	}
}

func diffNode(a, b *Context, path string, out *[]string) {
	if a.kind != b.kind {
		*out = append(*out, fmt.Sprintf("%s: kind changed from %s to %s", path, a.kind, b.kind))
		return
	}
	switch a.kind {
	case KindKeyval:
		if !a.keyval.value.Equal(b.keyval.value) {
			*out = append(*out, fmt.Sprintf("%s: value changed from %q to %q", path, a.keyval.value.Bounded(MaxStringify), b.keyval.value.Bounded(MaxStringify)))
		}
	case KindSection:
		diffStorage(a.section.elements, b.section.elements, path, out)
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
