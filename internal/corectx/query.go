package corectx

import (
	"strconv"
	"strings"
)

// ResolveQuery walks a dotted path such as "network.listener@1.port" from
// root, where a trailing "@N" on a path segment disambiguates among
// repeated config-side section/keyval names by zero-based occurrence
// index. Returns the resolved context without transferring ownership of
// a new reference beyond the one the caller already holds on root.
func ResolveQuery(root *Context, path string) (*Context, error) {
	if path == "" {
		return nil, newErr(StatusInvalidArgument, root.kind, "", "empty query path")
	}
	segments := strings.Split(path, ".")
	cur := root
	for _, seg := range segments {
		name, idx, err := parseSegment(seg)
		if err != nil {
			return nil, err
		}
		storage := cur.childStorage()
		if storage == nil {
			return nil, newErr(StatusWrongContext, cur.kind, name, "kind %s has no named children to query", cur.kind)
		}
		matches := storage.namedSlice(name)
		if len(matches) == 0 {
			return nil, newErr(StatusNotExist, cur.kind, name, "no element named %q under %s", name, cur.displayName())
		}
		if idx < 0 {
			if len(matches) > 1 {
				return nil, newErr(StatusExists, cur.kind, name, "%q is ambiguous: %d entries, use name@index", name, len(matches))
			}
			idx = 0
		}
		if idx >= len(matches) {
			return nil, newErr(StatusNotExist, cur.kind, name, "index %d out of range for %q (%d entries)", idx, name, len(matches))
		}
		cur = matches[idx]
	}
	return cur, nil
}

// parseSegment splits "name@index" into its name and zero-based index, or
// returns index -1 when no @index suffix is present (meaning "the only
// one, or error if ambiguous").
func parseSegment(seg string) (string, int, error) {
	at := strings.LastIndexByte(seg, '@')
	if at < 0 {
		return seg, -1, nil
	}
	name := seg[:at]
	idxStr := seg[at+1:]
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return "", 0, newErr(StatusInvalidArgument, 0, seg, "invalid @index suffix %q", idxStr)
	}
	return name, idx, nil
}

// ResolveRootName returns a human-readable identifier for a Mold/Config
// root, used by CLI and log output where the tree itself has no name.
func ResolveRootName(root *Context) string {
	switch root.kind {
	case KindMold:
		return "mold@" + root.mold.version.String()
	case KindConfig:
		if root.config.origin != "" {
			return root.config.origin
		}
		return "config@" + root.config.version.String()
	default:
		return root.kind.String()
	}
}
