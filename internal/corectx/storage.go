package corectx

// ElementStorage is an ordered multimap from child name to the list of
// children registered under that name, plus a global list preserving
// insertion order across all names. Duplicates are legal — Config keyvals
// and sections may repeat a name; the mold path never does because
// MoldBegin callers only ever add one child per name.
type ElementStorage struct {
	byName map[string][]*Context
	order  []*Context
}

// NewElementStorage returns an empty storage.
func NewElementStorage() *ElementStorage {
	return &ElementStorage{byName: make(map[string][]*Context)}
}

// Add appends ctx to both the per-name list and the global list.
func (s *ElementStorage) Add(name string, ctx *Context) {
	s.byName[name] = append(s.byName[name], ctx)
	s.order = append(s.order, ctx)
}

// Remove deletes ctx by identity from both lists. Removing the last entry
// for a name removes the name from the map entirely.
func (s *ElementStorage) Remove(name string, ctx *Context) error {
	list, ok := s.byName[name]
	if !ok {
		return newErr(StatusNotExist, ctx.kind, name, "no elements named %q", name)
	}
	idx := -1
	for i, c := range list {
		if c == ctx {
			idx = i
			break
		}
	}
	if idx == -1 {
		return newErr(StatusNotExist, ctx.kind, name, "element not registered under %q", name)
	}
	list = append(list[:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(s.byName, name)
	} else {
		s.byName[name] = list
	}
	for i, c := range s.order {
		if c == ctx {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// namedSlice returns the raw, non-holding slice of children under name, for
// internal recursive walks (validate, destroy, diff) that must not perturb
// refcounts.
func (s *ElementStorage) namedSlice(name string) []*Context {
	return s.byName[name]
}

// allSlice returns the raw, non-holding global-order slice, for internal
// recursive walks.
func (s *ElementStorage) allSlice() []*Context {
	return s.order
}

// Get returns an insertion-ordered, refcount-holding snapshot of every
// child named name.
func (s *ElementStorage) Get(name string) (*Collection, error) {
	list, ok := s.byName[name]
	if !ok || len(list) == 0 {
		return nil, newErr(StatusNotExist, 0, name, "no elements named %q", name)
	}
	col := newCollection()
	for _, c := range list {
		col.push(c)
	}
	return col, nil
}

// GetFirst is the mold-path convenience: exactly one child is expected per
// name.
func (s *ElementStorage) GetFirst(name string) (*Context, error) {
	list, ok := s.byName[name]
	if !ok || len(list) == 0 {
		return nil, newErr(StatusNotExist, 0, name, "no element named %q", name)
	}
	return list[0].hold(), nil
}

// GetAll returns a refcount-holding snapshot of every child in global
// insertion order.
func (s *ElementStorage) GetAll() *Collection {
	col := newCollection()
	for _, c := range s.order {
		col.push(c)
	}
	return col
}

// Names returns the distinct child names in first-seen order.
func (s *ElementStorage) Names() []string {
	seen := make(map[string]bool, len(s.byName))
	names := make([]string, 0, len(s.byName))
	for _, c := range s.order {
		n := c.displayName()
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

func (s *ElementStorage) count(name string) int {
	return len(s.byName[name])
}
