package corectx

// Collection is an ordered, resettable snapshot iterator over contexts
// handed to a caller. It increments each contained context's refcount at
// construction time (via push) and releases them all exactly once, when
// the caller calls Finished; Next only skips past destroyed entries and
// releases nothing.
type Collection struct {
	items    []*Context
	pos      int
	finished bool
}

func newCollection() *Collection {
	return &Collection{}
}

// push appends ctx to the collection and holds a reference to it. Used by
// ElementStorage and the diff algorithm, which build collections outside
// the begin/finalize path.
func (col *Collection) push(ctx *Context) {
	col.items = append(col.items, ctx.hold())
}

// Size returns the number of live-or-not entries remaining to be visited
// (not yet coalesced).
func (col *Collection) Size() int {
	return len(col.items) - col.pos
}

// Next yields the next live context, skipping destroyed entries (the
// coalesce step), or ErrExhausted once the collection is drained.
func (col *Collection) Next() (*Context, error) {
	for col.pos < len(col.items) {
		c := col.items[col.pos]
		col.pos++
		if c.hasFlag(FlagDestroyed) {
			continue
		}
		return c, nil
	}
	return nil, newErr(StatusExhausted, 0, "", "collection exhausted")
}

// Reset rewinds iteration to the start without releasing references.
func (col *Collection) Reset() {
	col.pos = 0
}

// Finished releases every refcount this collection holds. Idempotent.
func (col *Collection) Finished() {
	if col.finished {
		return
	}
	col.finished = true
	for _, c := range col.items {
		_ = c.Put()
	}
}
