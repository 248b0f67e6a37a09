package model

// Dict interns item strings to compact Item identifiers. A dictionary is
// owned by a single transaction source and is not safe for concurrent use;
// algorithm instances evaluated side by side must each be fed from their
// own source (they share no mutable state).
type Dict struct {
	ids   map[string]Item
	names []string
}

// NewDict creates an empty item dictionary.
func NewDict() *Dict {
	return &Dict{ids: make(map[string]Item)}
}

// Intern returns the Item for the given string, assigning the next free
// identifier on first use.
func (d *Dict) Intern(s string) Item {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := Item(len(d.names))
	d.ids[s] = id
	d.names = append(d.names, s)
	return id
}

// Lookup returns the Item for s without interning it.
func (d *Dict) Lookup(s string) (Item, bool) {
	id, ok := d.ids[s]
	return id, ok
}

// Name returns the original string for an interned item, or "" if the
// item was never interned.
func (d *Dict) Name(item Item) string {
	if int(item) >= len(d.names) {
		return ""
	}
	return d.names[item]
}

// Len returns the number of distinct interned items.
func (d *Dict) Len() int {
	return len(d.names)
}
