package csv

import (
	"fmt"
	"regexp"
	"sort"
)

// Sentinel values reported by ColumnName.Index.
const (
	// Undefined means the handle is not bound to any column yet.
	Undefined = -1
	// Ghost means the handle is bound to a virtual column that always reads
	// as the empty string.
	Ghost = -2
)

// ColumnIndex is an immutable (name, index) pair.
// The zero value has an empty name and index 0.
type ColumnIndex struct {
	name  string
	index int
}

// NewColumnIndex returns the pair (name, index).
func NewColumnIndex(name string, index int) ColumnIndex {
	return ColumnIndex{name: name, index: index}
}

// Name returns the column name.
func (c ColumnIndex) Name() string { return c.name }

// Index returns the column index.
func (c ColumnIndex) Index() int { return c.index }

// String returns "name#index".
func (c ColumnIndex) String() string {
	return fmt.Sprintf("%s#%d", c.name, c.index)
}

type bindingKind uint8

const (
	bindingUnbound bindingKind = iota
	bindingReal
	bindingGhost
)

// ColumnName is a column name with a lazily bound index. Create one per
// column and reuse it for every row of a stream so the name is looked up
// only once.
//
//	city := csv.NewColumnName("city")
//	for {
//	    ok, err := r.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    v, _ := r.Get(city)
//	}
//
// A handle is bound at most once; binding it to a different index fails with
// ErrRebind unless rebinding is explicitly allowed.
type ColumnName struct {
	name  string
	kind  bindingKind
	index int
}

// NewColumnName returns an unbound handle for name.
func NewColumnName(name string) *ColumnName {
	return &ColumnName{name: name}
}

// Name returns the column name.
func (c *ColumnName) Name() string { return c.name }

// Index returns the bound index, Undefined if unbound, or Ghost.
func (c *ColumnName) Index() int {
	switch c.kind {
	case bindingReal:
		return c.index
	case bindingGhost:
		return Ghost
	default:
		return Undefined
	}
}

// IsBound reports whether the handle is bound to a real or ghost column.
func (c *ColumnName) IsBound() bool { return c.kind != bindingUnbound }

// IsGhost reports whether the handle is bound to a ghost column.
func (c *ColumnName) IsGhost() bool { return c.kind == bindingGhost }

// String returns the name and binding, as in "city#3" or "fax#ghost".
func (c *ColumnName) String() string {
	switch c.kind {
	case bindingReal:
		return fmt.Sprintf("%s#%d", c.name, c.index)
	case bindingGhost:
		return c.name + "#ghost"
	default:
		return c.name + "#unbound"
	}
}

// Bind binds the handle to index, which is a non-negative column index or
// Ghost. Binding again to the same index is a no-op.
func (c *ColumnName) Bind(index int, allowRebind bool) error {
	var kind bindingKind
	switch {
	case index == Ghost:
		kind = bindingGhost
	case index >= 0:
		kind = bindingReal
	default:
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	if c.kind != bindingUnbound && c.Index() != index && !allowRebind {
		return fmt.Errorf("%w: %q is bound to %d, cannot bind to %d", ErrRebind, c.name, c.Index(), index)
	}

	c.kind = kind
	c.index = 0
	if kind == bindingReal {
		c.index = index
	}
	return nil
}

// BindFromMapper binds the handle to the index m holds for its name. When
// the name is unknown, it fails with ErrUnknownColumn if mustExist is set;
// otherwise the handle becomes a ghost and the ghost is registered in m.
func (c *ColumnName) BindFromMapper(m *ColumnMapper, mustExist, allowRebind bool) error {
	if index, ok := m.FindByName(c.name); ok {
		return c.Bind(index, allowRebind)
	}
	if mustExist {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, c.name)
	}
	if err := c.Bind(Ghost, allowRebind); err != nil {
		return err
	}
	return m.Add(c.name, Ghost)
}

// Unbind returns the handle to the unbound state so it can be used with a
// different stream.
func (c *ColumnName) Unbind() {
	c.kind = bindingUnbound
	c.index = 0
}

// columnSuffix matches a trailing "_NNN" disambiguation counter.
var columnSuffix = regexp.MustCompile(`_[0-9]+$`)

// ColumnMapper is a bidirectional registry of column names and indices.
//
// Every real index maps to exactly one name and back. Ghost names are
// recorded name-to-index only, since any number of them share Ghost.
// The zero value is ready to use.
type ColumnMapper struct {
	byName  map[string]int
	byIndex map[int]string
	next    int
}

// NewColumnMapper returns an empty mapper.
func NewColumnMapper() *ColumnMapper {
	m := &ColumnMapper{}
	m.init()
	return m
}

func (m *ColumnMapper) init() {
	if m.byName == nil {
		m.byName = make(map[string]int)
		m.byIndex = make(map[int]string)
	}
}

// Add maps name to index. Adding an identical pair again is a no-op.
// It fails with ErrNameConflict if name maps elsewhere, ErrIndexConflict if
// index belongs to another name, and ErrInvalidIndex for negative indices
// other than Ghost.
func (m *ColumnMapper) Add(name string, index int) error {
	m.init()

	existing, known := m.byName[name]
	if index == Ghost {
		if !known {
			m.byName[name] = Ghost
			return nil
		}
		if existing == Ghost {
			return nil
		}
		return fmt.Errorf("%w: %q is column %d, not a ghost", ErrNameConflict, name, existing)
	}
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if known {
		if existing == index {
			return nil
		}
		return fmt.Errorf("%w: %q already maps to %d", ErrNameConflict, name, existing)
	}
	if owner, ok := m.byIndex[index]; ok {
		return fmt.Errorf("%w: index %d already belongs to %q", ErrIndexConflict, index, owner)
	}

	m.byName[name] = index
	m.byIndex[index] = name
	for {
		if _, used := m.byIndex[m.next]; !used {
			break
		}
		m.next++
	}
	return nil
}

// AddName maps name to the lowest unused index and returns it. If name is
// already known its existing index is returned.
func (m *ColumnMapper) AddName(name string) (int, error) {
	if index, ok := m.FindByName(name); ok {
		return index, nil
	}
	index := m.next
	if err := m.Add(name, index); err != nil {
		return Undefined, err
	}
	return index, nil
}

// AddIndexed ensures some name is bound to index and returns it.
//
// If index already has a name, that name is returned and hint is ignored.
// Otherwise hint is used if it is free. A taken hint is disambiguated by
// replacing any trailing "_NNN" counter with the first free "_002",
// "_003", .... An empty hint defaults to "Column_NNN" with NNN = index+1.
func (m *ColumnMapper) AddIndexed(index int, hint string) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if name, ok := m.byIndex[index]; ok {
		return name, nil
	}
	if hint == "" {
		hint = fmt.Sprintf("Column_%03d", index+1)
	}

	name := hint
	if _, taken := m.byName[name]; taken {
		name = m.uniqueName(hint)
	}
	if err := m.Add(name, index); err != nil {
		return "", err
	}
	return name, nil
}

func (m *ColumnMapper) uniqueName(hint string) string {
	base := hint
	if loc := columnSuffix.FindStringIndex(hint); loc != nil {
		base = hint[:loc[0]]
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%03d", base, n)
		if _, taken := m.byName[candidate]; !taken {
			return candidate
		}
	}
}

// FindByName returns the index mapped to name, which may be Ghost.
func (m *ColumnMapper) FindByName(name string) (int, bool) {
	index, ok := m.byName[name]
	if !ok {
		return Undefined, false
	}
	return index, true
}

// FindByIndex returns the name mapped to index. Negative indices, Ghost
// included, are never found.
func (m *ColumnMapper) FindByIndex(index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	name, ok := m.byIndex[index]
	return name, ok
}

// IsGhost reports whether name is registered as a ghost column.
func (m *ColumnMapper) IsGhost(name string) bool {
	index, ok := m.byName[name]
	return ok && index == Ghost
}

// Len returns the number of real columns.
func (m *ColumnMapper) Len() int {
	return len(m.byIndex)
}

// NextIndex returns the lowest unused real index.
func (m *ColumnMapper) NextIndex() int {
	return m.next
}

// Width returns one past the highest real index.
func (m *ColumnMapper) Width() int {
	width := 0
	for index := range m.byIndex {
		if index+1 > width {
			width = index + 1
		}
	}
	return width
}

// Columns returns the real columns ordered by index.
func (m *ColumnMapper) Columns() []ColumnIndex {
	cols := make([]ColumnIndex, 0, len(m.byIndex))
	for index, name := range m.byIndex {
		cols = append(cols, ColumnIndex{name: name, index: index})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].index < cols[j].index })
	return cols
}

// Names returns the real column names ordered by index.
func (m *ColumnMapper) Names() []string {
	cols := m.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}
