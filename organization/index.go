package organization

// UnitKey ties a configuration OU path to the AWS-assigned identifiers
// of the same OU.
type UnitKey struct {
	Path       string
	ID         string
	Arn        string
	Level      int
	ParentPath string
	ParentID   string
}

// UnitIndex is the in-memory snapshot of the organization's OU tree,
// keyed by complete path. The creator appends newly created OUs so that
// children processed later in the same run resolve their parents; all
// other components only read.
type UnitIndex struct {
	rootID string
	units  []UnitKey
	byPath map[string]int
}

// NewUnitIndex builds an index over the given units under the
// organization root.
func NewUnitIndex(rootID string, units []UnitKey) *UnitIndex {
	idx := &UnitIndex{
		rootID: rootID,
		byPath: make(map[string]int, len(units)),
	}
	for _, u := range units {
		idx.Add(u)
	}
	return idx
}

// RootID returns the id of the organization root.
func (x *UnitIndex) RootID() string {
	return x.rootID
}

// Lookup returns the key for the given complete path.
func (x *UnitIndex) Lookup(path string) (UnitKey, bool) {
	i, ok := x.byPath[path]
	if !ok {
		return UnitKey{}, false
	}
	return x.units[i], true
}

// Add appends a unit to the index, replacing any previous entry for the
// same path.
func (x *UnitIndex) Add(u UnitKey) {
	if i, ok := x.byPath[u.Path]; ok {
		x.units[i] = u
		return
	}
	x.byPath[u.Path] = len(x.units)
	x.units = append(x.units, u)
}

// Units returns all indexed units in insertion order.
func (x *UnitIndex) Units() []UnitKey {
	out := make([]UnitKey, len(x.units))
	copy(out, x.units)
	return out
}
